package account

import (
	"strings"
	"testing"
	"time"
)

func TestCredentials_Validate(t *testing.T) {
	tests := []struct {
		name    string
		creds   Credentials
		wantErr bool
	}{
		{"valid", Credentials{Email: "maria3@gmail.com", Password: "maria3"}, false},
		{"no password", Credentials{Email: "maria3@gmail.com"}, true},
		{"no email", Credentials{Password: "x"}, true},
		{"no domain", Credentials{Email: "maria3@", Password: "x"}, true},
		{"no local part", Credentials{Email: "@gmail.com", Password: "x"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.creds.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCredentials_Identity(t *testing.T) {
	tests := []struct {
		email    string
		expected string
	}{
		{"maria3@gmail.com", "m***@gmail.com"},
		{"a@b.c", "a***@b.c"},
		{"not-an-email", "***"},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := (Credentials{Email: tt.email}).Identity(); got != tt.expected {
				t.Errorf("Identity() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCredentials_WithPassword(t *testing.T) {
	c := Credentials{Email: "maria3@gmail.com", Password: "maria3"}
	wrong := c.WithPassword("wrong")

	if wrong.Password != "wrong" {
		t.Errorf("Password = %v, want wrong", wrong.Password)
	}
	if c.Password != "maria3" {
		t.Error("WithPassword modified the original")
	}
}

func validProfile() CheckoutProfile {
	return CheckoutProfile{
		Street:     "Test str. 1",
		City:       "Test",
		PostalCode: "12323",
		CardNumber: "1111111111111111",
		NameOnCard: "Maria Lazar",
		Expiry:     "12/2032",
		CVC:        "123",
	}
}

func TestCheckoutProfile_Validate(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mutate  func(*CheckoutProfile)
		wantErr string
	}{
		{"valid", func(*CheckoutProfile) {}, ""},
		{"missing fields", func(p *CheckoutProfile) { p.City = ""; p.CVC = " " }, "missing city, cvc"},
		{"short card", func(p *CheckoutProfile) { p.CardNumber = "1234" }, "card number"},
		{"letters in card", func(p *CheckoutProfile) { p.CardNumber = "1111x11111111111" }, "card number"},
		{"bad cvc", func(p *CheckoutProfile) { p.CVC = "12" }, "cvc"},
		{"bad expiry", func(p *CheckoutProfile) { p.Expiry = "2032-12" }, "MM/YYYY"},
		{"expired", func(p *CheckoutProfile) { p.Expiry = "11/2025" }, "expired"},
		{"expires this month", func(p *CheckoutProfile) { p.Expiry = "01/2026" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProfile()
			tt.mutate(&p)
			err := p.Validate(now)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestCheckoutProfile_MaskedCard(t *testing.T) {
	p := validProfile()
	if got, want := p.MaskedCard(), "************1111"; got != want {
		t.Errorf("MaskedCard() = %v, want %v", got, want)
	}
}
