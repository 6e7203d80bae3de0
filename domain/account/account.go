// Package account defines the shop user the harness logs in as and the
// checkout details it buys with.
package account

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Credentials are the login details of a shop user.
type Credentials struct {
	Email    string
	Password string
}

// Validate checks that both fields are set and the email has a local part and domain.
func (c Credentials) Validate() error {
	if c.Email == "" || c.Password == "" {
		return errors.New("email and password are required")
	}
	at := strings.LastIndex(c.Email, "@")
	if at <= 0 || at == len(c.Email)-1 {
		return fmt.Errorf("email %q is not an address", c.Email)
	}
	return nil
}

// Identity returns a log-safe identifier for the user.
// Format: first letter of the local part, mask, domain.
func (c Credentials) Identity() string {
	at := strings.LastIndex(c.Email, "@")
	if at <= 0 {
		return "***"
	}
	return c.Email[:1] + "***" + c.Email[at:]
}

// WithPassword returns a copy of c with a different password.
func (c Credentials) WithPassword(password string) Credentials {
	c.Password = password
	return c
}

// CheckoutProfile is the shipping address and card used to place orders.
type CheckoutProfile struct {
	Street     string
	City       string
	PostalCode string
	CardNumber string
	NameOnCard string
	Expiry     string // MM/YYYY
	CVC        string
}

// Validate checks presence and shape of each field. Expiry must be MM/YYYY and
// not in the past relative to now.
func (p CheckoutProfile) Validate(now time.Time) error {
	var missing []string
	for name, v := range map[string]string{
		"street": p.Street, "city": p.City, "postalCode": p.PostalCode,
		"cardNumber": p.CardNumber, "nameOnCard": p.NameOnCard,
		"expiry": p.Expiry, "cvc": p.CVC,
	} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("checkout profile missing %s", strings.Join(missing, ", "))
	}

	if n := len(p.CardNumber); n < 12 || n > 19 || !digitsOnly(p.CardNumber) {
		return fmt.Errorf("card number must be 12-19 digits")
	}
	if n := len(p.CVC); (n != 3 && n != 4) || !digitsOnly(p.CVC) {
		return fmt.Errorf("cvc must be 3 or 4 digits")
	}
	exp, err := time.Parse("01/2006", p.Expiry)
	if err != nil {
		return fmt.Errorf("expiry %q must be MM/YYYY", p.Expiry)
	}
	if exp.AddDate(0, 1, 0).Before(now) {
		return fmt.Errorf("card expired %s", p.Expiry)
	}
	return nil
}

// MaskedCard returns the card number with all but the last four digits hidden.
func (p CheckoutProfile) MaskedCard() string {
	if len(p.CardNumber) <= 4 {
		return p.CardNumber
	}
	return strings.Repeat("*", len(p.CardNumber)-4) + p.CardNumber[len(p.CardNumber)-4:]
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

