// Package shipping parses rendered prices and holds the free-shipping rule.
package shipping

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// ErrUnrecognizedAmount is returned for text matching no known price pattern.
var ErrUnrecognizedAmount = errors.New("unrecognized amount")

// Money is an amount in minor units (cents).
type Money struct {
	Cents    int64
	Currency string
}

// Zero reports whether m is a zero amount.
func (m Money) Zero() bool { return m.Cents == 0 }

// Less compares amounts, ignoring currency.
func (m Money) Less(o Money) bool { return m.Cents < o.Cents }

// Equal reports whether m and o are the same amount. Zero amounts are equal
// regardless of currency, since "Free" carries none.
func (m Money) Equal(o Money) bool {
	return m.Cents == o.Cents && (m.Cents == 0 || m.Currency == o.Currency)
}

var symbols = map[string]string{
	"EUR": "€",
	"USD": "$",
	"GBP": "£",
}

// String renders m the way the shop shows it, e.g. "8.00 €".
func (m Money) String() string {
	sign := ""
	c := m.Cents
	if c < 0 {
		sign = "-"
		c = -c
	}
	amount := fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
	if sym, ok := symbols[m.Currency]; ok {
		return amount + " " + sym
	}
	if m.Currency != "" {
		return amount + " " + m.Currency
	}
	return amount
}

// Euros returns an EUR amount from a decimal value, rounded to the cent.
func Euros(v float64) Money {
	return Money{Cents: int64(math.Round(v * 100)), Currency: "EUR"}
}

// ParseError reports text that could not be read as an amount.
type ParseError struct {
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse amount %q: %s", e.Text, e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrUnrecognizedAmount }

var (
	numberRe = regexp.MustCompile(`[-+]?\d[\d.,' \x{00A0}\x{202F}]*`)
	// currency markers, checked in order
	markers = []struct {
		token, code string
	}{
		{"€", "EUR"},
		{"EUR", "EUR"},
		{"$", "USD"},
		{"USD", "USD"},
		{"£", "GBP"},
		{"GBP", "GBP"},
	}
)

// mojibakeRounds bounds how many layers of mis-decoding are undone.
const mojibakeRounds = 3

// RepairMojibake undoes UTF-8 text that was decoded as Windows-1252, once or
// repeatedly, e.g. "8.00 â‚¬" and "8.00 Ã¢â€šÂ¬" both become "8.00 €". A
// round that does not produce valid UTF-8 stops the repair.
func RepairMojibake(s string) string {
	for i := 0; i < mojibakeRounds && strings.ContainsAny(s, "âÂÃ"); i++ {
		encoded, err := charmap.Windows1252.NewEncoder().String(s)
		if err != nil || !utf8.ValidString(encoded) {
			break
		}
		s = encoded
	}
	return s
}

// ParseMoney reads a rendered price. It accepts "8.00 €", "€8,00",
// "1.234,56 €", "EUR 8.00", "$8.00", "Free" and the mojibake form of the
// euro sign. Text without a currency marker is rejected.
func ParseMoney(text string) (Money, error) {
	s := strings.TrimSpace(RepairMojibake(text))
	if s == "" {
		return Money{}, &ParseError{Text: text, Reason: "empty"}
	}
	if strings.EqualFold(strings.TrimSuffix(s, "!"), "free") {
		return Money{}, nil
	}

	currency := ""
	upper := strings.ToUpper(s)
	for _, m := range markers {
		if strings.Contains(upper, m.token) {
			currency = m.code
			break
		}
	}
	if currency == "" {
		return Money{}, &ParseError{Text: text, Reason: "no currency marker"}
	}

	raw := numberRe.FindString(s)
	if raw == "" {
		return Money{}, &ParseError{Text: text, Reason: "no digits"}
	}
	cents, err := parseCents(strings.TrimRight(raw, " .,'\u00a0\u202f"))
	if err != nil {
		return Money{}, &ParseError{Text: text, Reason: err.Error()}
	}
	return Money{Cents: cents, Currency: currency}, nil
}

// parseCents treats the last '.' or ',' followed by one or two trailing digits
// as the decimal separator; every other separator groups thousands.
func parseCents(n string) (int64, error) {
	neg := false
	switch {
	case strings.HasPrefix(n, "-"):
		neg = true
		n = n[1:]
	case strings.HasPrefix(n, "+"):
		n = n[1:]
	}

	intPart, frac := n, ""
	if i := strings.LastIndexAny(n, ".,"); i >= 0 {
		tail := n[i+1:]
		if len(tail) >= 1 && len(tail) <= 2 && isDigits(tail) {
			intPart, frac = n[:i], tail
		}
	}

	digits := strings.Map(func(r rune) rune {
		switch r {
		case '.', ',', '\'', ' ', '\u00a0', '\u202f':
			return -1
		}
		return r
	}, intPart)
	if digits == "" || !isDigits(digits) {
		return 0, fmt.Errorf("malformed number %q", n)
	}
	if len(digits) > 15 {
		return 0, fmt.Errorf("number %q out of range", n)
	}

	var units int64
	for _, r := range digits {
		units = units*10 + int64(r-'0')
	}
	if len(frac) == 1 {
		frac += "0"
	}
	var cents int64
	for _, r := range frac {
		cents = cents*10 + int64(r-'0')
	}

	total := units*100 + cents
	if neg {
		total = -total
	}
	return total, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
