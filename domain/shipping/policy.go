package shipping

import "fmt"

// Policy is the flat-fee / free-shipping rule: orders below Threshold pay
// FlatFee, orders at or above it ship free.
type Policy struct {
	Threshold Money
	FlatFee   Money
}

// Fee returns the shipping fee for subtotal.
func (p Policy) Fee(subtotal Money) Money {
	if subtotal.Less(p.Threshold) {
		return p.FlatFee
	}
	return Money{Cents: 0, Currency: p.FlatFee.Currency}
}

// Validate checks that the policy describes a real step.
func (p Policy) Validate() error {
	if p.Threshold.Cents <= 0 {
		return fmt.Errorf("shipping threshold must be positive, got %s", p.Threshold)
	}
	if p.FlatFee.Cents <= 0 {
		return fmt.Errorf("shipping flat fee must be positive, got %s", p.FlatFee)
	}
	return nil
}

func (p Policy) String() string {
	return fmt.Sprintf("%s below %s, free above", p.FlatFee, p.Threshold)
}
