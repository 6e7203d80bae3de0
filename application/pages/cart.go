package pages

import (
	"context"
	"errors"
	"fmt"

	"grocerycheck/core/fault"
	"grocerycheck/domain/account"
	"grocerycheck/domain/shipping"
	"grocerycheck/infrastructure/browser"
)

// CheckoutPath is the cart and checkout route.
const CheckoutPath = "/checkout"

// maxCartLines bounds the clear loop against a cart that never empties.
const maxCartLines = 50

// CartPage drives the combined cart and checkout page.
type CartPage struct {
	page
}

// NewCartPage returns the cart page object.
func NewCartPage(d browser.Driver, site Site) *CartPage {
	return &CartPage{page: newPage(d, site)}
}

// Open navigates to the cart and waits until it shows either lines or totals.
func (p *CartPage) Open(ctx context.Context) error {
	if err := p.open(ctx, CheckoutPath); err != nil {
		return err
	}
	// An empty cart may render neither; that is fine for callers that only clear it.
	_, err := p.probe(ctx, ShippingCost, p.site.Timeouts.Probe)
	return err
}

// Lines returns the number of distinct products in the cart.
func (p *CartPage) Lines(ctx context.Context) (int, error) {
	n, err := p.d.Count(ctx, RemoveItem)
	if err != nil {
		return 0, fmt.Errorf("count cart lines: %w", err)
	}
	return n, nil
}

// Subtotal reads the cart subtotal.
func (p *CartPage) Subtotal(ctx context.Context) (shipping.Money, error) {
	return p.money(ctx, Subtotal)
}

// ShippingCost reads the displayed shipping fee. "Free" reads as zero.
func (p *CartPage) ShippingCost(ctx context.Context) (shipping.Money, error) {
	return p.money(ctx, ShippingCost)
}

// Totals reads subtotal and shipping fee together.
func (p *CartPage) Totals(ctx context.Context) (subtotal, fee shipping.Money, err error) {
	if subtotal, err = p.Subtotal(ctx); err != nil {
		return
	}
	fee, err = p.ShippingCost(ctx)
	return
}

func (p *CartPage) money(ctx context.Context, loc browser.Locator) (shipping.Money, error) {
	text, err := p.text(ctx, loc)
	if err != nil {
		return shipping.Money{}, err
	}
	m, err := shipping.ParseMoney(text)
	if err != nil {
		return shipping.Money{}, fmt.Errorf("read %s: %w", loc.Name, err)
	}
	return m, nil
}

// DecreaseQuantity removes one unit of the first cart line and waits for the
// subtotal to change. It returns the new subtotal.
func (p *CartPage) DecreaseQuantity(ctx context.Context) (shipping.Money, error) {
	before, err := p.Subtotal(ctx)
	if err != nil {
		return shipping.Money{}, err
	}
	if err := p.jsClick(ctx, DecreaseQuantity); err != nil {
		return shipping.Money{}, err
	}
	after := before
	err = p.poll(ctx, "subtotal change after decrease", p.site.Timeouts.Wait, func(ctx context.Context) (bool, error) {
		text, err := p.firstText(ctx, Subtotal)
		if err != nil || text == "" {
			return false, err
		}
		m, err := shipping.ParseMoney(text)
		if err != nil {
			return false, nil
		}
		after = m
		return m != before, nil
	})
	return after, err
}

// Clear removes every line from the cart and returns how many it removed.
// Clearing an empty cart is a no-op.
func (p *CartPage) Clear(ctx context.Context) (int, error) {
	if err := p.open(ctx, CheckoutPath); err != nil {
		return 0, err
	}
	// Lines render asynchronously; give them a chance before trusting a zero count.
	if _, err := p.probe(ctx, RemoveItem, p.site.Timeouts.Probe); err != nil {
		return 0, err
	}

	removed := 0
	for removed < maxCartLines {
		n, err := p.Lines(ctx)
		if err != nil {
			return removed, err
		}
		if n == 0 {
			return removed, nil
		}
		if err := p.d.JSClick(ctx, RemoveItem); err != nil && !errors.Is(err, browser.ErrNodeNotFound) {
			return removed, fmt.Errorf("remove cart line: %w", err)
		}
		if err := p.poll(ctx, "cart line removal", p.site.Timeouts.Wait, func(ctx context.Context) (bool, error) {
			m, err := p.Lines(ctx)
			return m < n, err
		}); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, &fault.UnexpectedStateError{Where: "cart", Observed: fmt.Sprintf("still not empty after removing %d lines", removed)}
}

// FillCheckout enters the delivery and payment details.
func (p *CartPage) FillCheckout(ctx context.Context, profile account.CheckoutProfile) error {
	fields := []struct {
		loc   browser.Locator
		value string
	}{
		{CheckoutStreet, profile.Street},
		{CheckoutCity, profile.City},
		{CheckoutPostalCode, profile.PostalCode},
		{CheckoutCardNumber, profile.CardNumber},
		{CheckoutNameOnCard, profile.NameOnCard},
		{CheckoutExpiry, profile.Expiry},
		{CheckoutCVC, profile.CVC},
	}
	for _, f := range fields {
		if err := p.typeInto(ctx, f.loc, f.value); err != nil {
			return err
		}
	}
	return nil
}

// BuyNow places the order and waits for the cart to empty.
func (p *CartPage) BuyNow(ctx context.Context) error {
	if err := p.jsClick(ctx, BuyNow); err != nil {
		return err
	}
	return p.waitNotPresent(ctx, RemoveItem, p.site.Timeouts.Slow)
}
