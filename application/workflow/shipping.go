package workflow

import (
	"context"
	"fmt"

	"grocerycheck/core/fault"
	"grocerycheck/domain/shipping"
)

// ShippingThreshold verifies the free-shipping step on the cart page. It
// starts from an empty cart with one unit of product, adds units until the
// subtotal reaches the threshold, then removes them one at a time until it
// drops below again, checking the displayed fee after every change. The cart
// is emptied when the session closes, whatever the outcome.
func (w *Workflow) ShippingThreshold(ctx context.Context, product string) error {
	policy := w.env.Policy
	if err := policy.Validate(); err != nil {
		return err
	}
	if err := w.EnsureAdmitted(ctx); err != nil {
		return err
	}

	w.h.Defer("empty cart", func(ctx context.Context) error {
		_, err := w.cart.Clear(ctx)
		return err
	})
	if err := w.h.Step(ctx, "empty cart", func(ctx context.Context) error {
		n, err := w.cart.Clear(ctx)
		w.observe("stale_cart_lines", n)
		return err
	}); err != nil {
		return err
	}

	var (
		unit  shipping.Money
		units int
	)
	if err := w.h.Step(ctx, "add one unit below threshold", func(ctx context.Context) error {
		if err := w.addUnits(ctx, product, 1); err != nil {
			return err
		}
		units = 1
		subtotal, err := w.readAndCheckFee(ctx, "fee_below")
		if err != nil {
			return err
		}
		if !subtotal.Less(policy.Threshold) || subtotal.Cents <= 0 {
			return fmt.Errorf("one unit of %s costs %s, need a product below the %s threshold", product, subtotal, policy.Threshold)
		}
		unit = subtotal
		w.observe("unit_price", unit)
		return nil
	}); err != nil {
		return err
	}

	if err := w.h.Step(ctx, "add units until free shipping", func(ctx context.Context) error {
		subtotal := unit
		for subtotal.Less(policy.Threshold) {
			needed := int((policy.Threshold.Cents - subtotal.Cents + unit.Cents - 1) / unit.Cents)
			if units+needed > w.env.MaxUnits {
				return fmt.Errorf("reaching %s needs more than %d units of %s", policy.Threshold, w.env.MaxUnits, product)
			}
			if err := w.addUnits(ctx, product, needed); err != nil {
				return err
			}
			units += needed

			var err error
			if subtotal, err = w.readAndCheckFee(ctx, "fee_at_threshold"); err != nil {
				return err
			}
		}
		w.observe("units_at_threshold", units)
		return nil
	}); err != nil {
		return err
	}

	return w.h.Step(ctx, "remove units until flat fee", func(ctx context.Context) error {
		for {
			if units <= 1 {
				return &fault.UnexpectedStateError{
					Where:    "cart",
					Observed: fmt.Sprintf("subtotal still at or above %s with one unit left", policy.Threshold),
				}
			}
			subtotal, err := w.cart.DecreaseQuantity(ctx)
			if err != nil {
				return err
			}
			units--
			fee, err := w.cart.ShippingCost(ctx)
			if err != nil {
				return err
			}
			if err := w.checkFee(subtotal, fee); err != nil {
				return err
			}
			if subtotal.Less(policy.Threshold) {
				w.observe("fee_after_removal", fee)
				w.observe("units_below_threshold", units)
				return nil
			}
		}
	})
}

// addUnits adds qty units from the store listing.
func (w *Workflow) addUnits(ctx context.Context, product string, qty int) error {
	if err := w.shop.Open(ctx); err != nil {
		return err
	}
	return w.shop.AddToCart(ctx, product, qty)
}

// readAndCheckFee opens the cart, re-reads both totals and checks the fee.
func (w *Workflow) readAndCheckFee(ctx context.Context, key string) (shipping.Money, error) {
	if err := w.cart.Open(ctx); err != nil {
		return shipping.Money{}, err
	}
	subtotal, fee, err := w.cart.Totals(ctx)
	if err != nil {
		return shipping.Money{}, err
	}
	w.observe(key, fmt.Sprintf("%s at %s", fee, subtotal))
	return subtotal, w.checkFee(subtotal, fee)
}

func (w *Workflow) checkFee(subtotal, fee shipping.Money) error {
	want := w.env.Policy.Fee(subtotal)
	if !want.Equal(fee) {
		return fault.Assertf(fmt.Sprintf("shipping fee at subtotal %s", subtotal), want, fee)
	}
	return nil
}
