package workflow

import (
	"context"
	"fmt"

	"grocerycheck/application/pages"
	"grocerycheck/core/fault"
)

// EnsurePurchased leaves the browser on the product page with the review
// section unlocked. The shop only lets buyers review, so a product whose
// review form is locked is bought once with the configured checkout profile.
func (w *Workflow) EnsurePurchased(ctx context.Context, product string) error {
	if err := w.EnsureAdmitted(ctx); err != nil {
		return err
	}

	access, err := w.openProduct(ctx, product)
	if err != nil {
		return err
	}
	if access != pages.AccessLocked {
		return nil
	}

	if err := w.h.Step(ctx, "buy "+product, func(ctx context.Context) error {
		if err := w.env.Checkout.Validate(w.env.Now()); err != nil {
			return fmt.Errorf("checkout profile: %w", err)
		}
		if _, err := w.cart.Clear(ctx); err != nil {
			return err
		}
		if err := w.addUnits(ctx, product, 1); err != nil {
			return err
		}
		if err := w.cart.Open(ctx); err != nil {
			return err
		}
		if err := w.cart.FillCheckout(ctx, w.env.Checkout); err != nil {
			return err
		}
		if err := w.cart.BuyNow(ctx); err != nil {
			return err
		}
		w.observe("purchased", product)
		return nil
	}); err != nil {
		return err
	}

	if err := w.shop.Open(ctx); err != nil {
		return err
	}
	if access, err = w.openProduct(ctx, product); err != nil {
		return err
	}
	if access == pages.AccessLocked {
		return &fault.UnexpectedStateError{Where: "product " + product, Observed: "review form still locked after purchase"}
	}
	return nil
}

func (w *Workflow) openProduct(ctx context.Context, product string) (pages.ReviewAccess, error) {
	var access pages.ReviewAccess
	err := w.h.Step(ctx, "open product "+product, func(ctx context.Context) error {
		if err := w.shop.OpenProduct(ctx, product); err != nil {
			return err
		}
		var err error
		access, err = w.product.Access(ctx)
		return err
	})
	return access, err
}
