package pages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"grocerycheck/core/fault"
	"grocerycheck/domain/agegate"
	"grocerycheck/infrastructure/browser"
)

// StorePath is the product listing route.
const StorePath = "/store"

// addToCartAttempts bounds the retries of a click that races a re-render.
const addToCartAttempts = 3

// ShopPage drives the store listing and its age verification modal.
type ShopPage struct {
	page
}

// NewShopPage returns the store page object.
func NewShopPage(d browser.Driver, site Site) *ShopPage {
	return &ShopPage{page: newPage(d, site)}
}

// Open navigates to the store.
func (p *ShopPage) Open(ctx context.Context) error {
	return p.open(ctx, StorePath)
}

// AgePromptPresent reports whether the age modal is showing. The listing
// renders before the modal mounts, so a listing alone is only taken as
// absence once the birth date input has stayed away for the probe timeout.
// A page showing neither is an unexpected state.
func (p *ShopPage) AgePromptPresent(ctx context.Context) (bool, error) {
	var prompt bool
	err := p.poll(ctx, "age prompt or product listing", p.site.Timeouts.Wait, func(ctx context.Context) (bool, error) {
		ok, err := p.d.Exists(ctx, BirthDateInput)
		if err != nil {
			return false, err
		}
		if ok {
			prompt = true
			return true, nil
		}
		n, err := p.d.Count(ctx, ProductCard)
		return n > 0, err
	})
	if errors.Is(err, fault.ErrElementNotFound) {
		return false, &fault.UnexpectedStateError{Where: "store", Observed: p.visibleText(ctx)}
	}
	if err != nil {
		return false, err
	}
	if prompt {
		if err := p.waitVisible(ctx, BirthDateInput, p.site.Timeouts.Probe); err != nil {
			return false, err
		}
		return true, nil
	}
	return p.probe(ctx, BirthDateInput, p.site.Timeouts.Probe)
}

// SubmitBirthDate types date (possibly empty) into the modal and confirms.
func (p *ShopPage) SubmitBirthDate(ctx context.Context, date string) error {
	if err := p.typeInto(ctx, BirthDateInput, date); err != nil {
		return err
	}
	return p.jsClick(ctx, AgeConfirm)
}

// ReadAgeResult waits for the application's answer to a submitted birth date.
// Known messages decide the outcome. Without one, a closed modal over a
// rendered listing counts as admission; anything else is an unexpected state.
func (p *ShopPage) ReadAgeResult(ctx context.Context) (agegate.Result, error) {
	var result agegate.Result
	var unknown string
	err := p.poll(ctx, "age gate message", p.site.Timeouts.Wait, func(ctx context.Context) (bool, error) {
		texts, err := p.d.Texts(ctx, AgeMessage)
		if err != nil {
			return false, err
		}
		for _, t := range texts {
			if outcome, ok := agegate.Classify(t); ok {
				result = agegate.Result{Outcome: outcome, Reason: t}
				return true, nil
			}
			if t != "" {
				unknown = t
			}
		}
		return false, nil
	})
	if err == nil {
		return result, nil
	}
	if !errors.Is(err, fault.ErrElementNotFound) {
		return agegate.Result{}, err
	}

	admitted, serr := p.storeAccessible(ctx)
	if serr != nil {
		return agegate.Result{}, serr
	}
	if admitted {
		return agegate.Result{Outcome: agegate.Admitted, Reason: "store visible without age prompt"}, nil
	}
	observed := unknown
	if observed == "" {
		observed = p.visibleText(ctx)
	}
	return agegate.Result{}, &fault.UnexpectedStateError{Where: "age gate", Observed: observed}
}

func (p *ShopPage) storeAccessible(ctx context.Context) (bool, error) {
	prompt, err := p.d.Exists(ctx, BirthDateInput)
	if err != nil || prompt {
		return false, err
	}
	path, err := p.path(ctx)
	if err != nil || !strings.HasPrefix(path, StorePath) {
		return false, err
	}
	n, err := p.d.Count(ctx, ProductCard)
	return n > 0, err
}

// PassAgeGate answers the modal with date when it shows. A store that
// renders without the modal is reported as agegate.NotPresent; callers
// decide whether that is acceptable.
func (p *ShopPage) PassAgeGate(ctx context.Context, date string) (agegate.Result, error) {
	prompt, err := p.AgePromptPresent(ctx)
	if err != nil {
		return agegate.Result{}, err
	}
	if !prompt {
		return agegate.Result{Outcome: agegate.NotPresent}, nil
	}
	if err := p.SubmitBirthDate(ctx, date); err != nil {
		return agegate.Result{}, err
	}
	return p.ReadAgeResult(ctx)
}

// AddToCart adds qty units of product from the listing, one click per unit.
// Each click waits for the card to re-render before the next one.
func (p *ShopPage) AddToCart(ctx context.Context, product string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("add to cart: quantity must be positive, got %d", qty)
	}
	button := AddToCart.With(browser.XPathLiteral(product))
	quantity := CardQuantity.With(browser.XPathLiteral(product))

	for i := 0; i < qty; i++ {
		before, err := p.d.Value(ctx, quantity)
		if err != nil && !errors.Is(err, browser.ErrNodeNotFound) {
			return fmt.Errorf("read %s quantity: %w", product, err)
		}
		if err := p.clickWithRetry(ctx, button); err != nil {
			return fmt.Errorf("add %s to cart (unit %d of %d): %w", product, i+1, qty, err)
		}
		if err := p.poll(ctx, quantity.String()+" update", p.site.Timeouts.Probe, func(ctx context.Context) (bool, error) {
			after, err := p.d.Value(ctx, quantity)
			if errors.Is(err, browser.ErrNodeNotFound) {
				// Cards that only show a button once the item is added.
				return true, nil
			}
			if err != nil {
				return false, err
			}
			return after != before, nil
		}); err != nil {
			return fmt.Errorf("add %s to cart (unit %d of %d): %w", product, i+1, qty, err)
		}
	}
	return nil
}

func (p *ShopPage) clickWithRetry(ctx context.Context, loc browser.Locator) error {
	var err error
	for attempt := 1; attempt <= addToCartAttempts; attempt++ {
		if err = p.jsClick(ctx, loc); err == nil || !errors.Is(err, browser.ErrNodeNotFound) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * pollInterval):
		}
	}
	return err
}

// OpenProduct opens the detail page of product from the listing.
func (p *ShopPage) OpenProduct(ctx context.Context, product string) error {
	if err := p.jsClick(ctx, ProductImage.With(browser.XPathLiteral(product))); err != nil {
		return fmt.Errorf("open product %s: %w", product, err)
	}
	return p.poll(ctx, "product page of "+product, p.site.Timeouts.Slow, func(ctx context.Context) (bool, error) {
		path, err := p.path(ctx)
		return strings.HasPrefix(path, ProductPathPrefix), err
	})
}
