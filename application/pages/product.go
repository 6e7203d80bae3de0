package pages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"grocerycheck/core/fault"
	"grocerycheck/domain/review"
	"grocerycheck/infrastructure/browser"
)

// ProductPathPrefix starts every product detail route.
const ProductPathPrefix = "/product/"

// ReviewAccess is what the product page offers the signed-in user.
type ReviewAccess int

const (
	// AccessUnknown means the review section never rendered.
	AccessUnknown ReviewAccess = iota
	// AccessLocked means the review section rendered without a form,
	// typically because the user has not bought the product.
	AccessLocked
	// AccessForm means the user may submit a review.
	AccessForm
	// AccessReviewed means the user already has a review on the product.
	AccessReviewed
)

func (a ReviewAccess) String() string {
	switch a {
	case AccessUnknown:
		return "unknown"
	case AccessLocked:
		return "locked"
	case AccessForm:
		return "form"
	case AccessReviewed:
		return "reviewed"
	default:
		return fmt.Sprintf("ReviewAccess(%d)", int(a))
	}
}

// ProductPage drives a product detail page and its reviews.
type ProductPage struct {
	page
}

// NewProductPage returns the product page object.
func NewProductPage(d browser.Driver, site Site) *ProductPage {
	return &ProductPage{page: newPage(d, site)}
}

// Reload refreshes the page.
func (p *ProductPage) Reload(ctx context.Context) error {
	rctx, cancel := context.WithTimeout(ctx, p.site.Timeouts.Slow)
	defer cancel()
	if err := p.d.Reload(rctx); err != nil {
		return fmt.Errorf("reload product page: %w", err)
	}
	return nil
}

// Access waits for the review section to settle and reports what it offers.
// Locked is only reported once the section itself has rendered and no form
// showed up within the wait timeout. A page without the section is an
// unexpected state, returned with AccessUnknown.
func (p *ProductPage) Access(ctx context.Context) (ReviewAccess, error) {
	access := AccessUnknown
	err := p.poll(ctx, "review section", p.site.Timeouts.Wait, func(ctx context.Context) (bool, error) {
		for _, loc := range []browser.Locator{OwnReviewMenu, ReviewDuplicateMessage} {
			ok, err := p.d.Exists(ctx, loc)
			if err != nil {
				return false, err
			}
			if ok {
				access = AccessReviewed
				return true, nil
			}
		}
		ok, err := p.d.Exists(ctx, RatingWidget)
		if err != nil {
			return false, err
		}
		if ok {
			access = AccessForm
			return true, nil
		}
		section, err := p.d.Exists(ctx, ReviewSummary)
		if section {
			access = AccessLocked
		}
		return false, err
	})
	switch {
	case err == nil:
		return access, nil
	case !isTimeout(err):
		return AccessUnknown, err
	case access == AccessLocked:
		return AccessLocked, nil
	}
	return AccessUnknown, &fault.UnexpectedStateError{Where: "review section", Observed: p.visibleText(ctx)}
}

// FormOffered reports whether the rating widget is currently shown.
func (p *ProductPage) FormOffered(ctx context.Context) (bool, error) {
	ok, err := p.d.Exists(ctx, RatingWidget)
	if err != nil {
		return false, fmt.Errorf("look for %s: %w", RatingWidget.Name, err)
	}
	return ok, nil
}

// RemoveExistingReview deletes the user's review if there is one. A review
// is only reported NotPresent when the empty form is showing; a locked or
// missing review section and a failed delete are errors.
func (p *ProductPage) RemoveExistingReview(ctx context.Context) (review.RemoveOutcome, error) {
	access, err := p.Access(ctx)
	if err != nil {
		return 0, err
	}
	switch access {
	case AccessForm:
		return review.NotPresent, nil
	case AccessReviewed:
	default:
		return 0, &fault.UnexpectedStateError{Where: "review section", Observed: "review form " + access.String()}
	}

	if err := p.jsClick(ctx, OwnReviewMenu); err != nil {
		return 0, fmt.Errorf("open review menu: %w", err)
	}
	if err := p.jsClick(ctx, DeleteReview); err != nil {
		return 0, fmt.Errorf("delete review: %w", err)
	}
	// The confirmation dialog is accepted by the driver.
	if err := p.waitNotPresent(ctx, OwnReviewMenu, p.site.Timeouts.Wait); err != nil {
		return 0, fmt.Errorf("delete review: %w", err)
	}
	if err := p.waitVisible(ctx, RatingWidget, p.site.Timeouts.Wait); err != nil {
		return 0, fmt.Errorf("review form after delete: %w", err)
	}
	return review.Removed, nil
}

// SelectStars clicks the n-th star of the rating widget.
func (p *ProductPage) SelectStars(ctx context.Context, n int) error {
	if err := review.ValidateStars(n); err != nil {
		return err
	}
	return p.jsClick(ctx, RatingStar.With(n))
}

// EnterText replaces the review text.
func (p *ProductPage) EnterText(ctx context.Context, text string) error {
	return p.typeInto(ctx, ReviewText, text)
}

// Send clicks the submit button without waiting for the outcome.
func (p *ProductPage) Send(ctx context.Context) error {
	return p.jsClick(ctx, ReviewSend)
}

// Submit fills and sends a review and waits for the outcome. stars of zero
// leaves the rating unselected.
func (p *ProductPage) Submit(ctx context.Context, reviewer string, stars int, text string) error {
	if stars != 0 {
		if err := p.SelectStars(ctx, stars); err != nil {
			return err
		}
	}
	if err := p.EnterText(ctx, text); err != nil {
		return err
	}
	if err := p.Send(ctx); err != nil {
		return err
	}
	return p.AwaitSubmission(ctx, reviewer, text)
}

// AwaitSubmission waits for a sent review to be accepted or refused. The
// restriction message also follows a successful submission, so acceptance
// is decided by the review itself appearing. The message counts as a
// duplicate refusal only when it persists without the review.
func (p *ProductPage) AwaitSubmission(ctx context.Context, reviewer, text string) error {
	var (
		outcome  error
		dupSince time.Time
	)
	err := p.poll(ctx, "review submission outcome", p.site.Timeouts.Wait, func(ctx context.Context) (bool, error) {
		if msg, err := p.firstText(ctx, ReviewMissingRatingMessage); err != nil || msg != "" {
			outcome = review.ClassifyRejection(msg)
			return err == nil, err
		}

		_, found, err := p.FindReview(ctx, reviewer, text)
		if err != nil || found {
			return found, err
		}

		msg, err := p.firstText(ctx, ReviewDuplicateMessage)
		if err != nil || msg == "" {
			dupSince = time.Time{}
			return false, err
		}
		if dupSince.IsZero() {
			dupSince = time.Now()
		}
		if time.Since(dupSince) < p.site.Timeouts.Probe {
			return false, nil
		}
		outcome = review.ClassifyRejection(msg)
		return true, nil
	})
	if err != nil {
		return err
	}
	return outcome
}

// Reviews returns the product's review list as currently rendered.
func (p *ProductPage) Reviews(ctx context.Context) ([]review.Review, error) {
	html, err := p.d.OuterHTML(ctx, PageBody)
	if err != nil {
		return nil, fmt.Errorf("read review list: %w", err)
	}
	return ParseReviews(html)
}

// FindReview returns the review by reviewer whose text contains text. An
// empty reviewer matches any author.
func (p *ProductPage) FindReview(ctx context.Context, reviewer, text string) (review.Review, bool, error) {
	reviews, err := p.Reviews(ctx)
	if err != nil {
		return review.Review{}, false, err
	}
	for _, r := range reviews {
		if reviewer != "" && !r.By(reviewer) {
			continue
		}
		if strings.Contains(r.Text, text) {
			return r, true, nil
		}
	}
	return review.Review{}, false, nil
}

// RestrictionMessage returns the text of the already-reviewed notice.
func (p *ProductPage) RestrictionMessage(ctx context.Context) (string, error) {
	return p.text(ctx, ReviewDuplicateMessage)
}

// ReviewAbsent reports whether no review by reviewer containing text is
// listed and the form is offered again.
func (p *ProductPage) ReviewAbsent(ctx context.Context, reviewer, text string) (bool, error) {
	_, found, err := p.FindReview(ctx, reviewer, text)
	if err != nil || found {
		return false, err
	}
	access, err := p.Access(ctx)
	if err != nil {
		return false, err
	}
	return access == AccessForm, nil
}

func isTimeout(err error) bool {
	var wt *fault.WaitTimeoutError
	return errors.As(err, &wt)
}
