package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"grocerycheck/application/pages"
	"grocerycheck/core/fault"
	"grocerycheck/core/state"
	"grocerycheck/domain/agegate"
	"grocerycheck/domain/review"
)

// reviewTracker follows the user's review on one product through the
// review state machine; an event the page should not have produced fails.
type reviewTracker struct {
	w     *Workflow
	state state.ReviewState
}

func (t *reviewTracker) apply(ev state.ReviewEvent) error {
	next, err := t.state.Apply(ev)
	if err != nil {
		return &fault.UnexpectedStateError{Where: "review", Observed: err.Error()}
	}
	t.state = next
	t.w.observe("review_state", next)
	return nil
}

// ReviewLifecycle removes any earlier review, submits one, checks it is
// listed, checks a second submission is refused with the duplicate message,
// deletes it and checks it is gone.
func (w *Workflow) ReviewLifecycle(ctx context.Context, product string, stars int, comment string) error {
	if err := review.ValidateStars(stars); err != nil {
		return err
	}
	if err := w.EnsurePurchased(ctx, product); err != nil {
		return err
	}
	w.deferReviewRemoval(product)

	t := &reviewTracker{w: w}
	if err := w.removeExisting(ctx, t); err != nil {
		return err
	}

	text := review.UniqueComment(comment)
	if err := w.h.Step(ctx, fmt.Sprintf("submit %d-star review", stars), func(ctx context.Context) error {
		if err := w.product.Submit(ctx, w.env.Reviewer, stars, text); err != nil {
			return err
		}
		return t.apply(state.ReviewSubmitAccepted)
	}); err != nil {
		return err
	}

	if err := w.h.Step(ctx, "verify review listed", func(ctx context.Context) error {
		return w.verifyListed(ctx, stars, text)
	}); err != nil {
		return err
	}

	if err := w.h.Step(ctx, "verify duplicate rejected", func(ctx context.Context) error {
		if err := w.VerifyDuplicateRejected(ctx, stars, comment); err != nil {
			return err
		}
		return t.apply(state.ReviewSubmitDuplicate)
	}); err != nil {
		return err
	}

	if err := w.h.Step(ctx, "delete review", func(ctx context.Context) error {
		outcome, err := w.product.RemoveExistingReview(ctx)
		if err != nil {
			return err
		}
		if outcome != review.Removed {
			return fault.Assertf("delete own review", review.Removed, outcome)
		}
		return t.apply(state.ReviewDeleted)
	}); err != nil {
		return err
	}

	return w.h.Step(ctx, "verify review absent", func(ctx context.Context) error {
		if err := w.product.Reload(ctx); err != nil {
			return err
		}
		absent, err := w.product.ReviewAbsent(ctx, w.env.Reviewer, text)
		if err != nil {
			return err
		}
		if !absent {
			return fault.Assertf("review after delete", "absent", "still listed or form locked")
		}
		return t.apply(state.ReviewObservedAbsent)
	})
}

// VerifyDuplicateRejected reloads the product page and checks that a second
// review is refused with the exact duplicate message. When the shop hides
// the form once a review exists, the notice shown in its place is checked.
func (w *Workflow) VerifyDuplicateRejected(ctx context.Context, stars int, comment string) error {
	if err := w.product.Reload(ctx); err != nil {
		return err
	}
	access, err := w.product.Access(ctx)
	if err != nil {
		return err
	}

	form, err := w.product.FormOffered(ctx)
	if err != nil {
		return err
	}

	var message string
	switch {
	case form:
		err := w.product.Submit(ctx, w.env.Reviewer, stars, review.UniqueComment(comment))
		if err == nil {
			return fault.Assertf("second review", "rejected", "accepted")
		}
		var rej *fault.RejectionError
		if !errors.As(err, &rej) {
			return err
		}
		message = rej.Message
	case access == pages.AccessReviewed:
		if message, err = w.product.RestrictionMessage(ctx); err != nil {
			return err
		}
	default:
		return &fault.UnexpectedStateError{Where: "product page", Observed: "review section locked after reviewing"}
	}

	w.observe("duplicate_message", message)
	if strings.TrimSpace(message) != review.MsgDuplicate {
		return fault.Assertf("duplicate review message", review.MsgDuplicate, message)
	}
	return nil
}

// MissingRating submits a review without choosing stars and checks the
// shop's rating validation message, distinct from the duplicate refusal.
func (w *Workflow) MissingRating(ctx context.Context, product, comment string) error {
	if err := w.EnsurePurchased(ctx, product); err != nil {
		return err
	}
	w.deferReviewRemoval(product)

	t := &reviewTracker{w: w}
	if err := w.removeExisting(ctx, t); err != nil {
		return err
	}

	text := review.UniqueComment(comment)
	return w.h.Step(ctx, "submit review without rating", func(ctx context.Context) error {
		err := w.product.Submit(ctx, w.env.Reviewer, 0, text)
		if err == nil {
			return fault.Assertf("review without rating", review.MsgMissingRating, "accepted")
		}
		var rej *fault.RejectionError
		if !errors.As(err, &rej) {
			return err
		}
		w.observe("validation_message", rej.Message)
		if !errors.Is(err, fault.ErrValidationRejected) || rej.Message != review.MsgMissingRating {
			return fault.Assertf("review without rating", review.MsgMissingRating, rej.Message)
		}
		if err := t.apply(state.ReviewSubmitInvalid); err != nil {
			return err
		}

		_, listed, err := w.product.FindReview(ctx, w.env.Reviewer, text)
		if err != nil {
			return err
		}
		if listed {
			return fault.Assertf("review without rating", "not listed", "listed")
		}
		return nil
	})
}

// Rating submits one review per stars value, checking each is accepted and
// then deleting it.
func (w *Workflow) Rating(ctx context.Context, product string, stars []int, comment string) error {
	if err := w.EnsurePurchased(ctx, product); err != nil {
		return err
	}
	w.deferReviewRemoval(product)

	t := &reviewTracker{w: w}
	for _, n := range stars {
		if err := review.ValidateStars(n); err != nil {
			return err
		}
		if err := w.removeExisting(ctx, t); err != nil {
			return err
		}

		text := review.UniqueComment(comment)
		if err := w.h.Step(ctx, fmt.Sprintf("rate %d stars", n), func(ctx context.Context) error {
			if err := w.product.Submit(ctx, w.env.Reviewer, n, text); err != nil {
				return err
			}
			if err := t.apply(state.ReviewSubmitAccepted); err != nil {
				return err
			}
			if err := w.verifyListed(ctx, n, text); err != nil {
				return err
			}
			return w.VerifyDuplicateRejected(ctx, n, comment)
		}); err != nil {
			return err
		}
		w.observe(fmt.Sprintf("rated_%d", n), "ok")
	}
	return w.removeExisting(ctx, t)
}

// removeExisting deletes an earlier review by the user and records the
// observation; it never treats absence as failure.
func (w *Workflow) removeExisting(ctx context.Context, t *reviewTracker) error {
	return w.h.Step(ctx, "remove existing review", func(ctx context.Context) error {
		outcome, err := w.product.RemoveExistingReview(ctx)
		if err != nil {
			return err
		}
		w.observe("prior_review", outcome)
		return t.apply(state.ReviewObservedAbsent)
	})
}

func (w *Workflow) verifyListed(ctx context.Context, stars int, text string) error {
	got, found, err := w.product.FindReview(ctx, w.env.Reviewer, text)
	if err != nil {
		return err
	}
	if !found {
		reviews, _ := w.product.Reviews(ctx)
		return fault.Assertf("review listed", fmt.Sprintf("%s: %s", w.env.Reviewer, text), summarize(reviews))
	}
	if got.Stars != 0 && got.Stars != stars {
		return fault.Assertf("review stars", stars, got.Stars)
	}
	return nil
}

// deferReviewRemoval registers a cleanup that reopens product and deletes
// the user's review, so a failed flow does not leave one behind.
func (w *Workflow) deferReviewRemoval(product string) {
	w.h.Defer("delete review on "+product, func(ctx context.Context) error {
		if err := w.shop.Open(ctx); err != nil {
			return err
		}
		if _, err := w.shop.PassAgeGate(ctx, agegate.BirthDateForAge(w.env.Now(), adultYears, 0)); err != nil {
			return err
		}
		if err := w.shop.OpenProduct(ctx, product); err != nil {
			return err
		}
		_, err := w.product.RemoveExistingReview(ctx)
		return err
	})
}

func summarize(reviews []review.Review) string {
	if len(reviews) == 0 {
		return "no reviews"
	}
	parts := make([]string, len(reviews))
	for i, r := range reviews {
		parts[i] = fmt.Sprintf("%s (%d): %s", r.Author, r.Stars, r.Text)
	}
	return strings.Join(parts, "; ")
}
