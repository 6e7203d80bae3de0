// Package review holds the product review model and the shop's review messages.
package review

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"grocerycheck/core/fault"
)

// Messages the product page shows for refused submissions.
const (
	MsgDuplicate     = "You have already reviewed this product"
	MsgMissingRating = "Invalid input for the field 'Rating'"
)

const (
	MinStars = 1
	MaxStars = 5
)

// Review is one entry of a product's review list.
type Review struct {
	Author string
	Stars  int
	Text   string
}

// By reports whether the review was written by author.
func (r Review) By(author string) bool {
	return strings.EqualFold(strings.TrimSpace(r.Author), strings.TrimSpace(author))
}

// ValidateStars checks that n is a selectable rating.
func ValidateStars(n int) error {
	if n < MinStars || n > MaxStars {
		return fmt.Errorf("stars must be between %d and %d, got %d", MinStars, MaxStars, n)
	}
	return nil
}

// FindByAuthor returns the first review by author.
func FindByAuthor(reviews []Review, author string) (Review, bool) {
	for _, r := range reviews {
		if r.By(author) {
			return r, true
		}
	}
	return Review{}, false
}

// RemoveOutcome is the result of removing the user's review.
type RemoveOutcome int

const (
	// Removed means a review existed and was deleted.
	Removed RemoveOutcome = iota + 1
	// NotPresent means there was nothing to delete.
	NotPresent
)

func (o RemoveOutcome) String() string {
	switch o {
	case Removed:
		return "removed"
	case NotPresent:
		return "not_present"
	default:
		return fmt.Sprintf("RemoveOutcome(%d)", int(o))
	}
}

// ClassifyRejection maps a message shown after submitting to a rejection kind.
// It returns nil when the message is not a known rejection.
func ClassifyRejection(message string) error {
	switch {
	case strings.Contains(message, MsgDuplicate):
		return fault.Rejected(fault.ErrDuplicateRejected, MsgDuplicate)
	case strings.Contains(message, MsgMissingRating):
		return fault.Rejected(fault.ErrValidationRejected, MsgMissingRating)
	case strings.Contains(strings.ToLower(message), "invalid input"):
		return fault.Rejected(fault.ErrValidationRejected, strings.TrimSpace(message))
	default:
		return nil
	}
}

// UniqueComment appends a short random marker to text so the review can be
// told apart from earlier runs.
func UniqueComment(text string) string {
	marker := strings.SplitN(uuid.NewString(), "-", 2)[0]
	if text == "" {
		return "grocerycheck " + marker
	}
	return fmt.Sprintf("%s [%s]", text, marker)
}
