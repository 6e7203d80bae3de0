package state

import "fmt"

// ReviewState tracks whether the logged-in user has a review on the product under test.
type ReviewState int

const (
	// ReviewUnknown is the state before the product page has been inspected.
	ReviewUnknown ReviewState = iota
	// ReviewAbsent means the user has no review on the product.
	ReviewAbsent
	// ReviewPresent means the user's review is on the product.
	ReviewPresent
)

func (s ReviewState) String() string {
	switch s {
	case ReviewUnknown:
		return "Unknown"
	case ReviewAbsent:
		return "NoReview"
	case ReviewPresent:
		return "Reviewed"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// ReviewEvent is an observed outcome on the review panel.
type ReviewEvent int

const (
	// ReviewObservedAbsent: the panel shows no review by the user.
	ReviewObservedAbsent ReviewEvent = iota
	// ReviewObservedPresent: the panel shows a review by the user.
	ReviewObservedPresent
	// ReviewSubmitAccepted: a submission was accepted.
	ReviewSubmitAccepted
	// ReviewSubmitDuplicate: a submission was refused because a review exists.
	ReviewSubmitDuplicate
	// ReviewSubmitInvalid: a submission failed input validation.
	ReviewSubmitInvalid
	// ReviewDeleted: the user's review was deleted.
	ReviewDeleted
)

func (e ReviewEvent) String() string {
	switch e {
	case ReviewObservedAbsent:
		return "observed-absent"
	case ReviewObservedPresent:
		return "observed-present"
	case ReviewSubmitAccepted:
		return "submit-accepted"
	case ReviewSubmitDuplicate:
		return "submit-duplicate"
	case ReviewSubmitInvalid:
		return "submit-invalid"
	case ReviewDeleted:
		return "deleted"
	default:
		return fmt.Sprintf("ReviewEvent(%d)", e)
	}
}

// reviewTransitions lists, per state, the resulting state of each legal event.
// Observations are legal everywhere; they resynchronise with the page.
var reviewTransitions = map[ReviewState]map[ReviewEvent]ReviewState{
	ReviewUnknown: {
		ReviewSubmitInvalid: ReviewUnknown,
	},
	ReviewAbsent: {
		ReviewSubmitAccepted: ReviewPresent,
		ReviewSubmitInvalid:  ReviewAbsent,
	},
	ReviewPresent: {
		ReviewSubmitDuplicate: ReviewPresent,
		ReviewSubmitInvalid:   ReviewPresent,
		ReviewDeleted:         ReviewAbsent,
	},
}

// Apply returns the state after ev. An event the current state does not allow,
// such as a second accepted submission, is a TransitionError.
func (s ReviewState) Apply(ev ReviewEvent) (ReviewState, error) {
	switch ev {
	case ReviewObservedAbsent:
		return ReviewAbsent, nil
	case ReviewObservedPresent:
		return ReviewPresent, nil
	}
	if next, ok := reviewTransitions[s][ev]; ok {
		return next, nil
	}
	return s, NewTransitionError(s, ev, "event not allowed in this state")
}
