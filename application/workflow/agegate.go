package workflow

import (
	"context"
	"fmt"

	"grocerycheck/core/fault"
	"grocerycheck/domain/agegate"
)

// adultYears is the age EnsureAdmitted claims.
const adultYears = 30

// AgeGate opens the store, answers the age prompt with birthDate and checks
// the shop's verdict against expect. A store that shows no prompt counts as
// already admitted only when this session was admitted earlier, and only for
// an admission expectation; otherwise the date was never checked and that is
// an unexpected state.
func (w *Workflow) AgeGate(ctx context.Context, birthDate string, expect agegate.Outcome) (agegate.Result, error) {
	var res agegate.Result
	if err := w.h.Step(ctx, "open store", w.shop.Open); err != nil {
		return res, err
	}
	err := w.h.Step(ctx, fmt.Sprintf("answer age prompt with %q", birthDate), func(ctx context.Context) error {
		var err error
		res, err = w.shop.PassAgeGate(ctx, birthDate)
		if err != nil {
			return err
		}
		w.observe("birth_date", birthDate)
		w.observe("age_gate", res)

		if res.Outcome == agegate.NotPresent {
			if expect.IsAdmission() && w.admitted.Load() {
				return nil
			}
			return &fault.UnexpectedStateError{
				Where:    "age gate",
				Observed: fmt.Sprintf("no age prompt shown, %q was never submitted so %s cannot be verified", birthDate, expect),
			}
		}
		if res.Outcome == agegate.Admitted {
			w.admitted.Store(true)
		}
		if res.Outcome != expect {
			return fault.Assertf(fmt.Sprintf("age gate outcome for %q", birthDate), expect, res)
		}
		return nil
	})
	return res, err
}

// EnsureAdmitted opens the store and passes the age prompt with an adult
// birth date if it is shown.
func (w *Workflow) EnsureAdmitted(ctx context.Context) error {
	return w.h.Step(ctx, "pass age gate", func(ctx context.Context) error {
		if err := w.shop.Open(ctx); err != nil {
			return err
		}
		res, err := w.shop.PassAgeGate(ctx, agegate.BirthDateForAge(w.env.Now(), adultYears, 0))
		if err != nil {
			return err
		}
		if !res.Outcome.IsAdmission() {
			return fault.Assertf("age gate for an adult", agegate.Admitted, res)
		}
		if res.Outcome == agegate.Admitted {
			w.admitted.Store(true)
		}
		return nil
	})
}
