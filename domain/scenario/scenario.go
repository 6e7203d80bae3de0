// Package scenario defines verification scenarios and the suites that group them.
package scenario

import (
	"fmt"
	"strings"
	"time"

	"grocerycheck/domain/agegate"
	"grocerycheck/domain/review"
)

// Kind selects the workflow a scenario runs.
type Kind string

const (
	KindLogin               Kind = "login"
	KindLoginRejected       Kind = "login-rejected"
	KindAgeGate             Kind = "age-gate"
	KindShippingThreshold   Kind = "shipping-threshold"
	KindReviewLifecycle     Kind = "review-lifecycle"
	KindReviewMissingRating Kind = "review-missing-rating"
	KindRating              Kind = "rating"
)

// Kinds lists every supported kind.
func Kinds() []Kind {
	return []Kind{
		KindLogin, KindLoginRejected, KindAgeGate, KindShippingThreshold,
		KindReviewLifecycle, KindReviewMissingRating, KindRating,
	}
}

// Valid reports whether k is a supported kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds() {
		if k == known {
			return true
		}
	}
	return false
}

// NeedsLogin reports whether the scenario starts from a logged-in session.
func (k Kind) NeedsLogin() bool {
	return k != KindLogin && k != KindLoginRejected
}

// AgeSpec describes a birth date relative to the day the scenario runs.
type AgeSpec struct {
	Years     int
	DayOffset int
}

// Scenario is one named verification case.
type Scenario struct {
	// Name is the unique identifier within a suite
	Name string

	// Description explains what the scenario checks
	Description string

	// Kind selects the workflow
	Kind Kind

	// Tags allow selecting groups of scenarios
	Tags []string

	// Timeout bounds the whole scenario; zero uses the configured default
	Timeout time.Duration

	// BirthDate is submitted verbatim to the age prompt when set (may be empty or malformed)
	BirthDate *string

	// Age builds the birth date from the run day when BirthDate is nil
	Age *AgeSpec

	// Expect overrides the predicted age gate outcome
	Expect agegate.Outcome

	// Password overrides the configured password (login-rejected)
	Password string

	// Product overrides the configured product name
	Product string

	// Stars is the rating to submit; zero on a rating scenario means every value 1..5
	Stars int

	// Comment is the review text; a unique marker is appended at run time
	Comment string
}

// ResolveBirthDate returns the birth date to submit on the day of now.
func (s *Scenario) ResolveBirthDate(now time.Time) string {
	if s.BirthDate != nil {
		return *s.BirthDate
	}
	if s.Age != nil {
		return agegate.BirthDateForAge(now, s.Age.Years, s.Age.DayOffset)
	}
	return ""
}

// ExpectedOutcome returns the outcome the age gate should show for birthDate.
func (s *Scenario) ExpectedOutcome(birthDate string, now time.Time) agegate.Outcome {
	if s.Expect != agegate.OutcomeUnknown {
		return s.Expect
	}
	return agegate.Expect(birthDate, now)
}

// StarValues returns the ratings a rating scenario submits.
func (s *Scenario) StarValues() []int {
	if s.Stars != 0 {
		return []int{s.Stars}
	}
	values := make([]int, 0, review.MaxStars)
	for n := review.MinStars; n <= review.MaxStars; n++ {
		values = append(values, n)
	}
	return values
}

// HasTag reports whether the scenario carries tag.
func (s *Scenario) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Validate checks the fields the scenario's kind depends on.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if !s.Kind.Valid() {
		return fmt.Errorf("scenario %s: unknown kind %q", s.Name, s.Kind)
	}
	if s.Timeout < 0 {
		return fmt.Errorf("scenario %s: negative timeout", s.Name)
	}

	switch s.Kind {
	case KindAgeGate:
		if s.BirthDate == nil && s.Age == nil {
			return fmt.Errorf("scenario %s: age-gate needs birthDate or age", s.Name)
		}
		if s.BirthDate != nil && s.Age != nil {
			return fmt.Errorf("scenario %s: birthDate and age are exclusive", s.Name)
		}
	case KindLoginRejected:
		if s.Password == "" {
			return fmt.Errorf("scenario %s: login-rejected needs a password", s.Name)
		}
	case KindReviewLifecycle:
		if err := review.ValidateStars(s.Stars); err != nil {
			return fmt.Errorf("scenario %s: %w", s.Name, err)
		}
	case KindRating:
		if s.Stars != 0 {
			if err := review.ValidateStars(s.Stars); err != nil {
				return fmt.Errorf("scenario %s: %w", s.Name, err)
			}
		}
	}
	return nil
}

// Suite is a named, ordered list of scenarios.
type Suite struct {
	Name        string
	Description string
	Scenarios   []*Scenario
}

// Validate checks every scenario and that names are unique.
func (s *Suite) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("suite name is required")
	}
	seen := make(map[string]bool, len(s.Scenarios))
	for _, sc := range s.Scenarios {
		if err := sc.Validate(); err != nil {
			return fmt.Errorf("suite %s: %w", s.Name, err)
		}
		if seen[sc.Name] {
			return fmt.Errorf("suite %s: duplicate scenario %q", s.Name, sc.Name)
		}
		seen[sc.Name] = true
	}
	return nil
}

// Select returns the scenarios whose name or tag matches one of only,
// preserving suite order. An empty filter selects everything; a filter that
// matches nothing is an error.
func (s *Suite) Select(only []string) ([]*Scenario, error) {
	if len(only) == 0 {
		return s.Scenarios, nil
	}
	for _, f := range only {
		if !s.matches(f) {
			return nil, fmt.Errorf("no scenario in suite %s matches %q", s.Name, f)
		}
	}

	var out []*Scenario
	for _, sc := range s.Scenarios {
		for _, f := range only {
			if sc.Name == f || sc.HasTag(f) {
				out = append(out, sc)
				break
			}
		}
	}
	return out, nil
}

func (s *Suite) matches(filter string) bool {
	for _, sc := range s.Scenarios {
		if sc.Name == filter || sc.HasTag(filter) {
			return true
		}
	}
	return false
}
