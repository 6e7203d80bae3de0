// Package agegate holds the store's age-of-majority rule and the
// classification of the messages the age prompt shows.
package agegate

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Layout is the birth date format the prompt accepts (DD-MM-YYYY).
const Layout = "02-01-2006"

const (
	// MajorityYears is the age of admission.
	MajorityYears = 18
	// DaysPerYear is the fixed year length used by the rule; leap days are ignored.
	DaysPerYear = 365
)

// Messages shown by the store after the prompt is confirmed.
const (
	MsgAdmitted      = "You are of age"
	MsgUnderage      = "You are underage"
	MsgMissingDate   = "Please enter your birth date"
	MsgInvalidFormat = "Invalid date"
)

var (
	// ErrEmptyBirthDate is returned for a blank birth date.
	ErrEmptyBirthDate = errors.New("birth date is empty")
	// ErrInvalidBirthDate is returned for text that is not a calendar date in Layout.
	ErrInvalidBirthDate = errors.New("birth date is not a valid DD-MM-YYYY date")
)

// Outcome classifies what the store did with a submitted birth date.
type Outcome int

const (
	// OutcomeUnknown means no known signal was observed.
	OutcomeUnknown Outcome = iota
	// Admitted means the store was opened.
	Admitted
	// Rejected means the user was turned away as underage.
	Rejected
	// ValidationError means the input itself was refused.
	ValidationError
	// NotPresent means no prompt was shown and the store was already open.
	NotPresent
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUnknown:
		return "unknown"
	case Admitted:
		return "admitted"
	case Rejected:
		return "rejected"
	case ValidationError:
		return "validation_error"
	case NotPresent:
		return "not_present"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// ParseOutcome is the inverse of Outcome.String.
func ParseOutcome(s string) (Outcome, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admitted":
		return Admitted, nil
	case "rejected":
		return Rejected, nil
	case "validation_error", "validation-error":
		return ValidationError, nil
	case "not_present", "not-present":
		return NotPresent, nil
	default:
		return OutcomeUnknown, fmt.Errorf("unknown age gate outcome %q", s)
	}
}

// IsAdmission reports whether the store is open after o.
func (o Outcome) IsAdmission() bool {
	return o == Admitted || o == NotPresent
}

// Result is an observed outcome with the message that produced it.
type Result struct {
	Outcome Outcome
	Reason  string
}

func (r Result) String() string {
	if r.Reason == "" {
		return r.Outcome.String()
	}
	return fmt.Sprintf("%s (%s)", r.Outcome, r.Reason)
}

// Classify maps a toast or inline message to an outcome by substring.
// The second return is false when the message matches nothing known.
func Classify(message string) (Outcome, bool) {
	m := strings.ToLower(message)
	switch {
	case strings.Contains(m, "underage"):
		return Rejected, true
	case strings.Contains(m, "enter your birth date"),
		strings.Contains(m, "invalid"),
		strings.Contains(m, "valid date"):
		return ValidationError, true
	case strings.Contains(m, "of age"):
		return Admitted, true
	default:
		return OutcomeUnknown, false
	}
}

// ParseBirthDate parses s strictly in Layout. Impossible calendar values such
// as day 32 or 30 February are errors.
func ParseBirthDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrEmptyBirthDate
	}
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrInvalidBirthDate, s, err)
	}
	return t, nil
}

// AgeInDays returns whole calendar days from birth to now, comparing dates only.
func AgeInDays(birth, now time.Time) int {
	b := time.Date(birth.Year(), birth.Month(), birth.Day(), 0, 0, 0, 0, time.UTC)
	n := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(n.Sub(b).Hours() / 24)
}

// Expect predicts the outcome for birthDate on the day of now.
// Someone exactly MajorityYears*DaysPerYear days old is admitted.
func Expect(birthDate string, now time.Time) Outcome {
	birth, err := ParseBirthDate(birthDate)
	if err != nil {
		return ValidationError
	}
	if AgeInDays(birth, now) >= MajorityYears*DaysPerYear {
		return Admitted
	}
	return Rejected
}

// BirthDateForAge returns the birth date, in Layout, of someone who is
// years*DaysPerYear + dayOffset days old on the day of now. A dayOffset of -1
// is one day short of the age.
func BirthDateForAge(now time.Time, years, dayOffset int) string {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -(years*DaysPerYear + dayOffset)).Format(Layout)
}
