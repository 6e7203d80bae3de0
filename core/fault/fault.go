// Package fault defines the error taxonomy shared by pages and workflows.
package fault

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrElementNotFound marks a bounded wait that expired before its locator matched.
	ErrElementNotFound = errors.New("element not found")
	// ErrValidationRejected marks a server-reported input error.
	ErrValidationRejected = errors.New("validation rejected")
	// ErrDuplicateRejected marks a business-rule rejection of a repeated submission.
	ErrDuplicateRejected = errors.New("duplicate rejected")
	// ErrUnexpectedState marks a DOM state matching none of the expected outcomes.
	ErrUnexpectedState = errors.New("unexpected state")
	// ErrAssertion marks an observed value differing from the expected one.
	ErrAssertion = errors.New("assertion failed")
)

// maxStateLen caps the DOM text carried in errors.
const maxStateLen = 600

// WaitTimeoutError reports a bounded wait that expired.
type WaitTimeoutError struct {
	Locator   string
	Elapsed   time.Duration
	LastState string
	Err       error
}

func (e *WaitTimeoutError) Error() string {
	msg := fmt.Sprintf("timed out after %s waiting for %s", e.Elapsed.Round(time.Millisecond), e.Locator)
	if e.LastState != "" {
		msg += "; last visible text: " + Truncate(e.LastState)
	}
	return msg
}

func (e *WaitTimeoutError) Unwrap() error { return e.Err }

func (e *WaitTimeoutError) Is(target error) bool { return target == ErrElementNotFound }

// AssertionError reports the literal expected and observed values of a check.
type AssertionError struct {
	Check    string
	Expected string
	Observed string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: expected %q, observed %q", e.Check, e.Expected, e.Observed)
}

func (e *AssertionError) Is(target error) bool { return target == ErrAssertion }

// Assertf returns an AssertionError for check.
func Assertf(check string, expected, observed any) *AssertionError {
	return &AssertionError{
		Check:    check,
		Expected: fmt.Sprint(expected),
		Observed: fmt.Sprint(observed),
	}
}

// UnexpectedStateError reports a page that shows none of the outcomes a step knows about.
type UnexpectedStateError struct {
	Where    string
	Observed string
}

func (e *UnexpectedStateError) Error() string {
	if e.Observed == "" {
		return fmt.Sprintf("unexpected state at %s", e.Where)
	}
	return fmt.Sprintf("unexpected state at %s: %s", e.Where, Truncate(e.Observed))
}

func (e *UnexpectedStateError) Is(target error) bool { return target == ErrUnexpectedState }

// RejectionError carries the message the application showed for a rejected submission.
type RejectionError struct {
	Kind    error
	Message string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

func (e *RejectionError) Unwrap() error { return e.Kind }

// Rejected returns a RejectionError of the given kind.
func Rejected(kind error, message string) *RejectionError {
	return &RejectionError{Kind: kind, Message: message}
}

// IsVerificationFailure reports whether err describes the application under test
// misbehaving, as opposed to the harness itself failing.
func IsVerificationFailure(err error) bool {
	if err == nil {
		return false
	}
	for _, target := range []error{ErrAssertion, ErrElementNotFound, ErrUnexpectedState, ErrValidationRejected, ErrDuplicateRejected} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Truncate collapses whitespace in s and caps it for error messages.
func Truncate(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= maxStateLen {
		return s
	}
	cut := maxStateLen
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
