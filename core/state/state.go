// Package state defines the harness state machines.
package state

import "fmt"

// SessionState represents the state of a harness session.
type SessionState int

const (
	// StateIdle is the initial state before the browser starts.
	StateIdle SessionState = iota
	// StateStarting indicates the browser is being launched.
	StateStarting
	// StateLoggingIn indicates the login form is being submitted.
	StateLoggingIn
	// StateReady indicates the session can run a workflow.
	StateReady
	// StateRunning indicates a workflow is executing.
	StateRunning
	// StateCleaningUp indicates registered cleanups are running.
	StateCleaningUp
	// StateStopped indicates the browser has been released.
	StateStopped
)

// String returns the string representation of the state.
func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateStarting:
		return "Starting"
	case StateLoggingIn:
		return "LoggingIn"
	case StateReady:
		return "Ready"
	case StateRunning:
		return "Running"
	case StateCleaningUp:
		return "CleaningUp"
	case StateStopped:
		return "Stopped"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// validTransitions defines the allowed state transitions.
// Key is the current state, value is a list of valid target states.
// Starting may go straight to Ready for anonymous sessions (login scenarios).
var validTransitions = map[SessionState][]SessionState{
	StateIdle:       {StateStarting, StateStopped},
	StateStarting:   {StateLoggingIn, StateReady, StateCleaningUp},
	StateLoggingIn:  {StateReady, StateCleaningUp},
	StateReady:      {StateRunning, StateLoggingIn, StateCleaningUp},
	StateRunning:    {StateReady, StateCleaningUp},
	StateCleaningUp: {StateStopped},
	StateStopped:    {}, // Terminal state, no transitions allowed
}

// CanTransitionTo checks if transitioning from the current state to the target state is valid.
func (s SessionState) CanTransitionTo(target SessionState) bool {
	allowed, ok := validTransitions[s]
	if !ok {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// ValidTransitions returns the list of valid target states from the current state.
func (s SessionState) ValidTransitions() []SessionState {
	return validTransitions[s]
}

// IsTerminal returns true if the state is a terminal state (no further transitions).
func (s SessionState) IsTerminal() bool {
	return s == StateStopped
}

// IsActive returns true if the session holds a browser (not idle or stopped).
func (s SessionState) IsActive() bool {
	return s != StateIdle && s != StateStopped
}

// CanRunWorkflow returns true if a workflow may start in this state.
func (s SessionState) CanRunWorkflow() bool {
	return s == StateReady
}

// TransitionError represents an invalid state transition attempt.
type TransitionError struct {
	From   fmt.Stringer
	To     fmt.Stringer
	Reason string
}

func (e *TransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid state transition from %s to %s: %s", e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}

// NewTransitionError creates a new TransitionError.
func NewTransitionError(from, to fmt.Stringer, reason string) *TransitionError {
	return &TransitionError{From: from, To: to, Reason: reason}
}
