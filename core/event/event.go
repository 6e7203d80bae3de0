// Package event defines the events published while a suite runs.
// Reporters (logs, metrics, persistence) consume them through the event bus.
package event

import (
	"time"

	"grocerycheck/core/state"
)

// Event is the base interface for all events.
type Event interface {
	// EventName returns the name of the event for logging/debugging
	EventName() string
}

// RunEvent is an event that belongs to a suite run.
type RunEvent interface {
	Event
	// RunID returns the run the event belongs to
	RunID() string
}

// SessionEvent is an event that originates from a specific session.
type SessionEvent interface {
	RunEvent
	// SessionID returns the source session ID
	SessionID() string
}

type baseRunEvent struct {
	runID string
}

func (e *baseRunEvent) RunID() string {
	return e.runID
}

// baseSessionEvent provides common implementation for session events.
type baseSessionEvent struct {
	baseRunEvent
	sessionID string
}

func (e *baseSessionEvent) SessionID() string {
	return e.sessionID
}

func newBaseSession(runID, sessionID string) baseSessionEvent {
	return baseSessionEvent{baseRunEvent: baseRunEvent{runID: runID}, sessionID: sessionID}
}

// RunStarted is published before the first scenario of a run starts.
type RunStarted struct {
	baseRunEvent
	Suite     string
	Scenarios int
	StartedAt time.Time
}

func NewRunStarted(runID, suite string, scenarios int, startedAt time.Time) *RunStarted {
	return &RunStarted{
		baseRunEvent: baseRunEvent{runID: runID},
		Suite:        suite,
		Scenarios:    scenarios,
		StartedAt:    startedAt,
	}
}

func (e *RunStarted) EventName() string {
	return "RunStarted"
}

// RunFinished is published after every scenario of a run has finished.
type RunFinished struct {
	baseRunEvent
	Suite    string
	Counts   map[Status]int
	Duration time.Duration
}

func NewRunFinished(runID, suite string, counts map[Status]int, d time.Duration) *RunFinished {
	return &RunFinished{
		baseRunEvent: baseRunEvent{runID: runID},
		Suite:        suite,
		Counts:       counts,
		Duration:     d,
	}
}

func (e *RunFinished) EventName() string {
	return "RunFinished"
}

// SessionStateChanged is published when a session's state changes.
type SessionStateChanged struct {
	baseSessionEvent
	OldState state.SessionState
	NewState state.SessionState
}

func NewSessionStateChanged(runID, sessionID string, oldState, newState state.SessionState) *SessionStateChanged {
	return &SessionStateChanged{
		baseSessionEvent: newBaseSession(runID, sessionID),
		OldState:         oldState,
		NewState:         newState,
	}
}

func (e *SessionStateChanged) EventName() string {
	return "SessionStateChanged"
}

// CleanupFailed is published when a registered cleanup returns an error.
type CleanupFailed struct {
	baseSessionEvent
	Name  string
	Error error
}

func NewCleanupFailed(runID, sessionID, name string, err error) *CleanupFailed {
	return &CleanupFailed{
		baseSessionEvent: newBaseSession(runID, sessionID),
		Name:             name,
		Error:            err,
	}
}

func (e *CleanupFailed) EventName() string {
	return "CleanupFailed"
}

// ArtifactSaved is published when a failure screenshot or DOM dump is written.
type ArtifactSaved struct {
	baseSessionEvent
	Path string
}

func NewArtifactSaved(runID, sessionID, path string) *ArtifactSaved {
	return &ArtifactSaved{
		baseSessionEvent: newBaseSession(runID, sessionID),
		Path:             path,
	}
}

func (e *ArtifactSaved) EventName() string {
	return "ArtifactSaved"
}
