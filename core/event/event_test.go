package event

import (
	"errors"
	"testing"
	"time"

	"grocerycheck/core/state"
)

func TestEvent_Names(t *testing.T) {
	tests := []struct {
		event    Event
		expected string
	}{
		{NewRunStarted("r1", "grocerymate", 3, time.Now()), "RunStarted"},
		{NewRunFinished("r1", "grocerymate", nil, time.Second), "RunFinished"},
		{NewSessionStateChanged("r1", "s1", state.StateIdle, state.StateStarting), "SessionStateChanged"},
		{NewCleanupFailed("r1", "s1", "empty cart", errors.New("test")), "CleanupFailed"},
		{NewArtifactSaved("r1", "s1", "/tmp/a.png"), "ArtifactSaved"},
		{NewScenarioStarted("r1", "s1", "age-exactly-18", "age-gate"), "ScenarioStarted"},
		{NewStepCompleted("r1", "s1", "age-exactly-18", "submit birth date", time.Second, nil), "StepCompleted"},
		{NewScenarioFinished("r1", "s1", "age-exactly-18", "age-gate", StatusPassed, time.Second, nil, nil), "ScenarioFinished"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.event.EventName(); got != tt.expected {
				t.Errorf("EventName() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSessionEvent_IDs(t *testing.T) {
	tests := []struct {
		name  string
		event SessionEvent
	}{
		{"SessionStateChanged", NewSessionStateChanged("run-1", "session-1", state.StateReady, state.StateRunning)},
		{"CleanupFailed", NewCleanupFailed("run-1", "session-1", "delete review", nil)},
		{"ArtifactSaved", NewArtifactSaved("run-1", "session-1", "x.png")},
		{"ScenarioStarted", NewScenarioStarted("run-1", "session-1", "s", "k")},
		{"StepCompleted", NewStepCompleted("run-1", "session-1", "s", "step", 0, nil)},
		{"ScenarioFinished", NewScenarioFinished("run-1", "session-1", "s", "k", StatusFailed, 0, nil, nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.RunID(); got != "run-1" {
				t.Errorf("RunID() = %v, want run-1", got)
			}
			if got := tt.event.SessionID(); got != "session-1" {
				t.Errorf("SessionID() = %v, want session-1", got)
			}
		})
	}
}

func TestRunEvent_RunID(t *testing.T) {
	var e RunEvent = NewRunStarted("run-9", "grocerymate", 1, time.Time{})
	if got := e.RunID(); got != "run-9" {
		t.Errorf("RunID() = %v, want run-9", got)
	}
	if _, ok := e.(SessionEvent); ok {
		t.Error("RunStarted should not be a SessionEvent")
	}
}
