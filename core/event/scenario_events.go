package event

import "time"

// Status is the verdict of a scenario.
type Status string

const (
	// StatusPassed: every check held.
	StatusPassed Status = "passed"
	// StatusFailed: the application under test misbehaved.
	StatusFailed Status = "failed"
	// StatusError: the harness could not complete the scenario.
	StatusError Status = "error"
	// StatusSkipped: the scenario was not run.
	StatusSkipped Status = "skipped"
)

// ScenarioStarted is published when a scenario starts in its session.
type ScenarioStarted struct {
	baseSessionEvent
	Scenario string
	Kind     string
}

func NewScenarioStarted(runID, sessionID, scenario, kind string) *ScenarioStarted {
	return &ScenarioStarted{
		baseSessionEvent: newBaseSession(runID, sessionID),
		Scenario:         scenario,
		Kind:             kind,
	}
}

func (e *ScenarioStarted) EventName() string {
	return "ScenarioStarted"
}

// StepCompleted is published after each named workflow step.
type StepCompleted struct {
	baseSessionEvent
	Scenario string
	Step     string
	Duration time.Duration
	Error    error
}

func NewStepCompleted(runID, sessionID, scenario, step string, d time.Duration, err error) *StepCompleted {
	return &StepCompleted{
		baseSessionEvent: newBaseSession(runID, sessionID),
		Scenario:         scenario,
		Step:             step,
		Duration:         d,
		Error:            err,
	}
}

func (e *StepCompleted) EventName() string {
	return "StepCompleted"
}

// ScenarioFinished is published when a scenario has finished and its session is closed.
type ScenarioFinished struct {
	baseSessionEvent
	Scenario     string
	Kind         string
	Status       Status
	Duration     time.Duration
	Error        error
	Observations map[string]string
}

func NewScenarioFinished(runID, sessionID, scenario, kind string, status Status, d time.Duration, err error, obs map[string]string) *ScenarioFinished {
	return &ScenarioFinished{
		baseSessionEvent: newBaseSession(runID, sessionID),
		Scenario:         scenario,
		Kind:             kind,
		Status:           status,
		Duration:         d,
		Error:            err,
		Observations:     obs,
	}
}

func (e *ScenarioFinished) EventName() string {
	return "ScenarioFinished"
}
