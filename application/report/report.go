// Package report turns run events into log lines and metrics.
package report

import (
	"log/slog"
	"time"

	"grocerycheck/application/workflow"
	"grocerycheck/core/event"
	"grocerycheck/core/eventbus"
)

// Metrics receives step and cleanup counts. infrastructure/metrics.Recorder
// implements it. The bus drops events when its buffer is full, so these
// counts are best effort; scenario and run totals are recorded from the
// final report instead.
type Metrics interface {
	StepCompleted(d time.Duration, err error)
	CleanupFailed()
}

// Reporter is an event bus subscriber. Metrics are optional.
type Reporter struct {
	logger  *slog.Logger
	metrics Metrics
}

// New creates a reporter.
func New(logger *slog.Logger, metrics Metrics) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{logger: logger, metrics: metrics}
}

// Attach subscribes the reporter to every event on bus.
func (r *Reporter) Attach(bus eventbus.EventBus) string {
	return bus.Subscribe(r.Handle)
}

// Handle implements eventbus.EventHandler.
func (r *Reporter) Handle(e event.Event) {
	switch evt := e.(type) {
	case *event.RunStarted:
		r.logger.Info("Suite started", "run_id", evt.RunID(), "suite", evt.Suite, "scenarios", evt.Scenarios)

	case *event.ScenarioStarted:
		r.logger.Debug("Scenario started", "run_id", evt.RunID(), "session_id", evt.SessionID(),
			"scenario", evt.Scenario, "kind", evt.Kind)

	case *event.StepCompleted:
		if evt.Error != nil {
			r.logger.Warn("Step failed", "session_id", evt.SessionID(), "scenario", evt.Scenario,
				"step", evt.Step, "duration", evt.Duration, "error", evt.Error)
		} else {
			r.logger.Debug("Step completed", "session_id", evt.SessionID(), "scenario", evt.Scenario,
				"step", evt.Step, "duration", evt.Duration)
		}
		if r.metrics != nil {
			r.metrics.StepCompleted(evt.Duration, evt.Error)
		}

	case *event.SessionStateChanged:
		r.logger.Debug("Session state changed", "session_id", evt.SessionID(),
			"from", evt.OldState, "to", evt.NewState)

	case *event.CleanupFailed:
		r.logger.Warn("Cleanup failed", "session_id", evt.SessionID(), "cleanup", evt.Name, "error", evt.Error)
		if r.metrics != nil {
			r.metrics.CleanupFailed()
		}

	case *event.ArtifactSaved:
		r.logger.Info("Failure artifact saved", "session_id", evt.SessionID(), "path", evt.Path)

	case *event.ScenarioFinished:
		attrs := []any{
			"run_id", evt.RunID(), "scenario", evt.Scenario, "status", evt.Status,
			"duration", evt.Duration.Round(time.Millisecond),
		}
		if len(evt.Observations) > 0 {
			attrs = append(attrs, "observed", workflow.ObservationSummary(evt.Observations))
		}
		switch evt.Status {
		case event.StatusPassed, event.StatusSkipped:
			r.logger.Info("Scenario "+string(evt.Status), attrs...)
		default:
			r.logger.Error("Scenario "+string(evt.Status), append(attrs, "error", evt.Error)...)
		}

	case *event.RunFinished:
		r.logger.Info("Suite finished", "run_id", evt.RunID(), "suite", evt.Suite,
			"duration", evt.Duration.Round(time.Millisecond),
			"passed", evt.Counts[event.StatusPassed],
			"failed", evt.Counts[event.StatusFailed],
			"error", evt.Counts[event.StatusError],
			"skipped", evt.Counts[event.StatusSkipped])
	}
}
