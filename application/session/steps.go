package session

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"grocerycheck/core/event"
	"grocerycheck/core/state"
)

// Run executes a workflow in the Running state and returns the session to
// Ready afterwards. A panicking workflow is reported as an error.
func (s *Session) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := s.transitionTo(state.StateRunning); err != nil {
		return err
	}
	err := s.guard(ctx, "workflow", fn)
	if terr := s.transitionTo(state.StateReady); terr != nil && err == nil {
		err = terr
	}
	return err
}

func (s *Session) guard(ctx context.Context, what string, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("Execution panicked", "what", what, "panic", rec, "stack", string(debug.Stack()))
			err = fmt.Errorf("%s panicked: %v", what, rec)
		}
	}()
	return fn(s.Context(ctx))
}

// Step runs one named workflow step and publishes its outcome.
func (s *Session) Step(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	s.publishEvent(event.NewStepCompleted(s.runID, s.id, s.scenario, name, elapsed, err))
	if err != nil {
		s.logger.Warn("Step failed", "step", name, "duration", elapsed.Round(time.Millisecond), "error", err)
		return fmt.Errorf("%s: %w", name, err)
	}
	s.logger.Info("Step completed", "step", name, "duration", elapsed.Round(time.Millisecond))
	return nil
}
