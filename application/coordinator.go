// Package application provides the application layer for running scenario suites.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"grocerycheck/application/session"
	"grocerycheck/application/workflow"
	"grocerycheck/core/event"
	"grocerycheck/core/eventbus"
	"grocerycheck/core/fault"
	"grocerycheck/domain/run"
	"grocerycheck/domain/scenario"
	"grocerycheck/infrastructure/browser"
)

// DefaultScenarioTimeout bounds a scenario that sets no timeout of its own.
const DefaultScenarioTimeout = 2 * time.Minute

// DriverFactory creates browser drivers.
type DriverFactory func() browser.Driver

// Coordinator runs scenarios, each in a session of its own.
type Coordinator struct {
	// Dependencies
	eventBus      eventbus.EventBus
	driverFactory DriverFactory
	env           workflow.Env
	logger        *slog.Logger

	// Settings
	parallel        int
	scenarioTimeout time.Duration
	cleanupTimeout  time.Duration
	artifactsDir    string
}

// CoordinatorConfig holds configuration for the Coordinator.
type CoordinatorConfig struct {
	EventBus      eventbus.EventBus
	DriverFactory DriverFactory
	// Env is the test data every scenario's workflows run with
	Env    workflow.Env
	Logger *slog.Logger

	// Parallel is the number of sessions allowed at once
	Parallel        int
	ScenarioTimeout time.Duration
	CleanupTimeout  time.Duration
	// ArtifactsDir receives failure screenshots; empty disables them
	ArtifactsDir string
}

// NewCoordinator creates a new coordinator.
func NewCoordinator(cfg *CoordinatorConfig) *Coordinator {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Parallel < 1 {
		cfg.Parallel = 1
	}
	if cfg.ScenarioTimeout <= 0 {
		cfg.ScenarioTimeout = DefaultScenarioTimeout
	}
	if cfg.Env.Now == nil {
		cfg.Env.Now = time.Now
	}

	return &Coordinator{
		eventBus:        cfg.EventBus,
		driverFactory:   cfg.DriverFactory,
		env:             cfg.Env,
		logger:          cfg.Logger,
		parallel:        cfg.Parallel,
		scenarioTimeout: cfg.ScenarioTimeout,
		cleanupTimeout:  cfg.CleanupTimeout,
		artifactsDir:    cfg.ArtifactsDir,
	}
}

// Run executes scenarios and returns the report. Up to Parallel scenarios run
// at once; results keep the given order. Scenarios not started before ctx is
// done are reported as skipped. The error is non-nil only when nothing could
// be run at all.
func (c *Coordinator) Run(ctx context.Context, suite string, scenarios []*scenario.Scenario) (*run.Report, error) {
	if len(scenarios) == 0 {
		return nil, errors.New("no scenarios to run")
	}

	report := &run.Report{
		ID:        uuid.NewString(),
		Suite:     suite,
		StartedAt: c.env.Now(),
		Results:   make([]run.Result, len(scenarios)),
	}
	logger := c.logger.With("run_id", report.ID, "suite", suite)
	logger.Info("Run started", "scenarios", len(scenarios), "parallel", c.parallel)
	c.publishEvent(event.NewRunStarted(report.ID, suite, len(scenarios), report.StartedAt))

	g := new(errgroup.Group)
	g.SetLimit(c.parallel)
	for i, sc := range scenarios {
		g.Go(func() error {
			report.Results[i] = c.runScenario(ctx, report.ID, sc)
			return nil // a scenario's verdict never stops the others
		})
	}
	_ = g.Wait()

	report.FinishedAt = c.env.Now()
	counts := report.Counts()
	c.publishEvent(event.NewRunFinished(report.ID, suite, counts, report.Duration()))
	logger.Info("Run finished",
		"duration", report.Duration(),
		"passed", counts[event.StatusPassed],
		"failed", counts[event.StatusFailed],
		"error", counts[event.StatusError],
		"skipped", counts[event.StatusSkipped])

	return report, nil
}

// runScenario opens a session, logs in when the kind needs it, runs the
// workflow and closes the session whatever happened.
func (c *Coordinator) runScenario(ctx context.Context, runID string, sc *scenario.Scenario) run.Result {
	result := run.Result{
		Scenario:  sc.Name,
		Kind:      string(sc.Kind),
		StartedAt: c.env.Now(),
	}
	if err := ctx.Err(); err != nil {
		result.Status = event.StatusSkipped
		result.Error = err.Error()
		return result
	}

	timeout := sc.Timeout
	if timeout <= 0 {
		timeout = c.scenarioTimeout
	}
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	sess := session.New(&session.Config{
		RunID:          runID,
		Scenario:       sc.Name,
		BaseURL:        c.env.Site.BaseURL,
		Driver:         c.newDriver(),
		EventBus:       c.eventBus,
		Logger:         c.logger,
		ArtifactsDir:   c.artifactsDir,
		CleanupTimeout: c.cleanupTimeout,
	})
	result.SessionID = sess.ID()
	sctx = sess.Context(sctx)
	logger := sess.Logger()

	c.publishEvent(event.NewScenarioStarted(runID, sess.ID(), sc.Name, string(sc.Kind)))
	logger.Info("Scenario started", "kind", sc.Kind)

	start := time.Now()
	wf := workflow.New(sess, c.env)
	err := c.execute(sctx, sess, wf, sc)
	if err != nil {
		result.Artifacts = sess.CaptureFailure(sctx)
	}
	if cerr := sess.Close(sctx); cerr != nil {
		logger.Warn("Session cleanup failed", "error", cerr)
		if err == nil {
			err = fmt.Errorf("cleanup: %w", cerr)
		}
	}

	result.Duration = time.Since(start)
	result.Status = Classify(err)
	result.Observations = wf.Observations()
	if err != nil {
		result.Error = err.Error()
	}

	c.publishEvent(event.NewScenarioFinished(runID, sess.ID(), sc.Name, string(sc.Kind),
		result.Status, result.Duration, err, result.Observations))
	if err != nil {
		logger.Warn("Scenario finished", "status", result.Status, "duration", result.Duration, "error", err)
	} else {
		logger.Info("Scenario finished", "status", result.Status, "duration", result.Duration)
	}
	return result
}

func (c *Coordinator) execute(ctx context.Context, sess *session.Session, wf *workflow.Workflow, sc *scenario.Scenario) error {
	if err := sess.Open(ctx); err != nil {
		return err
	}
	if sc.Kind.NeedsLogin() {
		if err := sess.Login(ctx, wf.Login); err != nil {
			return err
		}
	}
	return sess.Run(ctx, func(ctx context.Context) error {
		return wf.Execute(ctx, sc)
	})
}

func (c *Coordinator) newDriver() browser.Driver {
	if c.driverFactory != nil {
		return c.driverFactory()
	}
	return browser.NewChromeDPDriver(nil)
}

func (c *Coordinator) publishEvent(e event.Event) {
	if c.eventBus != nil {
		c.eventBus.Publish(e)
	}
}

// Classify maps a scenario error to its status: nil passes, a deviation of
// the shop under test fails, anything else is a harness error.
func Classify(err error) event.Status {
	switch {
	case err == nil:
		return event.StatusPassed
	case fault.IsVerificationFailure(err):
		return event.StatusFailed
	default:
		return event.StatusError
	}
}
