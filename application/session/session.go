// Package session owns one browser per scenario: it starts the driver, walks
// the session state machine, runs workflow steps and guarantees that every
// registered cleanup runs when the session closes.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"grocerycheck/core/event"
	"grocerycheck/core/eventbus"
	"grocerycheck/core/state"
	"grocerycheck/infrastructure/browser"
	"grocerycheck/infrastructure/logging"
)

// DefaultCleanupTimeout bounds each cleanup when Config leaves it unset.
const DefaultCleanupTimeout = 30 * time.Second

// CleanupFunc undoes server-side or browser state created by a workflow.
type CleanupFunc = func(ctx context.Context) error

type cleanup struct {
	name string
	fn   CleanupFunc
}

// Session is a single browser session. Commands are issued by one workflow
// at a time; the session never shares its driver.
type Session struct {
	// Identity
	id       string
	runID    string
	scenario string

	// State
	state   state.SessionState
	stateMu sync.RWMutex

	// Components
	browserCtrl *BrowserController
	artifacts   *ArtifactWriter

	// Dependencies
	driver   browser.Driver
	eventBus eventbus.EventBus
	logger   *slog.Logger

	cleanupTimeout time.Duration
	cleanupMu      sync.Mutex
	cleanups       []cleanup
	closeOnce      sync.Once
	closeErr       error
}

// Config holds configuration for creating a new Session.
type Config struct {
	ID             string
	RunID          string
	Scenario       string
	BaseURL        string
	Driver         browser.Driver
	EventBus       eventbus.EventBus
	Logger         *slog.Logger
	ArtifactsDir   string
	CleanupTimeout time.Duration
}

// New creates a session. The browser is not started until Open.
func New(cfg *Config) *Session {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.L()
	}
	if cfg.CleanupTimeout <= 0 {
		cfg.CleanupTimeout = DefaultCleanupTimeout
	}

	logger := cfg.Logger.With("session_id", cfg.ID)
	if cfg.Scenario != "" {
		logger = logger.With("scenario", cfg.Scenario)
	}

	s := &Session{
		id:             cfg.ID,
		runID:          cfg.RunID,
		scenario:       cfg.Scenario,
		state:          state.StateIdle,
		driver:         cfg.Driver,
		eventBus:       cfg.EventBus,
		logger:         logger,
		cleanupTimeout: cfg.CleanupTimeout,
	}

	s.browserCtrl = NewBrowserController(cfg.Driver, cfg.BaseURL, logger)
	if cfg.ArtifactsDir != "" {
		s.artifacts = NewArtifactWriter(cfg.Driver, cfg.ArtifactsDir, logger)
	}
	return s
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// RunID returns the run the session belongs to.
func (s *Session) RunID() string {
	return s.runID
}

// Driver returns the session's browser driver for page objects.
func (s *Session) Driver() browser.Driver {
	return s.driver
}

// Logger returns the session logger.
func (s *Session) Logger() *slog.Logger {
	return s.logger
}

// State returns the current session state.
func (s *Session) State() state.SessionState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// Context returns ctx carrying the session logger.
func (s *Session) Context(ctx context.Context) context.Context {
	return logging.With(ctx, s.logger)
}

// Open starts the browser, registers its shutdown as the last cleanup and
// resets cookies and local storage so the session starts anonymous.
func (s *Session) Open(ctx context.Context) error {
	if err := s.transitionTo(state.StateStarting); err != nil {
		return err
	}

	if err := s.driver.Start(ctx); err != nil {
		s.abort()
		return fmt.Errorf("failed to start browser: %w", err)
	}
	s.Defer("stop browser", func(context.Context) error {
		return s.browserCtrl.Stop()
	})
	s.Defer("clear browser state", s.browserCtrl.Reset)

	if err := s.browserCtrl.Reset(ctx); err != nil {
		return fmt.Errorf("reset browser state: %w", err)
	}
	return s.transitionTo(state.StateReady)
}

// abort moves a session whose browser never started straight to Stopped.
func (s *Session) abort() {
	if err := s.transitionTo(state.StateCleaningUp); err != nil {
		s.logger.Error("Failed to abort session", "error", err)
		return
	}
	_ = s.transitionTo(state.StateStopped)
}

// Login runs fn in the LoggingIn state. The session returns to Ready
// whatever fn returns, so rejected logins can still be inspected.
func (s *Session) Login(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := s.transitionTo(state.StateLoggingIn); err != nil {
		return err
	}
	err := s.guard(ctx, "login", fn)
	if terr := s.transitionTo(state.StateReady); terr != nil {
		return errors.Join(err, terr)
	}
	return err
}

// Defer registers a cleanup. Cleanups run in reverse registration order
// when the session closes.
func (s *Session) Defer(name string, fn CleanupFunc) {
	s.cleanupMu.Lock()
	defer s.cleanupMu.Unlock()
	s.cleanups = append(s.cleanups, cleanup{name: name, fn: fn})
}

// Close runs every registered cleanup, newest first, each under its own
// timeout derived from ctx but not cancelled with it. A failing or panicking
// cleanup does not stop the others. Close is idempotent.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.closeErr = s.close(ctx)
	})
	return s.closeErr
}

func (s *Session) close(ctx context.Context) error {
	if s.State() == state.StateIdle {
		return s.transitionTo(state.StateStopped)
	}
	if s.State() == state.StateStopped {
		return nil
	}
	if err := s.transitionTo(state.StateCleaningUp); err != nil {
		return err
	}

	s.cleanupMu.Lock()
	cleanups := s.cleanups
	s.cleanups = nil
	s.cleanupMu.Unlock()

	base := context.WithoutCancel(ctx)
	var errs []error
	for i := len(cleanups) - 1; i >= 0; i-- {
		c := cleanups[i]
		if err := s.runCleanup(base, c); err != nil {
			s.logger.Error("Cleanup failed", "cleanup", c.name, "error", err)
			s.publishEvent(event.NewCleanupFailed(s.runID, s.id, c.name, err))
			errs = append(errs, fmt.Errorf("cleanup %q: %w", c.name, err))
			continue
		}
		s.logger.Debug("Cleanup done", "cleanup", c.name)
	}

	if err := s.transitionTo(state.StateStopped); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Session) runCleanup(base context.Context, c cleanup) (err error) {
	ctx, cancel := context.WithTimeout(s.Context(base), s.cleanupTimeout)
	defer cancel()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return c.fn(ctx)
}

// State transition helpers

func (s *Session) transitionTo(newState state.SessionState) error {
	s.stateMu.Lock()
	oldState := s.state

	if !oldState.CanTransitionTo(newState) {
		s.stateMu.Unlock()
		return state.NewTransitionError(oldState, newState, "invalid transition")
	}

	s.state = newState
	s.stateMu.Unlock()

	s.publishEvent(event.NewSessionStateChanged(s.runID, s.id, oldState, newState))
	s.logger.Debug("State changed", "from", oldState, "to", newState)

	return nil
}

func (s *Session) publishEvent(e event.Event) {
	if s.eventBus != nil {
		s.eventBus.Publish(e)
	}
}
