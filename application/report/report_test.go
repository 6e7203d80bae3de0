package report

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grocerycheck/core/event"
	"grocerycheck/core/eventbus"
	"grocerycheck/core/state"
)

type fakeMetrics struct {
	mu       sync.Mutex
	steps    int
	stepErrs int
	cleanups int
}

func (m *fakeMetrics) StepCompleted(_ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps++
	if err != nil {
		m.stepErrs++
	}
}

func (m *fakeMetrics) CleanupFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanups++
}

func TestReporter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	m := &fakeMetrics{}
	r := New(logger, m)

	bus := eventbus.New(64)
	r.Attach(bus)

	bus.Publish(event.NewRunStarted("run-1", "grocerymate", 2, time.Now()))
	bus.Publish(event.NewScenarioStarted("run-1", "s-1", "age-exactly-18", "age-gate"))
	bus.Publish(event.NewSessionStateChanged("run-1", "s-1", state.StateIdle, state.StateStarting))
	bus.Publish(event.NewStepCompleted("run-1", "s-1", "age-exactly-18", "open store", time.Second, nil))
	bus.Publish(event.NewScenarioFinished("run-1", "s-1", "age-exactly-18", "age-gate", event.StatusPassed,
		3*time.Second, nil, map[string]string{"age_gate": "admitted (You are of age)"}))
	bus.Publish(event.NewStepCompleted("run-1", "s-2", "shipping-threshold", "add units", time.Second, errors.New("boom")))
	bus.Publish(event.NewArtifactSaved("run-1", "s-2", "artifacts/shipping.png"))
	bus.Publish(event.NewCleanupFailed("run-1", "s-2", "empty cart", errors.New("gone")))
	bus.Publish(event.NewScenarioFinished("run-1", "s-2", "shipping-threshold", "shipping-threshold", event.StatusFailed,
		40*time.Second, errors.New("shipping fee: expected 0.00 €"), nil))
	bus.Publish(event.NewRunFinished("run-1", "grocerymate",
		map[event.Status]int{event.StatusPassed: 1, event.StatusFailed: 1}, time.Minute))
	bus.Close()

	assert.Equal(t, 2, m.steps)
	assert.Equal(t, 1, m.stepErrs)
	assert.Equal(t, 1, m.cleanups)

	out := buf.String()
	assert.Contains(t, out, `msg="Scenario passed"`)
	assert.Contains(t, out, `observed="age_gate=admitted (You are of age)"`)
	assert.Contains(t, out, `level=ERROR msg="Scenario failed"`)
	assert.Contains(t, out, "path=artifacts/shipping.png")
	assert.Contains(t, out, `cleanup="empty cart"`)
	assert.Contains(t, out, "passed=1 failed=1")
}

func TestReporter_WithoutMetrics(t *testing.T) {
	var buf bytes.Buffer
	r := New(slog.New(slog.NewTextHandler(&buf, nil)), nil)

	require.NotPanics(t, func() {
		r.Handle(event.NewStepCompleted("run-1", "s-1", "x", "step", time.Second, nil))
		r.Handle(event.NewCleanupFailed("run-1", "s-1", "stop browser", errors.New("x")))
		r.Handle(event.NewScenarioFinished("run-1", "s-1", "x", "login", event.StatusSkipped, 0, nil, nil))
		r.Handle(event.NewRunFinished("run-1", "s", nil, 0))
	})
	assert.Equal(t, 1, strings.Count(buf.String(), "Scenario skipped"))
}
