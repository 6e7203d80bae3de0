// Package metrics records run outcomes as Prometheus metrics and pushes them
// to a Pushgateway at the end of a run.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"grocerycheck/domain/run"
)

const namespace = "grocerycheck"

// Recorder holds the metrics of one process on a registry of its own, so a
// push carries only harness metrics. Scenario and run metrics are recorded
// from the finished report with RecordReport. Step and cleanup counts arrive
// through the event bus and may miss events it dropped.
type Recorder struct {
	registry *prometheus.Registry

	scenarios        *prometheus.CounterVec
	scenarioDuration *prometheus.HistogramVec
	steps            *prometheus.CounterVec
	stepDuration     prometheus.Histogram
	cleanupFailures  prometheus.Counter
	runs             *prometheus.CounterVec
	lastRun          *prometheus.GaugeVec
}

// New creates a recorder with its metrics registered.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		scenarios: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scenario",
				Name:      "results_total",
				Help:      "Scenarios finished, by suite, kind and status",
			},
			[]string{"suite", "kind", "status"},
		),
		scenarioDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "scenario",
				Name:      "duration_seconds",
				Help:      "Wall time of a scenario including session setup and cleanup",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 9), // 1s to ~4m
			},
			[]string{"kind"},
		),
		steps: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "step",
				Name:      "completed_total",
				Help:      "Workflow steps completed, by result",
			},
			[]string{"result"},
		),
		stepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "step",
			Name:      "duration_seconds",
			Help:      "Wall time of a workflow step",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		}),
		cleanupFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "cleanup_failures_total",
			Help:      "Session cleanups that returned an error or panicked",
		}),
		runs: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "run",
				Name:      "finished_total",
				Help:      "Suite runs finished",
			},
			[]string{"suite"},
		),
		lastRun: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "run",
				Name:      "last_finished_timestamp_seconds",
				Help:      "Unix time the last run of a suite finished",
			},
			[]string{"suite"},
		),
	}
}

// Registry returns the registry the metrics live on.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ScenarioFinished counts a scenario result.
func (r *Recorder) ScenarioFinished(suite, kind, status string, d time.Duration) {
	r.scenarios.WithLabelValues(suite, kind, status).Inc()
	r.scenarioDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// StepCompleted counts a workflow step.
func (r *Recorder) StepCompleted(d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.steps.WithLabelValues(result).Inc()
	r.stepDuration.Observe(d.Seconds())
}

// CleanupFailed counts a failed cleanup.
func (r *Recorder) CleanupFailed() {
	r.cleanupFailures.Inc()
}

// RunFinished counts a finished run.
func (r *Recorder) RunFinished(suite string, at time.Time) {
	r.runs.WithLabelValues(suite).Inc()
	r.lastRun.WithLabelValues(suite).Set(float64(at.Unix()))
}

// RecordReport counts every result of rep and the run itself.
func (r *Recorder) RecordReport(rep *run.Report) {
	for _, res := range rep.Results {
		r.ScenarioFinished(rep.Suite, res.Kind, string(res.Status), res.Duration)
	}
	at := rep.FinishedAt
	if at.IsZero() {
		at = time.Now()
	}
	r.RunFinished(rep.Suite, at)
}

// Push replaces the job's metrics on the Pushgateway at url.
func (r *Recorder) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(r.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
