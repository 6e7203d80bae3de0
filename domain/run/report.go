// Package run holds the outcome of running a scenario suite.
package run

import (
	"context"
	"errors"
	"time"

	"grocerycheck/core/event"
)

// ErrRunNotFound is returned when a run report does not exist.
var ErrRunNotFound = errors.New("run not found")

// Result is the verdict of one scenario.
type Result struct {
	Scenario     string
	Kind         string
	SessionID    string
	Status       event.Status
	StartedAt    time.Time
	Duration     time.Duration
	Error        string
	Observations map[string]string
	Artifacts    []string
}

// Report is the outcome of one run. Results keep suite order.
type Report struct {
	ID         string
	Suite      string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []Result
}

// Duration returns the wall time of the run.
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Counts returns the number of results per status.
func (r *Report) Counts() map[event.Status]int {
	counts := make(map[event.Status]int, 4)
	for _, res := range r.Results {
		counts[res.Status]++
	}
	return counts
}

// Passed reports whether every scenario that ran passed.
func (r *Report) Passed() bool {
	c := r.Counts()
	return c[event.StatusFailed] == 0 && c[event.StatusError] == 0
}

// Result returns the result of the named scenario.
func (r *Report) Result(scenario string) (Result, bool) {
	for _, res := range r.Results {
		if res.Scenario == scenario {
			return res, true
		}
	}
	return Result{}, false
}

// Repository persists run reports.
type Repository interface {
	// Insert stores a finished report.
	Insert(ctx context.Context, r *Report) error

	// FindByID retrieves a report by run ID.
	FindByID(ctx context.Context, id string) (*Report, error)

	// FindRecent returns up to limit reports, newest first. An empty suite
	// matches every suite.
	FindRecent(ctx context.Context, suite string, limit int) ([]*Report, error)
}
