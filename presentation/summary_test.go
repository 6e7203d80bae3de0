package presentation

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/stretchr/testify/assert"

	"grocerycheck/core/event"
	"grocerycheck/domain/run"
	"grocerycheck/domain/scenario"
)

func sampleReport() *run.Report {
	start := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	return &run.Report{
		ID:         "3f1c",
		Suite:      "grocerymate",
		StartedAt:  start,
		FinishedAt: start.Add(95 * time.Second),
		Results: []run.Result{
			{
				Scenario:     "age-exactly-18",
				Kind:         "age-gate",
				Status:       event.StatusPassed,
				Duration:     4200 * time.Millisecond,
				Observations: map[string]string{"birth_date": "19-03-2008", "age_gate": "admitted (You are of age)"},
			},
			{
				Scenario:  "shipping-threshold",
				Kind:      "shipping-threshold",
				Status:    event.StatusFailed,
				Duration:  time.Minute,
				Error:     "shipping fee mismatch",
				Artifacts: []string{"artifacts/a.png"},
			},
			{Scenario: "login", Kind: "login", Status: event.StatusError, Error: "chrome not found"},
			{Scenario: "rating", Kind: "rating", Status: event.StatusSkipped},
		},
	}
}

func TestPrinter_Report(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, false).Report(sampleReport())
	out := buf.String()

	assert.Contains(t, out, "grocerymate  run 3f1c")
	assert.Contains(t, out, "PASS")
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "ERROR")
	assert.Contains(t, out, "SKIP")
	assert.Contains(t, out, "age_gate=admitted (You are of age) birth_date=19-03-2008")
	assert.Contains(t, out, "shipping fee mismatch [artifacts/a.png]")
	assert.Contains(t, out, "1 passed, 1 failed, 1 error, 1 skipped")
	assert.NotContains(t, out, "\x1b[", "no colors when disabled")
}

func TestPrinter_ReportColored(t *testing.T) {
	text.EnableColors()
	var buf bytes.Buffer
	NewPrinter(&buf, true).Report(sampleReport())
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestPrinter_Scenarios(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, false).Scenarios(&scenario.Suite{
		Name: "grocerymate",
		Scenarios: []*scenario.Scenario{
			{Name: "age-exactly-18", Kind: scenario.KindAgeGate, Tags: []string{"age", "smoke"}, Description: "18 years to the day"},
		},
	})
	out := buf.String()
	assert.Contains(t, out, "age-exactly-18")
	assert.Contains(t, out, "age,smoke")
	assert.Contains(t, out, "18 years to the day")
}

func TestPrinter_Runs(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	p.Runs(nil)
	assert.Equal(t, "No runs stored\n", buf.String())

	buf.Reset()
	p.Runs([]*run.Report{sampleReport()})
	out := buf.String()
	assert.Contains(t, out, "2026-03-15T12:00:00Z")
	assert.Equal(t, 1, strings.Count(out, "3f1c"))
}
