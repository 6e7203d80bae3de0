// Package presentation renders run reports and suites for the terminal.
package presentation

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"grocerycheck/core/event"
	"grocerycheck/domain/run"
	"grocerycheck/domain/scenario"
)

// maxErrorWidth caps the error column; the full text is in the log.
const maxErrorWidth = 80

// Printer writes tables to an output.
type Printer struct {
	out   io.Writer
	color bool
}

// NewPrinter creates a printer. Colors are for terminals only.
func NewPrinter(out io.Writer, color bool) *Printer {
	return &Printer{out: out, color: color}
}

func (p *Printer) newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	if p.color {
		t.SetStyle(table.StyleRounded)
	} else {
		t.SetStyle(table.StyleLight)
	}
	t.Style().Format.Footer = text.FormatDefault
	return t
}

func (p *Printer) paint(c text.Color, s string) string {
	if !p.color {
		return s
	}
	return c.Sprint(s)
}

func (p *Printer) status(s event.Status) string {
	switch s {
	case event.StatusPassed:
		return p.paint(text.FgGreen, "PASS")
	case event.StatusFailed:
		return p.paint(text.FgRed, "FAIL")
	case event.StatusError:
		return p.paint(text.FgYellow, "ERROR")
	default:
		return p.paint(text.FgHiBlack, "SKIP")
	}
}

// Report prints one row per scenario and a footer with the counts.
func (p *Printer) Report(rep *run.Report) {
	t := p.newTable()
	t.SetTitle(fmt.Sprintf("%s  run %s", rep.Suite, rep.ID))
	t.AppendHeader(table.Row{"Scenario", "Kind", "Status", "Duration", "Details"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, WidthMax: maxErrorWidth},
	})

	for _, res := range rep.Results {
		t.AppendRow(table.Row{
			res.Scenario,
			res.Kind,
			p.status(res.Status),
			res.Duration.Round(100 * time.Millisecond),
			details(res),
		})
	}

	c := rep.Counts()
	t.AppendFooter(table.Row{
		fmt.Sprintf("%d scenarios", len(rep.Results)),
		"",
		fmt.Sprintf("%d passed, %d failed, %d error, %d skipped",
			c[event.StatusPassed], c[event.StatusFailed], c[event.StatusError], c[event.StatusSkipped]),
		rep.Duration().Round(time.Second),
		"",
	})
	t.Render()
}

// details is the error for an unsuccessful scenario, otherwise its observations.
func details(res run.Result) string {
	if res.Error != "" {
		msg := res.Error
		if len(res.Artifacts) > 0 {
			msg += " [" + strings.Join(res.Artifacts, ", ") + "]"
		}
		return msg
	}
	keys := make([]string, 0, len(res.Observations))
	for k := range res.Observations {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + res.Observations[k]
	}
	return strings.Join(parts, " ")
}

// Scenarios prints the scenarios of a suite.
func (p *Printer) Scenarios(suite *scenario.Suite) {
	t := p.newTable()
	t.SetTitle(suite.Name)
	t.AppendHeader(table.Row{"Scenario", "Kind", "Tags", "Description"})
	for _, sc := range suite.Scenarios {
		t.AppendRow(table.Row{sc.Name, string(sc.Kind), strings.Join(sc.Tags, ","), sc.Description})
	}
	t.Render()
}

// Runs prints stored reports, newest first.
func (p *Printer) Runs(reports []*run.Report) {
	if len(reports) == 0 {
		fmt.Fprintln(p.out, p.paint(text.FgYellow, "No runs stored"))
		return
	}
	t := p.newTable()
	t.AppendHeader(table.Row{"Run", "Suite", "Started", "Duration", "Passed", "Failed", "Error"})
	for _, rep := range reports {
		c := rep.Counts()
		t.AppendRow(table.Row{
			rep.ID, rep.Suite, rep.StartedAt.Format(time.RFC3339), rep.Duration().Round(time.Second),
			c[event.StatusPassed], c[event.StatusFailed], c[event.StatusError],
		})
	}
	t.Render()
}
