// Package reporting renders run results for humans.
package reporting

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ethereum-optimism/infra/op-casekit/runner"
	"github.com/ethereum-optimism/infra/op-casekit/types"
)

// TableFormatter formats run results as ASCII tables
type TableFormatter struct {
	showIndividualCases bool
	title               string
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(title string, showIndividualCases bool) *TableFormatter {
	return &TableFormatter{
		showIndividualCases: showIndividualCases,
		title:               title,
	}
}

// Format formats the run result as an ASCII table
func (tf *TableFormatter) Format(result *runner.RunnerResult) (string, error) {
	if result == nil {
		return "", fmt.Errorf("result cannot be nil")
	}
	var buf bytes.Buffer

	t := table.NewWriter()
	t.SetOutputMirror(&buf)
	t.SetTitle(fmt.Sprintf("%s (%s)", tf.title, formatDuration(result.Duration)))

	t.AppendHeader(table.Row{
		"Type", "ID", "Duration", "Cases", "Passed", "Warned", "Skipped", "Failed", "Status", "Error",
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Type", AutoMerge: true},
		{Name: "ID", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Cases", Align: text.AlignRight},
		{Name: "Passed", Align: text.AlignRight},
		{Name: "Warned", Align: text.AlignRight},
		{Name: "Skipped", Align: text.AlignRight},
		{Name: "Failed", Align: text.AlignRight},
		{Name: "Error", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
	})

	for _, g := range result.Groups {
		t.AppendRow(table.Row{
			"Group",
			g.Name,
			formatDuration(g.Duration),
			g.Stats.Total,
			g.Stats.Passed,
			g.Stats.Warned,
			g.Stats.Skipped,
			g.Stats.Failed,
			getResultString(g.Status),
			"",
		})

		if tf.showIndividualCases {
			for i, c := range g.Cases {
				prefix := "├──"
				if i == len(g.Cases)-1 {
					prefix = "└──"
				}
				t.AppendRow(table.Row{
					"Case",
					fmt.Sprintf("%s %s", prefix, c.ID),
					formatDuration(c.Duration),
					"-", "-", "-", "-", "-",
					getResultString(c.Status),
					caseError(c),
				})
			}
		}
		t.AppendSeparator()
	}

	switch result.Status {
	case types.StatusFail:
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	case types.StatusSkip, types.StatusWarn:
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		"",
		formatDuration(result.Duration),
		result.Stats.Total,
		result.Stats.Passed,
		result.Stats.Warned,
		result.Stats.Skipped,
		result.Stats.Failed,
		getResultString(result.Status),
		"",
	})

	t.Render()
	return buf.String(), nil
}

// WriteTextSummary writes rendered output to path without ANSI colour codes.
func WriteTextSummary(path, rendered string) error {
	if err := os.WriteFile(path, []byte(stripansi.Strip(rendered)), 0644); err != nil {
		return fmt.Errorf("failed to write summary %s: %w", path, err)
	}
	return nil
}

func caseError(c *types.CaseResult) string {
	if c.TimedOut {
		return "timed out"
	}
	if c.Status == types.StatusSkip {
		return c.SkipReason
	}
	if len(c.Failures) == 0 {
		return ""
	}
	parts := make([]string, len(c.Failures))
	for i, f := range c.Failures {
		parts[i] = fmt.Sprintf("[%s] %v", f.Phase, f.Err)
	}
	return strings.Join(parts, "; ")
}

func getResultString(status types.Status) string {
	switch status {
	case types.StatusPass:
		return "✓ pass"
	case types.StatusWarn:
		return "! warn"
	case types.StatusSkip:
		return "- skip"
	case types.StatusFail:
		return "✗ fail"
	default:
		return "? " + string(status)
	}
}

// formatDuration formats the duration in seconds
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}
