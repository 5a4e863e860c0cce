package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"anubis/internal/artifact"
	"anubis/internal/generate"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB454"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5F87"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#777777"))
	pathStyle  = lipgloss.NewStyle().Bold(true)
)

func outcomeStyle(o artifact.Outcome) lipgloss.Style {
	switch o {
	case artifact.Created, artifact.Merged:
		return okStyle
	case artifact.Overwritten:
		return warnStyle
	default:
		return dimStyle
	}
}

// printSummary renders a run summary. Safe on a partial summary.
func printSummary(out io.Writer, title string, sum *generate.Summary) {
	fmt.Fprintln(out, titleStyle.Render(title))
	if sum == nil {
		return
	}
	for _, r := range sum.Results {
		outcome := outcomeStyle(r.Outcome).Width(12).Render(r.Outcome.String())
		policy := dimStyle.Width(11).Render(r.Policy.String())
		fmt.Fprintf(out, "  %s %s %s\n", outcome, policy, pathStyle.Render(r.Path))
	}

	counts := sum.Counts()
	var parts []string
	for _, o := range artifact.Outcomes {
		if n := counts[o]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, o))
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "nothing written")
	}
	fmt.Fprintf(out, "%s %s\n", dimStyle.Render(fmt.Sprintf("run %s in %s:", sum.RunID, sum.Duration().Round(time.Microsecond))), strings.Join(parts, ", "))
}
