package cmd

import (
	"fmt"
	"strings"

	"github.com/knowledge-engine/vidlex/internal/analysis"
	"github.com/knowledge-engine/vidlex/internal/engine"
)

// formatReport renders a report as a plain-text summary.
func formatReport(report *engine.Report) string {
	var b strings.Builder
	res := report.Result

	fmt.Fprintf(&b, "Run %s: %d items, threshold %d\n", report.RunID, res.TotalItems, res.Threshold)

	for _, c := range analysis.Channels {
		cr := res.Channel(c)
		fmt.Fprintf(&b, "\n%s: %d common of %d distinct (%.1f%%)\n", strings.ToUpper(c.String()), len(cr.Common), cr.DistinctTerms, cr.Percentage)
		width := 0
		for _, ct := range cr.Common {
			if n := len([]rune(ct.Display)); n > width {
				width = n
			}
		}
		for _, ct := range cr.Common {
			fmt.Fprintf(&b, "  %-*s  %d/%d\n", width, ct.Display, ct.Members, ct.Total)
		}
	}

	if len(res.Ranking) > 0 {
		b.WriteString("\nRANKING\n")
		for _, r := range res.Ranking {
			fmt.Fprintf(&b, "  %2d. %s (score %d)\n", r.Rank, r.Label, r.Score)
		}
	}

	if len(report.Failures) > 0 {
		b.WriteString("\n")
		b.WriteString(formatFailures(report.Failures))
	}
	return b.String()
}

func formatFailures(failures []engine.Failure) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d reference(s) skipped:\n", len(failures))
	for _, f := range failures {
		fmt.Fprintf(&b, "  %s [%s] %s\n", f.Ref, f.Kind, f.Message)
	}
	return b.String()
}
