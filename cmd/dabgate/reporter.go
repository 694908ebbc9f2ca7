package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/amiya-ps-559/dab-project/internal/checks"
)

// formatDuration formats a duration in a consistent, human-readable way.
func formatDuration(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	if d < time.Second {
		return fmt.Sprintf("%dms", ms)
	}
	return d.String()
}

func statusIcon(s checks.Status) string {
	switch s {
	case checks.StatusPassed:
		return "✅"
	case checks.StatusFailed:
		return "❌"
	case checks.StatusError:
		return "⚠️"
	case checks.StatusSkipped:
		return "⏭"
	}
	return "?"
}

// formatReport renders the human-readable validation summary: one line per
// check plus a digest footer. Every attempted check appears with a concrete
// reason string.
func formatReport(report *checks.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Validation report for environment %q\n\n", report.Environment)

	// Align the message column on the widest check name.
	nameWidth := 0
	for _, res := range report.Results {
		if w := runewidth.StringWidth(res.Spec.Name()); w > nameWidth {
			nameWidth = w
		}
	}

	for _, res := range report.Results {
		name := runewidth.FillRight(res.Spec.Name(), nameWidth)
		fmt.Fprintf(&b, "  %s %s  %s (%s)\n", statusIcon(res.Status), name, res.Message, formatDuration(res.DurationMs))
	}

	digest := report.Digest()
	fmt.Fprintf(&b, "\n%d checks: %d passed, %d failed, %d error(s), %d skipped\n",
		digest.Total, digest.Passed, digest.Failed, digest.Errors, digest.Skipped)

	if report.Aborted {
		b.WriteString("\nPARTIAL RUN: the validation was interrupted; skipped checks did not execute.\n")
	}

	fmt.Fprintf(&b, "Overall: %s (%s)\n", strings.ToUpper(string(report.Outcome())), formatDuration(report.DurationMs))
	return b.String()
}
