// Package reportui renders operator-facing output: colored status lines,
// themed progress bars, and an HTML run report. Adapted from the teacher's
// ui.go color conventions and reporting.go table layout, with the mascot
// personality trimmed to a plain summary (spec §7 only asks for counts and
// percentages, not a quote generator).
package reportui

import (
	"os"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

var (
	warningColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	successColor = color.New(color.FgGreen)
	infoColor    = color.New(color.FgCyan)
)

// Warning prints a WARNING:-prefixed line in yellow, per spec §7.
func Warning(format string, args ...any) {
	warningColor.Fprintf(os.Stderr, "WARNING: "+format+"\n", args...)
}

// Error prints an ERROR:-prefixed line in red, per spec §7.
func Error(format string, args ...any) {
	errorColor.Fprintf(os.Stderr, "ERROR: "+format+"\n", args...)
}

// Success prints a green status line.
func Success(format string, args ...any) {
	successColor.Fprintf(os.Stdout, format+"\n", args...)
}

// Info prints a cyan informational line, used for clickable file:// links
// to generated reports.
func Info(format string, args ...any) {
	infoColor.Fprintf(os.Stdout, format+"\n", args...)
}

// NewProgressBar returns a bar themed like the teacher's planning/execution
// bars: spinner, ETA, elapsed time, cleared on completion.
func NewProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowIts(),
		progressbar.OptionClearOnFinish(),
	)
}

// Summary prints the success summary: counts and percentages of added,
// modified, removed, and matched files, per spec §7.
func Summary(added, modified, removed, matched int) {
	total := added + modified + removed + matched
	if total == 0 {
		Success("Nothing to do.")
		return
	}
	pct := func(n int) float64 { return float64(n) / float64(total) * 100 }
	Success("Done: %d added (%.1f%%), %d modified (%.1f%%), %d removed (%.1f%%), %d matched (%.1f%%)",
		added, pct(added), modified, pct(modified), removed, pct(removed), matched, pct(matched))
}
