package main

import (
	"duskvault/reportui"
)

// newTracker wraps a themed progress bar (or returns nil for quiet runs) as
// a progressTracker usable from buildFingerprintSet/mirror/restore.
func newTracker(total int, description string, quiet bool) *progressTracker {
	if quiet || total == 0 {
		return nil
	}
	bar := reportui.NewProgressBar(total, description)
	return &progressTracker{add: func(n int) { bar.Add(n) }}
}
