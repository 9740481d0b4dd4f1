package main

import (
	"context"

	"duskvault/fingerprint"
	"duskvault/hashpipe"
	"duskvault/reportui"
)

// buildFingerprintSet scans paths and runs them through the hash pipeline,
// returning a fingerprint.Set keyed by path. Per-file errors are printed as
// warnings and the file is omitted from the set, matching the teacher's
// "capture error, continue" propagation policy (spec §7).
func buildFingerprintSet(c context.Context, paths []string, isSSD, simpleCompare bool, bar *progressTracker) fingerprint.Set {
	pipeline := hashpipe.New(hashpipe.Options{
		IsSSD:         isSSD,
		SimpleCompare: simpleCompare,
		OnProgress:    bar.tick,
	})
	results := pipeline.Run(c, paths)

	set := make(fingerprint.Set, len(results))
	for _, r := range results {
		if r.Err != nil {
			reportui.Warning("%s: %v", r.Path, r.Err)
			continue
		}
		set[r.Path] = r.Info
	}
	return set
}

// progressTracker adapts a *progressbar.ProgressBar (or nil, for quiet
// runs) into the OnProgress callback hashpipe/taskpool expect.
type progressTracker struct {
	add func(int)
}

func (p *progressTracker) tick() {
	if p != nil && p.add != nil {
		p.add(1)
	}
}
