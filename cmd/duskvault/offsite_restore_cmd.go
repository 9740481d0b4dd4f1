package main

import (
	"runtime"

	"github.com/spf13/cobra"

	"duskvault/archiver"
	"duskvault/reportui"
	"duskvault/restore"
	"duskvault/taskpool"
)

func newOffsiteRestoreCommand() *cobra.Command {
	var sourceRoot string
	var substitute []string
	var ssd, noStatus bool
	var password string

	cmd := &cobra.Command{
		Use:   "offsite-restore",
		Short: "Replay a chain of snapshots into a destination tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOffsiteRestore(sourceRoot, substitute, ssd, noStatus, password)
		},
	}

	cmd.Flags().StringVar(&sourceRoot, "source", "", "directory containing the ordered snapshot subdirectories")
	cmd.Flags().StringSliceVar(&substitute, "substitute", nil, "OLD=NEW destination path prefix rewrite (repeatable)")
	cmd.Flags().BoolVar(&ssd, "ssd", false, "materialize with the SSD (parallel) concurrency strategy")
	cmd.Flags().BoolVar(&noStatus, "no-status", false, "suppress progress bars")
	cmd.Flags().StringVar(&password, "password", "", "archiver decryption password, if snapshots are packaged")
	cmd.MarkFlagRequired("source")
	return cmd
}

func runOffsiteRestore(sourceRoot string, substitutePairs []string, ssd, noStatus bool, password string) error {
	c := ctx()

	mapping, err := parseSubstitution(substitutePairs)
	if err != nil {
		return err
	}

	a := archiver.New(archiver.Options{Password: password})
	replayer := restore.New(a)

	flat, snapErrs := replayer.Fold(sourceRoot)
	for _, se := range snapErrs {
		reportui.Warning("%s: %v", se.SnapshotDir, se.Err)
	}

	if len(mapping) > 0 {
		flat = restore.Substitute(flat, mapping)
	}

	if len(flat) == 0 {
		exitNothingToDo()
		return nil
	}

	concurrency := 1
	if ssd {
		concurrency = runtime.NumCPU()
	}

	bar := newTracker(len(flat), "materializing files", noStatus)
	results := restore.Materialize(c, flat, concurrency, bar.tick)

	failures := 0
	for _, r := range results {
		if r.Err != nil {
			failures++
			reportui.Error("%v", r.Err)
		}
	}

	if taskpool.WorstResult(results) != 0 {
		reportui.Warning("%d of %d files failed to materialize", failures, len(results))
	} else {
		reportui.Success("Restored %d files from %s", len(results), sourceRoot)
	}
	return nil
}
