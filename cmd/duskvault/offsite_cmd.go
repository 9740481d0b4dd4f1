package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"duskvault/archiver"
	"duskvault/cache"
	"duskvault/diskspace"
	"duskvault/namemap"
	"duskvault/plan"
	"duskvault/reportui"
	"duskvault/scan"
	"duskvault/snapshot"
)

func newOffsiteCommand() *cobra.Command {
	var so scanOptions
	var output, backupName, dataDir string
	var simpleCompare, noStatus, ssd bool
	var useArchiver, compress bool
	var password string

	cmd := &cobra.Command{
		Use:   "offsite",
		Short: "Emit a deduplicated snapshot for off-site shipment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOffsite(so, output, backupName, dataDir, simpleCompare, noStatus, ssd, useArchiver, compress, password)
		},
	}

	addScanFlags(cmd, &so)
	cmd.Flags().StringVar(&output, "output", "", "snapshot output directory")
	cmd.Flags().StringVar(&backupName, "backup-name", "default", "backup name namespacing the historical manifest")
	cmd.Flags().StringVar(&dataDir, "data-dir", defaultDataDir(), "directory holding the historical manifest")
	cmd.Flags().BoolVar(&simpleCompare, "simple-compare", false, "compare by size+mtime only, skip hashing")
	cmd.Flags().BoolVar(&noStatus, "no-status", false, "suppress progress bars")
	cmd.Flags().BoolVar(&ssd, "ssd", false, "use the SSD (parallel) hashing strategy")
	cmd.Flags().BoolVar(&useArchiver, "archive", false, "package the snapshot through the external archiver")
	cmd.Flags().BoolVar(&compress, "compress", false, "use archiver compression level 9 instead of 0")
	cmd.Flags().StringVar(&password, "password", "", "archiver encryption password")
	cmd.MarkFlagRequired("output")
	return cmd
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "duskvault")
}

func runOffsite(so scanOptions, output, backupName, dataDir string, simpleCompare, noStatus, ssd, useArchiver, compress bool, password string) error {
	c := ctx()

	sourcePaths, walkErrs, err := scan.New(scan.Options{
		Inputs: so.inputs, Include: so.include, Exclude: so.exclude,
		TraverseInclude: so.traverseInclude, TraverseExclude: so.traverseExclude,
	}).Walk()
	if err != nil {
		return err
	}
	for _, we := range walkErrs {
		reportui.Warning("%v", we)
	}

	hashBar := newTracker(len(sourcePaths), "hashing source", noStatus)
	source := buildFingerprintSet(c, sourcePaths, ssd, simpleCompare, hashBar)

	store := snapshot.Open(dataDir, backupName)
	historical := store.LoadHistorical()

	p := plan.Diff(source, historical, namemap.Identity{}, simpleCompare)

	idxPath := filepath.Join(dataDir, backupName+".index.db")
	idx, err := cache.Open(idxPath)
	if err != nil {
		return err
	}
	defer idx.Close()
	if err := idx.Rebuild(snapshot.HashesOf(historical)); err != nil {
		reportui.Warning("could not rebuild hash index, continuing without it: %v", err)
	}

	var neededBytes int64
	for _, e := range p.Entries {
		if (e.Kind == plan.Add || e.Kind == plan.Modify) && !idx.Has(e.SourceInfo.Hash) {
			neededBytes += e.SourceInfo.Size
		}
	}
	if err := diskspace.Preflight(output, neededBytes); err != nil {
		return err
	}

	entries, err := snapshot.WriteSnapshot(output, p, idx)
	if err != nil {
		return err
	}

	if useArchiver {
		a := archiver.New(archiver.Options{Password: password, Compress: compress})
		if !a.Available() {
			reportui.Warning("archiver tool not found in PATH, skipping packaging")
		} else {
			workDir := output + ".archiving"
			if err := a.Archive(output, workDir); err != nil {
				return err
			}
			if err := os.RemoveAll(output); err != nil {
				return err
			}
			if err := os.Rename(workDir, output); err != nil {
				return err
			}
		}
	}

	if err := store.WritePending(source); err != nil {
		return err
	}

	reportui.Success("Snapshot written to %s: %d manifest entries", output, len(entries))
	if len(p.Entries) == 0 {
		exitNothingToDo()
	}
	return nil
}
