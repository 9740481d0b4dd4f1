package main

import (
	"errors"

	"github.com/spf13/cobra"

	"duskvault/duskerr"
	"duskvault/reportui"
	"duskvault/snapshot"
)

func newCommitOffsiteCommand() *cobra.Command {
	var backupName, dataDir, archiveSuffix string

	cmd := &cobra.Command{
		Use:   "commit-offsite",
		Short: "Promote a pending snapshot's historical manifest to live",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommitOffsite(backupName, dataDir, archiveSuffix)
		},
	}

	cmd.Flags().StringVar(&backupName, "backup-name", "default", "backup name namespacing the historical manifest")
	cmd.Flags().StringVar(&dataDir, "data-dir", defaultDataDir(), "directory holding the historical manifest")
	cmd.Flags().StringVar(&archiveSuffix, "archive-suffix", "", "also write an archival copy of the committed manifest with this suffix")
	return cmd
}

func runCommitOffsite(backupName, dataDir, archiveSuffix string) error {
	store := snapshot.Open(dataDir, backupName)
	if err := store.Commit(archiveSuffix); err != nil {
		if errors.Is(err, duskerr.ErrPendingMissing) {
			reportui.Error("%v", err)
			return err
		}
		return err
	}
	reportui.Success("Committed pending snapshot for %q", backupName)
	return nil
}
