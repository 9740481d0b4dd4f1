// duskvault: a content-addressed file backup engine (mirror / offsite /
// offsite-restore / commit-offsite), incremental and deduplicating.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"duskvault/reportui"
)

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		reportui.Error("%v", err)
		os.Exit(2)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "duskvault",
		Short: "Content-addressed file backup engine",
		Long: `duskvault synchronizes, snapshots, and restores file trees with
content-addressed deduplication.

Commands:
  mirror            synchronize a destination tree to match the inputs
  offsite           emit a deduplicated snapshot for off-site shipment
  commit-offsite    promote a pending snapshot's historical manifest to live
  offsite-restore   replay a snapshot chain into a destination tree
`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(os.Args) == 1 {
				runInteractive()
				return
			}
			cmd.Help()
		},
	}

	root.AddCommand(newMirrorCommand())
	root.AddCommand(newOffsiteCommand())
	root.AddCommand(newCommitOffsiteCommand())
	root.AddCommand(newOffsiteRestoreCommand())
	return root
}

// scanOptions groups the flags shared by every command that expands inputs
// via package scan.
type scanOptions struct {
	inputs          []string
	include         []string
	exclude         []string
	traverseInclude []string
	traverseExclude []string
}

func addScanFlags(cmd *cobra.Command, opts *scanOptions) {
	cmd.Flags().StringSliceVar(&opts.inputs, "input", nil, "input file or directory (repeatable)")
	cmd.Flags().StringSliceVar(&opts.include, "include", nil, "include pattern (repeatable)")
	cmd.Flags().StringSliceVar(&opts.exclude, "exclude", nil, "exclude pattern (repeatable)")
	cmd.Flags().StringSliceVar(&opts.traverseInclude, "traverse-include", nil, "directory-name include pattern (repeatable)")
	cmd.Flags().StringSliceVar(&opts.traverseExclude, "traverse-exclude", nil, "directory-name exclude pattern (repeatable)")
}

func exitNothingToDo() {
	reportui.Success("Nothing to do.")
	os.Exit(1)
}

func ctx() context.Context {
	return context.Background()
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}

func parseSubstitution(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		parts := strings.SplitN(p, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid --substitute %q, want OLD=NEW", p)
		}
		out[parts[0]] = parts[1]
	}
	return out, nil
}
