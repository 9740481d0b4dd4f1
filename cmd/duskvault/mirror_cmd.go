package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"duskvault/diskspace"
	"duskvault/mirror"
	"duskvault/namemap"
	"duskvault/plan"
	"duskvault/reportui"
	"duskvault/scan"
	"duskvault/taskpool"
)

func newMirrorCommand() *cobra.Command {
	var so scanOptions
	var dest string
	var simpleCompare, displayOnly, noStatus, ssd, force bool
	var reportPath string

	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Synchronize a destination tree to match the inputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMirror(so, dest, simpleCompare, displayOnly, noStatus, ssd, force, reportPath)
		},
	}

	addScanFlags(cmd, &so)
	cmd.Flags().StringVar(&dest, "dest", "", "destination directory")
	cmd.Flags().BoolVar(&simpleCompare, "simple-compare", false, "compare by size+mtime only, skip hashing")
	cmd.Flags().BoolVar(&displayOnly, "display-only", false, "print the plan without executing it")
	cmd.Flags().BoolVar(&noStatus, "no-status", false, "suppress progress bars")
	cmd.Flags().BoolVar(&ssd, "ssd", false, "use the SSD (parallel) hashing strategy")
	cmd.Flags().BoolVar(&force, "force", false, "skip the free-space preflight check on the destination")
	cmd.Flags().StringVar(&reportPath, "report", "", "HTML report output path (default: <dest>/duskvault-report.html)")
	cmd.MarkFlagRequired("dest")
	return cmd
}

func runMirror(so scanOptions, dest string, simpleCompare, displayOnly, noStatus, ssd, force bool, reportPath string) error {
	start := time.Now()
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

	mapper := namemap.NewRebase(dest, sourcePaths)

	hashBar := newTracker(len(sourcePaths), "hashing source", noStatus)
	source := buildFingerprintSet(c, sourcePaths, ssd, simpleCompare, hashBar)

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	destPaths, destWalkErrs, err := scan.New(scan.Options{Inputs: []string{dest}}).Walk()
	if err != nil {
		return err
	}
	for _, we := range destWalkErrs {
		reportui.Warning("%v", we)
	}
	destBar := newTracker(len(destPaths), "hashing destination", noStatus)
	destSet := buildFingerprintSet(c, destPaths, ssd, simpleCompare, destBar)

	p := plan.Diff(source, destSet, mapper, simpleCompare)

	if displayOnly {
		printPlan(p)
		return nil
	}

	if len(p.Entries) == 0 {
		exitNothingToDo()
		return nil
	}

	if !force {
		var neededBytes int64
		for _, e := range p.Entries {
			if e.Kind == plan.Add || e.Kind == plan.Modify {
				neededBytes += e.SourceInfo.Size
			}
		}
		if err := diskspace.Preflight(dest, neededBytes); err != nil {
			reportui.Warning("%v", err)
		}
	}

	execBar := newTracker(len(p.Entries), "applying changes", noStatus)
	exec := mirror.New(mirror.Options{OnProgress: execBar.tick})
	results := exec.Execute(c, p)

	outcomes := make([]reportui.Outcome, len(results))
	poolResults := make([]taskpool.Result, len(results))
	for i, r := range results {
		var status string
		switch r.Entry.Kind {
		case plan.Add:
			status = "added"
		case plan.Modify:
			status = "modified"
		case plan.Remove:
			status = "removed"
		}
		detail := ""
		if r.Err != nil {
			status = "error"
			detail = r.Err.Error()
			reportui.Error("%s: %v", r.Entry.SourcePath, r.Err)
		}
		outcomes[i] = reportui.Outcome{
			SourcePath: r.Entry.SourcePath, DestPath: r.Entry.DestPath,
			Status: status, Detail: detail, Size: r.Entry.SourceInfo.Size,
		}
		poolResults[i] = taskpool.Result{Err: r.Err}
	}

	if reportPath == "" {
		reportPath = dest + "/duskvault-report.html"
	}
	if err := reportui.WriteHTMLReport(reportPath, outcomes, time.Since(start)); err != nil {
		reportui.Warning("could not write report: %v", err)
	} else {
		reportui.Info("Report written to file://%s", reportPath)
	}

	reportui.Summary(p.Added(), p.Modified(), p.Removed(), p.Matched)

	if taskpool.WorstResult(poolResults) != 0 {
		os.Exit(1)
	}
	return nil
}

func printPlan(p *plan.Plan) {
	for _, e := range p.Entries {
		switch e.Kind {
		case plan.Add, plan.Modify:
			reportui.Info("%s %s -> %s", e.Kind, e.SourcePath, e.DestPath)
		case plan.Remove:
			reportui.Info("remove %s", e.DestPath)
		}
	}
	reportui.Summary(p.Added(), p.Modified(), p.Removed(), p.Matched)
}
