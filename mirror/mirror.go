// Package mirror applies a plan.Plan to a destination directory by
// copy-with-temp-rename and delete, per spec §4.6.
package mirror

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"duskvault/duskerr"
	"duskvault/plan"
	"duskvault/taskpool"
)

// Options configures an Executor run.
type Options struct {
	// Concurrency bounds parallel workers. The reference runs mirror
	// serially; set > 1 only when the caller knows the destination is an
	// SSD that tolerates concurrent writers.
	Concurrency int
	OnProgress  func()
}

// Executor applies plan.Entry values to a destination tree.
type Executor struct {
	opts Options
}

func New(opts Options) *Executor {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Executor{opts: opts}
}

// TaskResult reports the outcome of applying one entry.
type TaskResult struct {
	Entry plan.Entry
	Err   error
}

// Execute applies every entry in p, returning one TaskResult per entry in
// p.Entries order. Per-file failures are captured and execution continues;
// the caller decides overall success via taskpool.WorstResult.
func (e *Executor) Execute(ctx context.Context, p *plan.Plan) []TaskResult {
	worker := func(ctx context.Context, entry plan.Entry) TaskResult {
		return TaskResult{Entry: entry, Err: applyEntry(ctx, entry)}
	}
	return taskpool.Run(ctx, p.Entries, e.opts.Concurrency, worker, e.opts.OnProgress)
}

func applyEntry(ctx context.Context, entry plan.Entry) error {
	switch entry.Kind {
	case plan.Add, plan.Modify:
		return copyWithRename(ctx, entry.SourcePath, entry.DestPath)
	case plan.Remove:
		if err := os.Remove(entry.DestPath); err != nil && !os.IsNotExist(err) {
			return duskerr.Wrap(duskerr.ErrIoFailure, "remove "+entry.DestPath, err)
		}
		return nil
	default:
		return duskerr.Wrap(duskerr.ErrInvalidInput, "unknown plan entry kind", nil)
	}
}

// copyWithRename copies src to a "<dest>.copying" sibling, unlinks any
// existing dest, then atomically renames the temp file into place,
// preserving the source's modification time.
func copyWithRename(ctx context.Context, src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return duskerr.Wrap(duskerr.ErrIoFailure, "mkdir for "+dest, err)
	}

	tmp := dest + ".copying"
	if err := copyFile(ctx, src, tmp); err != nil {
		os.Remove(tmp)
		return duskerr.Wrap(duskerr.ErrIoFailure, "copy "+src+" to "+dest, err)
	}

	info, err := os.Stat(src)
	if err != nil {
		os.Remove(tmp)
		return duskerr.Wrap(duskerr.ErrIoFailure, "stat "+src, err)
	}
	if err := os.Chtimes(tmp, info.ModTime(), info.ModTime()); err != nil {
		os.Remove(tmp)
		return duskerr.Wrap(duskerr.ErrIoFailure, "chtimes "+tmp, err)
	}

	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		os.Remove(tmp)
		return duskerr.Wrap(duskerr.ErrIoFailure, "remove existing "+dest, err)
	}

	if err := os.Rename(tmp, dest); err != nil {
		return duskerr.Wrap(duskerr.ErrIoFailure, "rename "+tmp+" to "+dest, err)
	}
	return nil
}

func copyFile(ctx context.Context, src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	buf := make([]byte, 1024*1024)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		n, readErr := in.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				return writeErr
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return readErr
		}
	}
	return out.Sync()
}
