// Package restore implements RestoreReplay: folding an ordered sequence of
// snapshot manifests into a flat filename->blob map and materializing it,
// per spec §4.8.
package restore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"duskvault/archiver"
	"duskvault/duskerr"
	"duskvault/taskpool"
)

// manifestRecord is the on-disk shape of one data.json entry, per spec §6.
type manifestRecord struct {
	Filename  string `json:"filename"`
	Hash      string `json:"hash"`
	Operation string `json:"operation"`
}

// entry is the accumulator's view of one live filename after folding.
type entry struct {
	snapshotDir string
	hash        string
}

// Replayer folds a source root's snapshot subdirectories into a flat
// filename->blob mapping.
type Replayer struct {
	archiver *archiver.Archiver
}

func New(a *archiver.Archiver) *Replayer {
	return &Replayer{archiver: a}
}

// SnapshotError records a non-fatal problem found while replaying one
// snapshot directory, per spec §7's "warning, skip the entry/snapshot"
// policy.
type SnapshotError struct {
	SnapshotDir string
	Err         error
}

// Fold walks sourceRoot's immediate subdirectories in lexicographic order
// (the sole global ordering primitive, per spec §5) and folds each
// snapshot's manifest into a flat filename->blob-path accumulator.
// Violations are recorded and skipped; folding continues with the next
// entry or snapshot.
func (r *Replayer) Fold(sourceRoot string) (map[string]string, []SnapshotError) {
	dirs, err := listSnapshotDirs(sourceRoot)
	if err != nil {
		return nil, []SnapshotError{{SnapshotDir: sourceRoot, Err: err}}
	}

	accum := make(map[string]entry)
	blobDirs := make(map[string]string) // hash -> snapshot dir holding that blob, across the whole chain
	var errs []SnapshotError
	reg := newRegistry(r.archiver)

	for _, dir := range dirs {
		located := reg.Locate(dir)
		if located.Confidence == ConfidenceNone {
			log.Printf("WARNING: no data.json found in snapshot %s, skipping", dir)
			continue
		}

		records, err := loadManifest(located.ManifestPath)
		if err != nil {
			errs = append(errs, SnapshotError{SnapshotDir: dir, Err: err})
			continue
		}

		for _, rec := range records {
			if err := applyRecord(accum, blobDirs, dir, rec); err != nil {
				errs = append(errs, SnapshotError{SnapshotDir: dir, Err: err})
			}
		}
	}

	flat := make(map[string]string, len(accum))
	for name, e := range accum {
		flat[name] = filepath.Join(e.snapshotDir, e.hash)
	}
	return flat, errs
}

func listSnapshotDirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, duskerr.Wrap(duskerr.ErrIoFailure, "read snapshot root "+root, err)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(root, e.Name()))
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

func loadManifest(path string) ([]manifestRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, duskerr.Wrap(duskerr.ErrIoFailure, "read "+path, err)
	}
	var records []manifestRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, duskerr.Wrap(duskerr.ErrCorruptManifest, "parse "+path, err)
	}
	return records, nil
}

func applyRecord(accum map[string]entry, blobDirs map[string]string, snapshotDir string, rec manifestRecord) error {
	switch rec.Operation {
	case "add":
		if _, exists := accum[rec.Filename]; exists {
			return duskerr.Wrap(duskerr.ErrCorruptManifest,
				fmt.Sprintf("add of already-present filename %s", rec.Filename), nil)
		}
		blobDir, err := resolveBlob(blobDirs, snapshotDir, rec.Hash)
		if err != nil {
			return err
		}
		accum[rec.Filename] = entry{snapshotDir: blobDir, hash: rec.Hash}
	case "modify":
		if _, exists := accum[rec.Filename]; !exists {
			return duskerr.Wrap(duskerr.ErrCorruptManifest,
				fmt.Sprintf("modify of absent filename %s", rec.Filename), nil)
		}
		blobDir, err := resolveBlob(blobDirs, snapshotDir, rec.Hash)
		if err != nil {
			return err
		}
		accum[rec.Filename] = entry{snapshotDir: blobDir, hash: rec.Hash}
	case "remove":
		if _, exists := accum[rec.Filename]; !exists {
			return duskerr.Wrap(duskerr.ErrCorruptManifest,
				fmt.Sprintf("remove of absent filename %s", rec.Filename), nil)
		}
		delete(accum, rec.Filename)
	default:
		return duskerr.Wrap(duskerr.ErrInvalidInput, "unrecognized operation "+rec.Operation, nil)
	}
	return nil
}

// resolveBlob finds the snapshot directory that actually holds hash's blob
// file. Per spec §3, a blob only needs to be present in the snapshot that
// first wrote it (WriteSnapshot dedups against the whole historical
// manifest, not just the current snapshot) — so a hash already seen earlier
// in the fold is resolved against the directory it was first found in,
// falling back to checking snapshotDir itself for a hash seen for the first
// time here. The resolution is cached in blobDirs for later snapshots in
// the chain that reference the same hash without rewriting its blob.
func resolveBlob(blobDirs map[string]string, snapshotDir, hash string) (string, error) {
	if dir, ok := blobDirs[hash]; ok {
		return dir, nil
	}
	if _, err := os.Stat(filepath.Join(snapshotDir, hash)); err != nil {
		return "", duskerr.Wrap(duskerr.ErrCorruptManifest, "missing blob "+hash+" in "+snapshotDir, err)
	}
	blobDirs[hash] = snapshotDir
	return snapshotDir, nil
}

// Substitute rewrites filename prefixes in flat according to mapping,
// applying the optional dir-substitution step of spec §4.8 step 3. Longest
// matching prefix wins; a filename with no matching prefix is unchanged.
func Substitute(flat map[string]string, mapping map[string]string) map[string]string {
	if len(mapping) == 0 {
		return flat
	}
	prefixes := make([]string, 0, len(mapping))
	for k := range mapping {
		prefixes = append(prefixes, k)
	}
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })

	out := make(map[string]string, len(flat))
	for name, blob := range flat {
		newName := name
		for _, prefix := range prefixes {
			if strings.HasPrefix(name, prefix) {
				newName = mapping[prefix] + strings.TrimPrefix(name, prefix)
				break
			}
		}
		out[newName] = blob
	}
	return out
}

// Materialize copies every blob in flat to its filename, creating parent
// directories as needed. concurrency follows the SSD/rotational
// distinction the caller already decided for hashing (spec §4.8 step 4).
func Materialize(ctx context.Context, flat map[string]string, concurrency int, onProgress func()) []taskpool.Result {
	type job struct {
		filename string
		blob     string
	}
	jobs := make([]job, 0, len(flat))
	for filename, blob := range flat {
		jobs = append(jobs, job{filename: filename, blob: blob})
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].filename < jobs[j].filename })

	worker := func(ctx context.Context, j job) taskpool.Result {
		if err := materializeOne(j.filename, j.blob); err != nil {
			return taskpool.Result{Err: err}
		}
		return taskpool.Result{}
	}
	return taskpool.Run(ctx, jobs, concurrency, worker, onProgress)
}

func materializeOne(filename, blobPath string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return duskerr.Wrap(duskerr.ErrIoFailure, "mkdir for "+filename, err)
	}
	in, err := os.Open(blobPath)
	if err != nil {
		return duskerr.Wrap(duskerr.ErrIoFailure, "open blob "+blobPath, err)
	}
	defer in.Close()

	out, err := os.Create(filename)
	if err != nil {
		return duskerr.Wrap(duskerr.ErrIoFailure, "create "+filename, err)
	}
	defer out.Close()

	buf := make([]byte, 1024*1024)
	for {
		n, readErr := in.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				return duskerr.Wrap(duskerr.ErrIoFailure, "write "+filename, writeErr)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return duskerr.Wrap(duskerr.ErrIoFailure, "read blob "+blobPath, readErr)
		}
	}
	return out.Sync()
}
