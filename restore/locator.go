package restore

import (
	"os"
	"path/filepath"

	"duskvault/archiver"
)

// Confidence ranks how directly a locator strategy can produce a usable
// data.json for a snapshot directory, adapted from the teacher's
// metadata.ExtractorRegistry chain-of-responsibility (try each strategy in
// order, prefer the highest-confidence success) repurposed from "best date
// for a photo" to "best source of a snapshot's manifest".
type Confidence int

const (
	ConfidenceNone Confidence = iota
	ConfidenceSingleArchive
	ConfidenceSplitArchive
	ConfidenceManifestPresent
)

// LocateResult reports where a snapshot's data.json was found (or
// extracted to).
type LocateResult struct {
	Confidence Confidence
	// ManifestPath is the data.json to parse once this result is applied.
	ManifestPath string
	Err          error
}

// locator is one strategy in the chain.
type locator interface {
	locate(snapshotDir string) LocateResult
}

// registry tries strategies in confidence order, extracting archives into
// a sibling temp directory and swapping it into place when needed, per
// spec §4.8 step 1.
type registry struct {
	strategies []locator
	archiver   *archiver.Archiver
}

func newRegistry(a *archiver.Archiver) *registry {
	return &registry{
		strategies: []locator{
			manifestPresent{},
			splitArchive{archiver: a},
			singleArchive{archiver: a},
		},
		archiver: a,
	}
}

// Locate returns the data.json path to parse for snapshotDir, trying each
// strategy and keeping the highest-confidence success.
func (r *registry) Locate(snapshotDir string) LocateResult {
	best := LocateResult{Confidence: ConfidenceNone}
	for _, s := range r.strategies {
		result := s.locate(snapshotDir)
		if result.Confidence > best.Confidence && result.Err == nil {
			best = result
		}
		if best.Confidence == ConfidenceManifestPresent {
			break
		}
	}
	return best
}

// manifestPresent is the highest-confidence strategy: data.json already
// sits in the snapshot directory.
type manifestPresent struct{}

func (manifestPresent) locate(dir string) LocateResult {
	path := filepath.Join(dir, "data.json")
	if _, err := os.Stat(path); err != nil {
		return LocateResult{Err: err}
	}
	return LocateResult{Confidence: ConfidenceManifestPresent, ManifestPath: path}
}

// splitArchive extracts a Backup.7z.001-style split volume set.
type splitArchive struct{ archiver *archiver.Archiver }

func (s splitArchive) locate(dir string) LocateResult {
	first := filepath.Join(dir, "Backup.7z.001")
	if _, err := os.Stat(first); err != nil {
		return LocateResult{Err: err}
	}
	return extractAndLocate(s.archiver, dir, first)
}

// singleArchive extracts a single-volume Backup.7z.
type singleArchive struct{ archiver *archiver.Archiver }

func (s singleArchive) locate(dir string) LocateResult {
	path := filepath.Join(dir, "Backup.7z")
	if _, err := os.Stat(path); err != nil {
		return LocateResult{Err: err}
	}
	return extractAndLocate(s.archiver, dir, path)
}

// extractAndLocate extracts archivePath into a sibling temp directory,
// then swaps it into place as dir's new contents, mirroring the
// remove-and-replace pattern snapshot.WriteSnapshot uses for packaging.
func extractAndLocate(a *archiver.Archiver, dir, archivePath string) LocateResult {
	tmp := dir + ".extracting"
	defer os.RemoveAll(tmp)

	if err := a.Extract(archivePath, tmp); err != nil {
		return LocateResult{Err: err}
	}
	if err := os.RemoveAll(dir); err != nil {
		return LocateResult{Err: err}
	}
	if err := os.Rename(tmp, dir); err != nil {
		return LocateResult{Err: err}
	}

	manifest := filepath.Join(dir, "data.json")
	if _, err := os.Stat(manifest); err != nil {
		return LocateResult{Err: err}
	}

	confidence := ConfidenceSingleArchive
	if filepath.Base(archivePath) != "Backup.7z" {
		confidence = ConfidenceSplitArchive
	}
	return LocateResult{Confidence: confidence, ManifestPath: manifest}
}
