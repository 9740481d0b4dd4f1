// Package snapshot owns the offsite output layout and the per-backup-name
// historical manifest, per spec §4.7: a two-phase pending/commit protocol
// for the historical FingerprintSet, and a content-addressed blob layout
// for each snapshot's data.json.
package snapshot

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"

	"duskvault/duskerr"
	"duskvault/fingerprint"
	"duskvault/plan"
)

// historicalRecord is the on-disk shape of one historical manifest entry,
// per spec §6.
type historicalRecord struct {
	Name         string   `json:"name"`
	Size         int64    `json:"size"`
	LastModified float64  `json:"last_modified"`
	Hash         *string  `json:"hash"`
}

// ManifestEntry is one record in a snapshot's data.json, per spec §3/§6.
type ManifestEntry struct {
	Filename  string `json:"filename"`
	Hash      string `json:"hash"`
	Operation string `json:"operation"`
}

// HashIndex is the subset of cache.Index that the dedup path needs; kept
// as an interface so Store doesn't import package cache directly and
// callers can rebuild/wire the concrete cache themselves.
type HashIndex interface {
	Has(hash string) bool
	Record(hash string, size int64)
}

// Store owns the historical manifest for one backup name, rooted at
// dataDir (a well-known per-user data directory in production use).
type Store struct {
	dataDir    string
	backupName string
}

func Open(dataDir, backupName string) *Store {
	return &Store{dataDir: dataDir, backupName: backupName}
}

func (s *Store) livePath() string {
	return filepath.Join(s.dataDir, s.backupName+".backup")
}

func (s *Store) pendingPath() string {
	return s.livePath() + ".pending"
}

// LoadHistorical reads the committed FingerprintSet. A missing file is an
// empty set (first run). A corrupt file is downgraded to a warning and
// also treated as empty, per spec §7.
func (s *Store) LoadHistorical() fingerprint.Set {
	return loadManifestFile(s.livePath())
}

func loadManifestFile(path string) fingerprint.Set {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fingerprint.Set{}
	}
	if err != nil {
		log.Printf("WARNING: could not read manifest %s, treating as empty: %v", path, err)
		return fingerprint.Set{}
	}

	var records []historicalRecord
	if err := json.Unmarshal(data, &records); err != nil {
		log.Printf("WARNING: manifest %s is corrupt, treating as empty: %v", path, err)
		return fingerprint.Set{}
	}

	set := make(fingerprint.Set, len(records))
	for _, r := range records {
		info := fingerprint.Info{Path: r.Name, Size: r.Size, LastModified: r.LastModified}
		if r.Hash != nil {
			info.Hash = *r.Hash
		}
		set[r.Name] = info
	}
	return set
}

// WritePending serializes set to the .pending sibling of the live manifest.
func (s *Store) WritePending(set fingerprint.Set) error {
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return duskerr.Wrap(duskerr.ErrIoFailure, "mkdir "+s.dataDir, err)
	}
	records := toHistoricalRecords(set)
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return duskerr.Wrap(duskerr.ErrIoFailure, "marshal pending manifest", err)
	}
	if err := os.WriteFile(s.pendingPath(), data, 0o644); err != nil {
		return duskerr.Wrap(duskerr.ErrIoFailure, "write "+s.pendingPath(), err)
	}
	return nil
}

func toHistoricalRecords(set fingerprint.Set) []historicalRecord {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)

	records := make([]historicalRecord, 0, len(set))
	for _, name := range names {
		info := set[name]
		var hash *string
		if info.Hash != "" {
			h := info.Hash
			hash = &h
		}
		records = append(records, historicalRecord{
			Name: info.Path, Size: info.Size, LastModified: info.LastModified, Hash: hash,
		})
	}
	return records
}

// Commit promotes the pending manifest to live: delete the live file if
// present, rename .pending over it, and optionally copy the result to an
// archival suffix. Failure to find a pending file is ErrPendingMissing.
func (s *Store) Commit(archiveSuffix string) error {
	pending := s.pendingPath()
	if _, err := os.Stat(pending); os.IsNotExist(err) {
		return duskerr.Wrap(duskerr.ErrPendingMissing, "no pending snapshot for "+s.backupName, nil)
	}

	live := s.livePath()
	if err := os.Remove(live); err != nil && !os.IsNotExist(err) {
		return duskerr.Wrap(duskerr.ErrIoFailure, "remove live manifest "+live, err)
	}
	if err := os.Rename(pending, live); err != nil {
		return duskerr.Wrap(duskerr.ErrIoFailure, "commit pending manifest", err)
	}

	if archiveSuffix != "" {
		if err := copyFile(live, live+"."+archiveSuffix); err != nil {
			log.Printf("WARNING: could not write archival manifest copy: %v", err)
		}
	}
	return nil
}

// WriteSnapshot materializes a plan into outputDir: data.json plus any
// blobs not already known to idx, per spec §4.7's dedup rule. outputDir is
// fully emptied first. Returns the manifest entries written.
func WriteSnapshot(outputDir string, p *plan.Plan, idx HashIndex) ([]ManifestEntry, error) {
	if err := os.RemoveAll(outputDir); err != nil {
		return nil, duskerr.Wrap(duskerr.ErrIoFailure, "clear output dir "+outputDir, err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, duskerr.Wrap(duskerr.ErrIoFailure, "create output dir "+outputDir, err)
	}

	entries := make([]ManifestEntry, 0, len(p.Entries))
	for _, e := range p.Entries {
		switch e.Kind {
		case plan.Add, plan.Modify:
			hash := e.SourceInfo.Hash
			op := "add"
			if e.Kind == plan.Modify {
				op = "modify"
			}
			entries = append(entries, ManifestEntry{Filename: e.SourcePath, Hash: hash, Operation: op})

			if !idx.Has(hash) {
				blobPath := filepath.Join(outputDir, hash)
				if err := copyFile(e.SourcePath, blobPath); err != nil {
					return nil, duskerr.Wrap(duskerr.ErrIoFailure, "write blob for "+e.SourcePath, err)
				}
				idx.Record(hash, e.SourceInfo.Size)
			}
		case plan.Remove:
			entries = append(entries, ManifestEntry{Filename: e.SourcePath, Operation: "remove"})
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, duskerr.Wrap(duskerr.ErrIoFailure, "marshal data.json", err)
	}
	if err := os.WriteFile(filepath.Join(outputDir, "data.json"), data, 0o644); err != nil {
		return nil, duskerr.Wrap(duskerr.ErrIoFailure, "write data.json", err)
	}

	return entries, nil
}

// HashesOf returns hash -> size for every entry in set that has a hash,
// used to seed/rebuild a HashIndex from a loaded historical manifest.
func HashesOf(set fingerprint.Set) map[string]int64 {
	pairs := make(map[string]int64)
	for _, info := range set {
		if info.Hash != "" {
			pairs[info.Hash] = info.Size
		}
	}
	return pairs
}

func copyFile(src, dst string) error {
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

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
