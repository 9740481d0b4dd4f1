// Package cache maintains a derived, rebuildable SQLite index of blob
// hashes seen across a backup name's snapshot history, mirroring the
// teacher's BatchInserter / loadExistingHashes pattern in database.go. It
// is never the source of truth — the offsite command rebuilds it from the
// committed historical manifest (via snapshot.HashesOf) on every run — only
// a speed-up for "have we ever seen this hash" lookups.
package cache

import (
	"context"
	"database/sql"
	"log"
	"sync"

	_ "modernc.org/sqlite"
)

const flushBatchSize = 1000

// Index wraps a SQLite database mapping hash -> size for one backup name.
type Index struct {
	db    *sql.DB
	mu    sync.Mutex
	batch []entry
	seen  map[string]bool
}

type entry struct {
	hash string
	size int64
}

// Open creates or opens the index database at path, creating its schema if
// needed.
func Open(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `
	CREATE TABLE IF NOT EXISTS hashes (
		hash TEXT PRIMARY KEY,
		size INTEGER
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	idx := &Index{db: db, seen: make(map[string]bool)}
	if err := idx.loadSeen(); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

func (idx *Index) loadSeen() error {
	rows, err := idx.db.Query("SELECT hash FROM hashes")
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			log.Printf("cache: error scanning hash row: %v", err)
			continue
		}
		idx.seen[h] = true
	}
	return rows.Err()
}

// Has reports whether hash has ever been recorded in this index, without
// touching the database.
func (idx *Index) Has(hash string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.seen[hash]
}

// Record marks hash (and its blob size) as seen, batching the write.
func (idx *Index) Record(hash string, size int64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.seen[hash] {
		return
	}
	idx.seen[hash] = true
	idx.batch = append(idx.batch, entry{hash: hash, size: size})
	if len(idx.batch) >= flushBatchSize {
		idx.flushLocked(context.Background())
	}
}

// Flush writes any batched records to disk.
func (idx *Index) Flush() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.flushLocked(context.Background())
}

func (idx *Index) flushLocked(ctx context.Context) {
	if len(idx.batch) == 0 {
		return
	}
	tx, err := idx.db.Begin()
	if err != nil {
		log.Printf("cache: failed to begin transaction: %v", err)
		return
	}
	stmt, err := tx.Prepare("INSERT OR IGNORE INTO hashes (hash, size) VALUES (?, ?)")
	if err != nil {
		log.Printf("cache: failed to prepare statement: %v", err)
		tx.Rollback()
		return
	}
	defer stmt.Close()

	for i, e := range idx.batch {
		if i%100 == 0 && ctx.Err() != nil {
			log.Printf("cache: context cancelled during flush at record %d", i)
			tx.Rollback()
			return
		}
		if _, err := stmt.Exec(e.hash, e.size); err != nil {
			log.Printf("cache: failed to insert hash %s: %v", e.hash, err)
		}
	}

	if err := tx.Commit(); err != nil {
		log.Printf("cache: failed to commit: %v", err)
		tx.Rollback()
		return
	}
	idx.batch = idx.batch[:0]
}

// Rebuild replaces the index contents with exactly the given hash->size
// pairs. Used when the index is missing, corrupt, or known stale relative
// to the historical manifest.
func (idx *Index) Rebuild(pairs map[string]int64) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, err := idx.db.Exec("DELETE FROM hashes"); err != nil {
		return err
	}
	idx.seen = make(map[string]bool, len(pairs))
	idx.batch = idx.batch[:0]
	for h, sz := range pairs {
		idx.seen[h] = true
		idx.batch = append(idx.batch, entry{hash: h, size: sz})
	}
	idx.flushLocked(context.Background())
	return nil
}

// Close flushes pending writes and closes the underlying database.
func (idx *Index) Close() error {
	idx.Flush()
	return idx.db.Close()
}
