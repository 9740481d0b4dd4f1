package cache

import (
	"path/filepath"
	"testing"
)

func TestRecordAndHas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idx.db")
	idx, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer idx.Close()

	if idx.Has("abc") {
		t.Fatal("expected unseen hash to report false")
	}
	idx.Record("abc", 123)
	if !idx.Has("abc") {
		t.Fatal("expected recorded hash to report true")
	}
}

func TestRecordPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idx.db")
	idx, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	idx.Record("deadbeef", 42)
	idx.Flush()
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if !reopened.Has("deadbeef") {
		t.Fatal("expected hash to persist across reopen")
	}
}

func TestRebuildReplacesContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idx.db")
	idx, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer idx.Close()

	idx.Record("stale", 1)
	if err := idx.Rebuild(map[string]int64{"fresh": 2}); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if idx.Has("stale") {
		t.Fatal("expected stale hash to be gone after rebuild")
	}
	if !idx.Has("fresh") {
		t.Fatal("expected fresh hash to be present after rebuild")
	}
}
