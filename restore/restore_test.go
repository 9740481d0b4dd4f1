package restore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"duskvault/archiver"
)

func writeManifest(t *testing.T, dir string, records []manifestRecord) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(records)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "data.json"), data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeBlob(t *testing.T, dir, hash, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, hash), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFoldAddModifyRemove(t *testing.T) {
	root := t.TempDir()

	snap1 := filepath.Join(root, "0001")
	writeManifest(t, snap1, []manifestRecord{
		{Filename: "a", Hash: "ha", Operation: "add"},
		{Filename: "b", Hash: "hb", Operation: "add"},
	})
	writeBlob(t, snap1, "ha", "a-v1")
	writeBlob(t, snap1, "hb", "b-v1")

	snap2 := filepath.Join(root, "0002")
	writeManifest(t, snap2, []manifestRecord{
		{Filename: "a", Hash: "ha2", Operation: "modify"},
		{Filename: "b", Operation: "remove"},
	})
	writeBlob(t, snap2, "ha2", "a-v2")

	r := New(archiver.New(archiver.Options{}))
	flat, errs := r.Fold(root)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(flat) != 1 {
		t.Fatalf("expected exactly 1 surviving filename, got %v", flat)
	}
	blobPath, ok := flat["a"]
	if !ok {
		t.Fatalf("expected 'a' to survive, got %v", flat)
	}
	data, err := os.ReadFile(blobPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "a-v2" {
		t.Fatalf("expected a's latest content, got %q", data)
	}
}

func TestFoldResolvesBlobFromEarlierSnapshot(t *testing.T) {
	root := t.TempDir()

	snap1 := filepath.Join(root, "0001")
	writeManifest(t, snap1, []manifestRecord{
		{Filename: "a", Hash: "shared", Operation: "add"},
	})
	writeBlob(t, snap1, "shared", "same-content")

	snap2 := filepath.Join(root, "0002")
	writeManifest(t, snap2, []manifestRecord{
		{Filename: "b", Hash: "shared", Operation: "add"},
	})
	// snap2 writes no blob for "shared": it was already known to the
	// historical manifest when this snapshot was written, so
	// snapshot.WriteSnapshot dedups it away.

	r := New(archiver.New(archiver.Options{}))
	flat, errs := r.Fold(root)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(flat) != 2 {
		t.Fatalf("expected both filenames to survive, got %v", flat)
	}
	for _, name := range []string{"a", "b"} {
		blobPath, ok := flat[name]
		if !ok {
			t.Fatalf("expected %q to survive, got %v", name, flat)
		}
		data, err := os.ReadFile(blobPath)
		if err != nil {
			t.Fatalf("%q: blob missing, should have resolved to snap1's copy: %v", name, err)
		}
		if string(data) != "same-content" {
			t.Fatalf("%q: expected deduped content, got %q", name, data)
		}
	}
}

func TestFoldSkipsSnapshotWithMissingManifest(t *testing.T) {
	root := t.TempDir()
	empty := filepath.Join(root, "0001")
	if err := os.MkdirAll(empty, 0o755); err != nil {
		t.Fatal(err)
	}

	valid := filepath.Join(root, "0002")
	writeManifest(t, valid, []manifestRecord{{Filename: "a", Hash: "ha", Operation: "add"}})
	writeBlob(t, valid, "ha", "content")

	r := New(archiver.New(archiver.Options{}))
	flat, errs := r.Fold(root)
	if len(errs) != 0 {
		t.Fatalf("missing manifest should be a warning, not a recorded error: %v", errs)
	}
	if len(flat) != 1 {
		t.Fatalf("expected the valid snapshot to still be folded, got %v", flat)
	}
}

func TestFoldRecordsErrorOnDuplicateAdd(t *testing.T) {
	root := t.TempDir()
	snap := filepath.Join(root, "0001")
	writeManifest(t, snap, []manifestRecord{
		{Filename: "a", Hash: "ha", Operation: "add"},
		{Filename: "a", Hash: "ha2", Operation: "add"},
	})
	writeBlob(t, snap, "ha", "x")
	writeBlob(t, snap, "ha2", "y")

	r := New(archiver.New(archiver.Options{}))
	_, errs := r.Fold(root)
	if len(errs) != 1 {
		t.Fatalf("expected 1 recorded error for duplicate add, got %v", errs)
	}
}

func TestMaterializeWritesFiles(t *testing.T) {
	blobDir := t.TempDir()
	writeBlob(t, blobDir, "ha", "hello")

	destDir := t.TempDir()
	flat := map[string]string{
		filepath.Join(destDir, "a.txt"): filepath.Join(blobDir, "ha"),
	}

	results := Materialize(context.Background(), flat, 1, nil)
	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("materialize error: %v", r.Err)
		}
	}

	data, err := os.ReadFile(filepath.Join(destDir, "a.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Fatalf("content mismatch: %q", data)
	}
}

func TestSubstituteRewritesPrefix(t *testing.T) {
	flat := map[string]string{
		"/old/root/a.txt": "/blobs/ha",
	}
	out := Substitute(flat, map[string]string{"/old/root": "/new/root"})
	if _, ok := out["/new/root/a.txt"]; !ok {
		t.Fatalf("expected rewritten key, got %v", out)
	}
}
