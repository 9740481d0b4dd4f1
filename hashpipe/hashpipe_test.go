package hashpipe

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"duskvault/fingerprint"
)

func writeFile(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestSSDAndRotationalAgree(t *testing.T) {
	dir := t.TempDir()
	small := writeFile(t, dir, "small.bin", 10)
	large := writeFile(t, dir, "large.bin", fingerprint.DefaultBlockSize*6)

	ssd := New(Options{IsSSD: true})
	rot := New(Options{IsSSD: false})

	ssdResults := ssd.Run(context.Background(), []string{small, large})
	rotResults := rot.Run(context.Background(), []string{small, large})

	for i, path := range []string{small, large} {
		if ssdResults[i].Err != nil {
			t.Fatalf("ssd error for %s: %v", path, ssdResults[i].Err)
		}
		if rotResults[i].Err != nil {
			t.Fatalf("rotational error for %s: %v", path, rotResults[i].Err)
		}
		if ssdResults[i].Info.Hash != rotResults[i].Info.Hash {
			t.Fatalf("hash mismatch for %s: ssd=%s rot=%s", path, ssdResults[i].Info.Hash, rotResults[i].Info.Hash)
		}

		data, _ := os.ReadFile(path)
		want := fmt.Sprintf("%x", sha256.Sum256(data))
		if ssdResults[i].Info.Hash != want {
			t.Fatalf("hash wrong for %s: got %s want %s", path, ssdResults[i].Info.Hash, want)
		}
	}
}

func TestRunPreservesOrder(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "a.bin", 5),
		writeFile(t, dir, "b.bin", 5),
		writeFile(t, dir, "c.bin", 5),
	}

	p := New(Options{IsSSD: true, SSDConcurrency: 4})
	results := p.Run(context.Background(), paths)
	for i, r := range results {
		if r.Path != paths[i] {
			t.Fatalf("order not preserved: got %s at index %d, want %s", r.Path, i, paths[i])
		}
	}
}

func TestSimpleCompareSkipsHashing(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.bin", 5)

	p := New(Options{IsSSD: false, SimpleCompare: true})
	results := p.Run(context.Background(), []string{path})
	if results[0].Err != nil {
		t.Fatalf("unexpected error: %v", results[0].Err)
	}
	if results[0].Info.Hash != "" {
		t.Fatalf("expected no hash in simple mode, got %s", results[0].Info.Hash)
	}
}
