package mirror

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"duskvault/fingerprint"
	"duskvault/namemap"
	"duskvault/plan"
	"duskvault/taskpool"
)

func TestMirrorAdd(t *testing.T) {
	srcDir, destDir := t.TempDir(), t.TempDir()
	srcPath := filepath.Join(srcDir, "x.txt")
	mtime := time.Unix(1000, 0)
	if err := os.WriteFile(srcPath, []byte("hi\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(srcPath, mtime, mtime); err != nil {
		t.Fatal(err)
	}

	destPath := filepath.Join(destDir, "x.txt")
	p := &plan.Plan{Entries: []plan.Entry{
		{Kind: plan.Add, SourcePath: srcPath, DestPath: destPath,
			SourceInfo: fingerprint.Info{Path: srcPath, Size: 3, LastModified: 1000.0}},
	}}

	exec := New(Options{})
	results := exec.Execute(context.Background(), p)
	if results[0].Err != nil {
		t.Fatalf("unexpected error: %v", results[0].Err)
	}

	data, err := os.ReadFile(destPath)
	if err != nil {
		t.Fatalf("dest file not written: %v", err)
	}
	if string(data) != "hi\n" {
		t.Fatalf("content mismatch: %q", data)
	}
	info, _ := os.Stat(destPath)
	if info.ModTime().Unix() != 1000 {
		t.Fatalf("mtime not preserved: got %v", info.ModTime())
	}
}

func TestMirrorModify(t *testing.T) {
	srcDir, destDir := t.TempDir(), t.TempDir()
	srcPath := filepath.Join(srcDir, "x.txt")
	destPath := filepath.Join(destDir, "x.txt")

	if err := os.WriteFile(destPath, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(srcPath, []byte("new!"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := &plan.Plan{Entries: []plan.Entry{
		{Kind: plan.Modify, SourcePath: srcPath, DestPath: destPath},
	}}

	exec := New(Options{})
	results := exec.Execute(context.Background(), p)
	if results[0].Err != nil {
		t.Fatalf("unexpected error: %v", results[0].Err)
	}

	data, err := os.ReadFile(destPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "new!" {
		t.Fatalf("content not updated: %q", data)
	}
}

func TestMirrorRemove(t *testing.T) {
	destDir := t.TempDir()
	yPath := filepath.Join(destDir, "y.txt")
	if err := os.WriteFile(yPath, []byte("bye"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := &plan.Plan{Entries: []plan.Entry{
		{Kind: plan.Remove, DestPath: yPath},
	}}

	exec := New(Options{})
	results := exec.Execute(context.Background(), p)
	if results[0].Err != nil {
		t.Fatalf("unexpected error: %v", results[0].Err)
	}
	if _, err := os.Stat(yPath); !os.IsNotExist(err) {
		t.Fatalf("expected %s to be removed", yPath)
	}
}

func TestMirrorEndToEndWithRebase(t *testing.T) {
	srcDir, destDir := t.TempDir(), t.TempDir()
	xPath := filepath.Join(srcDir, "x.txt")
	if err := os.WriteFile(xPath, []byte("hi\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	mapper := namemap.NewRebase(destDir, []string{xPath})
	source := fingerprint.Set{xPath: {Path: xPath, Size: 3, LastModified: 1000.0}}
	dest := fingerprint.Set{}

	diffPlan := plan.Diff(source, dest, mapper, true)
	exec := New(Options{})
	results := exec.Execute(context.Background(), diffPlan)
	if taskpool.WorstResult(toTaskPoolResults(results)) != 0 {
		t.Fatalf("execution failed: %+v", results)
	}

	wantDest := filepath.Join(destDir, "x.txt")
	if _, err := os.Stat(wantDest); err != nil {
		t.Fatalf("expected %s to exist: %v", wantDest, err)
	}
}

func toTaskPoolResults(results []TaskResult) []taskpool.Result {
	out := make([]taskpool.Result, len(results))
	for i, r := range results {
		out[i] = taskpool.Result{Err: r.Err}
	}
	return out
}
