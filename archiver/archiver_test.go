package archiver

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// fakeTool writes the given shell script as an executable standing in for
// 7z. Good enough to exercise Archiver's argument wiring and exit code
// propagation without a real 7z binary.
func fakeTool(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tool script is a POSIX shell script")
	}
	path := filepath.Join(t.TempDir(), "fake7z")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestArchiveInvokesToolAndCreatesListFile(t *testing.T) {
	// Creates an empty file at its second argument (the archive path in
	// "a" mode) and exits 0.
	script := "#!/bin/sh\nfor a in \"$@\"; do :; done\ntouch \"$2\"\nexit 0\n"
	tool := fakeTool(t, script)

	srcDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(srcDir, "a.bin"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	workDir := filepath.Join(t.TempDir(), "work")

	a := New(Options{Tool: tool})
	if err := a.Archive(srcDir, workDir); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	if _, err := os.Stat(filepath.Join(workDir, "filelist.txt")); err != nil {
		t.Fatalf("expected file list to be written: %v", err)
	}
}

func TestArchivePropagatesNonZeroExit(t *testing.T) {
	tool := fakeTool(t, "#!/bin/sh\nexit 1\n")

	srcDir := t.TempDir()
	workDir := filepath.Join(t.TempDir(), "work")

	a := New(Options{Tool: tool})
	err := a.Archive(srcDir, workDir)
	if err == nil {
		t.Fatal("expected error on non-zero exit")
	}
}

func TestVolumesFindsSplitSeries(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"Backup.7z.001", "Backup.7z.002", "filelist.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	volumes, err := Volumes(dir)
	if err != nil {
		t.Fatalf("Volumes: %v", err)
	}
	if len(volumes) != 2 {
		t.Fatalf("expected 2 volumes, got %v", volumes)
	}
}
