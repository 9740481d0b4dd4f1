package namemap

import (
	"path/filepath"
	"testing"
)

func TestIdentityRoundTrip(t *testing.T) {
	m := Identity{}
	for _, p := range []string{"/a/b/c.txt", "/x.bin"} {
		dest := m.ToDest(p)
		back, err := m.FromDest(dest)
		if err != nil {
			t.Fatalf("FromDest: %v", err)
		}
		if back != p {
			t.Errorf("round trip failed: %s -> %s -> %s", p, dest, back)
		}
	}
}

func TestRebaseSingleRootRoundTrip(t *testing.T) {
	sources := []string{
		filepath.Join("/", "home", "user", "docs", "a.txt"),
		filepath.Join("/", "home", "user", "docs", "sub", "b.txt"),
	}
	dest := filepath.Join("/", "backup")
	m := NewRebase(dest, sources)

	for _, p := range sources {
		d := m.ToDest(p)
		back, err := m.FromDest(d)
		if err != nil {
			t.Fatalf("FromDest(%s): %v", d, err)
		}
		if back != p {
			t.Errorf("round trip failed: %s -> %s -> %s", p, d, back)
		}
	}
}

func TestRebaseSingleFileUsesParentDirAsCommonPath(t *testing.T) {
	// Per spec §9's documented open question: a single-file source set
	// uses dirname(file) as the common path, so the destination keeps
	// only the basename, not a synthetic parent directory.
	source := filepath.Join("/", "home", "user", "docs", "a.txt")
	dest := filepath.Join("/", "backup")
	m := NewRebase(dest, []string{source})

	got := m.ToDest(source)
	want := filepath.Join(dest, "a.txt")
	if got != want {
		t.Errorf("ToDest = %s, want %s", got, want)
	}

	back, err := m.FromDest(got)
	if err != nil {
		t.Fatalf("FromDest: %v", err)
	}
	if back != source {
		t.Errorf("round trip failed: %s -> %s -> %s", source, got, back)
	}
}

func TestRebaseMultiDriveRoundTrip(t *testing.T) {
	sources := []string{`C:\Users\me\a.txt`, `D:\data\b.txt`}
	dest := filepath.Join("/", "backup")
	m := NewRebase(dest, sources)

	for _, p := range sources {
		d := m.ToDest(p)
		back, err := m.FromDest(d)
		if err != nil {
			t.Fatalf("FromDest(%s): %v", d, err)
		}
		if back != p {
			t.Errorf("round trip failed: %s -> %s -> %s", p, d, back)
		}
	}
}
