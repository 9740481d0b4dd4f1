// Package namemap implements the deterministic source<->destination name
// bijections used by the Planner: Identity (offsite snapshots, which key
// everything by source path) and Rebase (mirror, which relocates source
// trees under a destination root).
package namemap

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// driveLetterRE matches a Windows-style drive prefix ("C:") at the start of
// a path. Detected textually rather than via filepath.VolumeName so that
// multi-drive source sets are recognized the same way regardless of the
// host OS the engine happens to run on.
var driveLetterRE = regexp.MustCompile(`^[A-Za-z]:`)

// Mapper translates between source and destination paths.
type Mapper interface {
	ToDest(sourcePath string) string
	FromDest(destPath string) (string, error)
}

// Identity is used when there is no local destination directory to
// relocate into (e.g. offsite snapshots): both directions are the identity
// function.
type Identity struct{}

func (Identity) ToDest(p string) string          { return p }
func (Identity) FromDest(p string) (string, error) { return p, nil }

// Rebase relocates source paths under destinationRoot, choosing between a
// multi-drive layout (destinationRoot/<drive>/<rest>) and a single-root
// layout (destinationRoot/<path relative to the sources' common ancestor>)
// based on whether the sources span more than one volume.
type Rebase struct {
	destinationRoot string
	multiDrive      bool
	commonPath      string // only set for single-root
}

// NewRebase inspects sourcePaths to decide multi-drive vs single-root
// layout and builds the corresponding Mapper.
//
// Per spec §9's documented open question: when sourcePaths has exactly one
// entry, the "common path" is that file's directory, not the file itself —
// so the destination keeps the file's basename but not any synthetic parent
// directory. This differs from the multi-file case and is intentional for
// compatibility.
func NewRebase(destinationRoot string, sourcePaths []string) *Rebase {
	r := &Rebase{destinationRoot: destinationRoot}

	if isMultiDrive(sourcePaths) {
		r.multiDrive = true
		return r
	}

	var common string
	if len(sourcePaths) == 1 {
		common = filepath.Dir(sourcePaths[0])
	} else {
		common = commonPath(sourcePaths)
	}
	r.commonPath = addTrailingSep(common)
	return r
}

func isMultiDrive(paths []string) bool {
	var drive string
	seen := false
	for _, p := range paths {
		d := volumePrefix(p)
		if !seen {
			drive = d
			seen = true
			continue
		}
		if d != drive {
			return true
		}
	}
	return false
}

// volumePrefix returns the Windows-style drive prefix of p (e.g. "C:"), or
// "" if p has none. Detected textually (see driveLetterRE) rather than via
// filepath.VolumeName, which only recognizes drive letters when built for
// windows/GOOS.
func volumePrefix(p string) string {
	return driveLetterRE.FindString(p)
}

func (r *Rebase) ToDest(source string) string {
	if r.multiDrive {
		drive := volumePrefix(source)
		rest := strings.TrimPrefix(source, drive)
		escaped := drive[:1] + "_"
		return r.destinationRoot + "/" + escaped + rest
	}

	rest := strings.TrimPrefix(source, r.commonPath)
	return filepath.Join(r.destinationRoot, rest)
}

func (r *Rebase) FromDest(dest string) (string, error) {
	if !strings.HasPrefix(dest, r.destinationRoot) {
		return "", fmt.Errorf("namemap: %q is not under destination root %q", dest, r.destinationRoot)
	}

	if r.multiDrive {
		prefix := r.destinationRoot + "/"
		if !strings.HasPrefix(dest, prefix) {
			return "", fmt.Errorf("namemap: %q is not under destination root %q", dest, r.destinationRoot)
		}
		tail := strings.TrimPrefix(dest, prefix)
		if len(tail) < 2 {
			return "", fmt.Errorf("namemap: %q has no drive component", dest)
		}
		driveLetter := tail[:1]
		rest := tail[2:]
		return driveLetter + ":" + rest, nil
	}

	rest := strings.TrimPrefix(dest, r.destinationRoot)
	rest = removeInitialSep(rest)
	return filepath.Join(r.commonPath, rest), nil
}

func removeInitialSep(p string) string {
	return strings.TrimPrefix(p, string(filepath.Separator))
}

func addTrailingSep(p string) string {
	if strings.HasSuffix(p, string(filepath.Separator)) {
		return p
	}
	return p + string(filepath.Separator)
}

// commonPath returns the longest path prefix, on path-separator boundaries,
// shared by all of paths. paths must be non-empty.
func commonPath(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	split := make([][]string, len(paths))
	for i, p := range paths {
		split[i] = strings.Split(filepath.Clean(p), string(filepath.Separator))
	}

	common := split[0]
	for _, parts := range split[1:] {
		common = commonPrefix(common, parts)
	}
	return strings.Join(common, string(filepath.Separator))
}

func commonPrefix(a, b []string) []string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}
