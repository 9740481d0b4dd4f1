// Package archiver wraps an external 7z-compatible tool behind the
// black-box invocation contract of spec §6: multi-volume output, a
// file-list file, and an exit code treated as pass/fail. Grounded on the
// teacher's exec.Command / checkExternalTool usage (main.go, which shells
// out to ffprobe the same way), generalized into a configurable external
// tool runner instead of one hardcoded to ffprobe.
package archiver

import (
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"duskvault/duskerr"
)

const volumeSizeBytes = 250 * 1024 * 1024

// Options configures one archive invocation.
type Options struct {
	// Tool is the executable name or path, e.g. "7z" or "7zzs".
	Tool string
	// Password, when non-empty, requests encryption.
	Password string
	// Compress selects compression level 9 (true) or 0/store (false).
	Compress bool
}

// Archiver invokes an external 7z-compatible binary.
type Archiver struct {
	opts Options
}

func New(opts Options) *Archiver {
	if opts.Tool == "" {
		opts.Tool = "7z"
	}
	return &Archiver{opts: opts}
}

// Available reports whether the configured tool is on PATH.
func (a *Archiver) Available() bool {
	_, err := exec.LookPath(a.opts.Tool)
	return err == nil
}

// Archive packages every file under sourceDir into <workDir>/Backup.7z
// (split into Backup.7z.001, .002, ... when larger than the volume size),
// via a generated file-list file. The tool's exit code is propagated as
// duskerr.ErrArchiverFailure.
func (a *Archiver) Archive(sourceDir, workDir string) error {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return duskerr.Wrap(duskerr.ErrIoFailure, "mkdir "+workDir, err)
	}

	listPath := filepath.Join(workDir, "filelist.txt")
	if err := writeFileList(sourceDir, listPath); err != nil {
		return duskerr.Wrap(duskerr.ErrIoFailure, "writing archiver file list", err)
	}

	archivePath := filepath.Join(workDir, "Backup.7z")
	args := []string{"a", archivePath,
		"-v" + strconv.Itoa(volumeSizeBytes) + "b",
		"-mx=" + compressionLevel(a.opts.Compress),
		"@" + listPath,
	}
	if a.opts.Password != "" {
		args = append(args, "-p"+a.opts.Password, "-mhe=on")
	}

	cmd := exec.Command(a.opts.Tool, args...)
	cmd.Dir = sourceDir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return duskerr.Wrap(duskerr.ErrArchiverFailure, a.opts.Tool+" failed: "+string(output), err)
	}
	return nil
}

// Extract unpacks archivePath (the first volume of a possibly split
// archive) into destDir.
func (a *Archiver) Extract(archivePath, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return duskerr.Wrap(duskerr.ErrIoFailure, "mkdir "+destDir, err)
	}
	cmd := exec.Command(a.opts.Tool, "x", archivePath, "-o"+destDir, "-y")
	if a.opts.Password != "" {
		cmd.Args = append(cmd.Args, "-p"+a.opts.Password)
	}
	output, err := cmd.CombinedOutput()
	if err != nil {
		return duskerr.Wrap(duskerr.ErrArchiverFailure, a.opts.Tool+" extract failed: "+string(output), err)
	}
	return nil
}

func compressionLevel(compress bool) string {
	if compress {
		return "9"
	}
	return "0"
}

func writeFileList(root, listPath string) error {
	f, err := os.Create(listPath)
	if err != nil {
		return err
	}
	defer f.Close()

	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		_, err = f.WriteString(rel + "\n")
		return err
	})
}

// Volumes returns the sorted list of volume files an archive run produced
// at workDir: either a single Backup.7z, or a Backup.7z.NNN split series.
func Volumes(workDir string) ([]string, error) {
	entries, err := os.ReadDir(workDir)
	if err != nil {
		return nil, err
	}
	var volumes []string
	for _, e := range entries {
		name := e.Name()
		if name == "Backup.7z" || isVolumePart(name) {
			volumes = append(volumes, filepath.Join(workDir, name))
		}
	}
	return volumes, nil
}

func isVolumePart(name string) bool {
	const prefix = "Backup.7z."
	if len(name) <= len(prefix) || name[:len(prefix)] != prefix {
		return false
	}
	suffix := name[len(prefix):]
	if len(suffix) != 3 {
		return false
	}
	for _, c := range suffix {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
