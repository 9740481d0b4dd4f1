//go:build !windows

package diskspace

import "syscall"

// Free returns available disk space in bytes for the filesystem containing
// path.
func Free(path string) (uint64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}
