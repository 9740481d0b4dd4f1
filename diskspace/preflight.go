package diskspace

import (
	"fmt"

	"duskvault/duskerr"
)

// Preflight returns an IoFailure error if dir's filesystem has less than
// neededBytes available, consulted before the mirror executor starts
// copying and before snapshot.Store starts writing blobs.
func Preflight(dir string, neededBytes int64) error {
	free, err := Free(dir)
	if err != nil {
		return duskerr.Wrap(duskerr.ErrIoFailure, "checking free space for "+dir, err)
	}
	if neededBytes > 0 && free < uint64(neededBytes) {
		return duskerr.Wrap(duskerr.ErrIoFailure,
			fmt.Sprintf("insufficient disk space at %s: need %d bytes, have %d", dir, neededBytes, free), nil)
	}
	return nil
}
