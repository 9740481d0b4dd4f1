// Package duskerr defines the error kinds shared across the backup engine so
// callers can distinguish failure categories with errors.Is instead of
// string-matching messages.
package duskerr

import "errors"

var (
	// ErrInvalidInput means a scan input was neither a file nor a directory,
	// or a manifest referenced an operation code that isn't add/modify/remove.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidPattern means an include/exclude/traverse regular expression
	// failed to compile.
	ErrInvalidPattern = errors.New("invalid pattern")

	// ErrCorruptManifest means a JSON manifest failed to parse, or an entry
	// referenced a blob that isn't present in any reachable snapshot.
	ErrCorruptManifest = errors.New("corrupt manifest")

	// ErrPendingMissing means commit-offsite was invoked with no .pending
	// file for the given backup name.
	ErrPendingMissing = errors.New("no pending snapshot")

	// ErrIoFailure wraps an underlying read/write/rename failure.
	ErrIoFailure = errors.New("io failure")

	// ErrArchiverFailure means the external archiver exited non-zero.
	ErrArchiverFailure = errors.New("archiver failure")
)

// Wrap annotates err with a message while preserving errors.Is(err, kind).
func Wrap(kind error, msg string, cause error) error {
	if cause == nil {
		return &wrapped{kind: kind, msg: msg}
	}
	return &wrapped{kind: kind, msg: msg, cause: cause}
}

type wrapped struct {
	kind  error
	msg   string
	cause error
}

func (w *wrapped) Error() string {
	if w.cause == nil {
		return w.msg
	}
	return w.msg + ": " + w.cause.Error()
}

func (w *wrapped) Is(target error) bool {
	return w.kind == target
}

func (w *wrapped) Unwrap() error {
	return w.cause
}

// Cause returns the wrapped underlying cause, if any, distinct from the kind.
func (w *wrapped) Cause() error {
	return w.cause
}
