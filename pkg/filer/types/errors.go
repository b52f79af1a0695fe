package types

import (
	"errors"
	"fmt"
	"io/fs"
)

// Inventory errors.
var (
	// ErrNotADirectory is returned when a listing or destination path is not a directory.
	ErrNotADirectory = errors.New("not a directory")

	// ErrAccessDenied is returned when a directory cannot be read.
	ErrAccessDenied = errors.New("access denied")
)

// Validation errors reported by the mutation engine before anything is touched.
var (
	ErrNothingSelected   = errors.New("nothing selected")
	ErrMultipleSelected  = errors.New("more than one entry selected")
	ErrEmptyName         = errors.New("name is empty")
	ErrNoChange          = errors.New("name unchanged")
	ErrInvalidName       = errors.New("name must not contain a path separator")
	ErrSourceMissing     = errors.New("source no longer exists")
	ErrNotAFile          = errors.New("not a regular file")
	ErrDestinationExists = errors.New("destination already exists")
	ErrEmptyClipboard    = errors.New("clipboard is empty")
)

// ErrUnknown marks an unexpected OS-level failure during an attempted mutation.
var ErrUnknown = errors.New("unexpected filesystem error")

// OpError records an OS-level failure of a filesystem operation.
// It matches both ErrUnknown and the underlying error with errors.Is,
// so the original message stays available for diagnostics.
type OpError struct {
	// Op is the operation that failed ("delete", "rename", ...).
	Op string

	// Path is the path the operation was acting on.
	Path string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *OpError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns ErrUnknown and the underlying error.
func (e *OpError) Unwrap() []error {
	return []error{ErrUnknown, e.Err}
}

// Unknown wraps err as an OpError. A nil err yields nil.
func Unknown(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Path: path, Err: err}
}

// ClassifyListError maps an error from opening or reading a directory onto
// the inventory taxonomy.
func ClassifyListError(path string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %s", ErrAccessDenied, path)
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrNotADirectory, path)
	default:
		return Unknown("list", path, err)
	}
}
