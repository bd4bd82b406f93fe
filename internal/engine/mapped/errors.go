package mapped

import (
	"errors"
	"fmt"
)

// Errors returned by Open.
var (
	// ErrTooLarge indicates the file cannot be addressed by a single mapping
	// on this platform.
	ErrTooLarge = errors.New("file too large to map")

	// ErrNotRegular indicates the path is not a regular file.
	ErrNotRegular = errors.New("not a regular file")
)

// OpenError describes a failure to open or map a file.
// An empty file is never an OpenError.
type OpenError struct {
	Path string
	Op   string // "open", "stat" or "mmap"
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}
