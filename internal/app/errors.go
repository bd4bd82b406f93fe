package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrAlreadyRunning indicates Run was called while the event loop is active.
	ErrAlreadyRunning = errors.New("application already running")

	// ErrNoDocument indicates an operation that needs an open document.
	ErrNoDocument = errors.New("no document open")

	// ErrUnsavedChanges indicates the document has edits that were not saved.
	ErrUnsavedChanges = errors.New("unsaved changes")

	// ErrReadOnly indicates an edit or save of a read-only document.
	ErrReadOnly = errors.New("document is read-only")
)

// OperationError describes a failed document operation.
type OperationError struct {
	Op      string // "open", "save", "reload", "recover", "script"
	Target  string // usually a file path
	Context string
	Err     error
}

// NewOperationError creates a new OperationError.
func NewOperationError(op, target string, err error) *OperationError {
	return &OperationError{
		Op:     op,
		Target: target,
		Err:    err,
	}
}

// WithContext adds context to the error.
// Safe to call on nil receiver - returns nil.
func (e *OperationError) WithContext(ctx string) *OperationError {
	if e == nil {
		return nil
	}
	e.Context = ctx
	return e
}

func (e *OperationError) Error() string {
	if e == nil {
		return ""
	}

	msg := e.Op
	if e.Target != "" {
		msg = fmt.Sprintf("%s %s", e.Op, e.Target)
	}
	if e.Context != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Context)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
