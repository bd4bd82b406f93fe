package script

import (
	"errors"
	"fmt"
)

// ErrTimeout is returned when a script runs past its time limit.
var ErrTimeout = errors.New("script timed out")

// Error reports a failure inside a named script.
type Error struct {
	Name string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("script %s: %v", e.Name, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
