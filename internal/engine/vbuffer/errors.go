package vbuffer

import "errors"

// ErrInvalidState is returned by Restore for a malformed EditState.
var ErrInvalidState = errors.New("invalid edit state")

// ErrSourceTruncated is returned by WriteTo when the backing file became
// shorter than it was at open time.
var ErrSourceTruncated = errors.New("source file was truncated")
