package app

import (
	"errors"
	"io/fs"
	"testing"
)

func TestOperationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *OperationError
		expected string
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
		{
			name:     "op only",
			err:      &OperationError{Op: "save"},
			expected: "save",
		},
		{
			name:     "op and target",
			err:      &OperationError{Op: "open", Target: "/data/huge.log"},
			expected: "open /data/huge.log",
		},
		{
			name:     "op, target, and context",
			err:      &OperationError{Op: "open", Target: "/data/huge.log", Context: "mapping"},
			expected: "open /data/huge.log (mapping)",
		},
		{
			name:     "full error chain",
			err:      &OperationError{Op: "save", Target: "/data/huge.log", Context: "rename", Err: errors.New("disk full")},
			expected: "save /data/huge.log (rename): disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestOperationError_WithContext(t *testing.T) {
	err := NewOperationError("save", "/data/huge.log", nil).WithContext("disk full")
	if err.Context != "disk full" {
		t.Errorf("expected context 'disk full', got %q", err.Context)
	}

	var nilErr *OperationError
	if nilErr.WithContext("x") != nil {
		t.Error("expected nil from nil receiver")
	}
}

func TestOperationError_Unwrap(t *testing.T) {
	err := NewOperationError("open", "/missing", fs.ErrNotExist)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("expected errors.Is to find fs.ErrNotExist")
	}

	var opErr *OperationError
	if !errors.As(error(err), &opErr) || opErr.Op != "open" {
		t.Error("expected errors.As to find the OperationError")
	}
}
