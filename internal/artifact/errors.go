package artifact

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPath marks a target path without a usable file-name component.
	ErrInvalidPath = errors.New("invalid artifact path")

	// ErrBaselineUnavailable marks a baseline record that cannot be created or read.
	ErrBaselineUnavailable = errors.New("baseline unavailable")
)

// IOError is a filesystem failure tied to the path it happened on.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// BaselineError wraps a baseline store failure so it matches both
// ErrBaselineUnavailable and the underlying cause.
func BaselineError(op, path string, err error) error {
	return &IOError{Op: op, Path: path, Err: errors.Join(ErrBaselineUnavailable, err)}
}
