package loom

import (
	"errors"
	"fmt"
)

// ErrUninitialized reports a Manager.Get that completed initialization
// without producing a context. It indicates a caller-sequencing defect, not a
// recoverable condition.
var ErrUninitialized = errors.New("loom: context not initialized")

// WriteError reports a failed outfile write. In-memory delivery of the
// stylesheet is unaffected by a write failure.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing stylesheet to %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
