package loom

import (
	"os"
	"path/filepath"
)

// writer persists the generated stylesheet when an outfile is configured.
// With no outfile, writing is a no-op and the artifact is served purely as a
// virtual module.
type writer struct {
	path string
}

func newWriter(outfile string) *writer {
	return &writer{path: outfile}
}

// Enabled reports whether an outfile is configured.
func (w *writer) Enabled() bool { return w.path != "" }

// Write persists css to the configured path, creating parent directories as
// needed. Failures surface as *WriteError and leave in-memory state intact.
func (w *writer) Write(css string) error {
	if w.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return &WriteError{Path: w.path, Err: err}
	}
	if err := os.WriteFile(w.path, []byte(css), 0o644); err != nil {
		return &WriteError{Path: w.path, Err: err}
	}
	return nil
}
