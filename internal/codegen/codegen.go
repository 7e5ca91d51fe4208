// Package codegen materializes the runtime support files the optimized
// output imports at build time: the helper module and the design-token CSS.
package codegen

import (
	"fmt"
	"os"
	"path/filepath"
)

// File names written into the target directory.
const (
	HelpersFile = "helpers.mjs"
	TokensFile  = "tokens.css"
)

// Input describes one codegen run.
type Input struct {
	// Dir is the target directory; it is created if missing.
	Dir string
	// Helpers is the runtime helper module source.
	Helpers string
	// Tokens is the design-token CSS. Empty skips the tokens file.
	Tokens string
}

// Write persists the codegen files. Each file is written atomically enough
// for dev-server consumption (whole-file WriteFile); partial directories from
// earlier failures are overwritten on the next run.
func Write(in Input) error {
	if in.Dir == "" {
		return fmt.Errorf("codegen: target directory not set")
	}
	if err := os.MkdirAll(in.Dir, 0o755); err != nil {
		return fmt.Errorf("codegen: creating %s: %w", in.Dir, err)
	}

	helpers := filepath.Join(in.Dir, HelpersFile)
	if err := os.WriteFile(helpers, []byte(in.Helpers), 0o644); err != nil {
		return fmt.Errorf("codegen: writing %s: %w", helpers, err)
	}

	if in.Tokens != "" {
		tokens := filepath.Join(in.Dir, TokensFile)
		if err := os.WriteFile(tokens, []byte(in.Tokens), 0o644); err != nil {
			return fmt.Errorf("codegen: writing %s: %w", tokens, err)
		}
	}
	return nil
}
