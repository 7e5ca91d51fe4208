package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate default config files",
	Long: `Create a .loom.yaml CLI config and a loom.config.yaml engine config in the
current directory with sensible defaults.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		force, _ := cmd.Flags().GetBool("force")

		files := map[string]string{
			".loom.yaml":       defaultCLIConfig,
			"loom.config.yaml": defaultEngineConfig,
		}
		for name, content := range files {
			if _, err := os.Stat(name); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", name)
			}
			if err := os.WriteFile(name, []byte(content), 0644); err != nil {
				return fmt.Errorf("writing %s: %w", name, err)
			}
			fmt.Printf("Created %s\n", name)
		}
		return nil
	},
}

const defaultCLIConfig = `# loom CLI configuration

# Project root to scan
cwd: .

# Where the generated stylesheet goes (omit to print to stdout)
outfile: src/generated/loom.css

# Source files to scan
include:
  - "**/*.{js,jsx,ts,tsx,mjs,cjs}"
  - "**/*.{vue,svelte,astro}"
exclude:
  - "**/node_modules/**"
  - "**/dist/**"

minify: false

# Rewrite static styling call sites to class literals: on | off | auto,
# or a per-kind map (stylesheet, inline-variant-call, pattern, recipe).
optimize: off
`

const defaultEngineConfig = `# loom engine configuration

# Class name prefix for generated rules
prefix: loom

# Design tokens exposed as CSS custom properties
tokens:
  colors:
    primary: "#4f46e5"
    surface: "#ffffff"
  spacing:
    sm: "0.5rem"
    md: "1rem"
    lg: "2rem"

# Extra files whose changes should trigger a config reload
# dependencies:
#   - tokens.shared.yaml
`

func init() {
	initCmd.Flags().Bool("force", false, "Overwrite existing config files")
}
