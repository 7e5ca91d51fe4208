package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/loomcss/loom"
	"github.com/loomcss/loom/internal/report"
)

var generateCmd = &cobra.Command{
	Use:     "generate",
	Aliases: []string{"gen"},
	Short:   "Scan the source tree and generate the stylesheet once",
	Long: `Scan source files matching the include patterns for styling usage and
generate the aggregated stylesheet. With --outfile the result is written to
disk; otherwise it is printed to stdout.`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.String("engine-config", "", "Engine config file path (default: probe loom.config.yaml)")
	f.String("outfile", "", "Write the generated stylesheet to this path")
	f.StringSlice("include", nil, "Glob patterns for source files to scan")
	f.StringSlice("exclude", nil, "Glob patterns for source files to skip")
	f.Bool("minify", false, "Minify the generated stylesheet")
	f.String("optimize", "", "Source optimization mode: on|off|auto")
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	opts := buildOptions()
	plugin := loom.New(opts)
	defer plugin.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	scanned, err := scanAndTransform(ctx, plugin, opts.Cwd, opts.Include)
	if err != nil {
		return err
	}

	css, err := plugin.GenerateCSS(ctx)
	if err != nil {
		return fmt.Errorf("generating stylesheet: %w", err)
	}

	quiet := getBoolWithFallback("quiet", "quiet", false)
	if quiet {
		return nil
	}

	tracked := 0
	if c := plugin.Manager().Peek(); c != nil {
		tracked = len(c.TrackedFiles())
	}

	reporter := report.NewReporter(os.Stderr, getBoolWithFallback("color", "color", false))
	reporter.GenerateSummary(scanned, tracked, len(css), opts.Outfile)

	if opts.Outfile == "" {
		fmt.Fprint(os.Stdout, css)
	}
	return nil
}

// scanAndTransform feeds every matching source file through the transform
// pipeline and returns the number of files scanned.
func scanAndTransform(ctx context.Context, plugin *loom.Plugin, cwd string, include []string) (int, error) {
	if len(include) == 0 {
		include = []string{
			"**/*.{js,jsx,ts,tsx,mjs,cjs}",
			"**/*.{vue,svelte,astro}",
		}
	}

	seen := make(map[string]bool)
	scanned := 0

	for _, pattern := range include {
		matches, err := doublestar.FilepathGlob(filepath.Join(cwd, pattern))
		if err != nil {
			return scanned, fmt.Errorf("glob pattern %q: %w", pattern, err)
		}
		for _, match := range matches {
			if seen[match] {
				continue
			}
			seen[match] = true

			info, err := os.Stat(match)
			if err != nil || info.IsDir() {
				continue
			}
			if !plugin.ShouldTransform(match) {
				continue
			}

			code, err := os.ReadFile(match)
			if err != nil {
				// Unreadable files are skipped, not fatal.
				continue
			}
			scanned++
			if _, err := plugin.Transform(ctx, string(code), match); err != nil {
				return scanned, fmt.Errorf("transforming %s: %w", match, err)
			}
		}
	}
	return scanned, nil
}
