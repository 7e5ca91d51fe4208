package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/loomcss/loom"
	"github.com/loomcss/loom/internal/report"
	"github.com/loomcss/loom/internal/watch"
)

// debounceWindow coalesces editor save bursts into one regeneration.
const debounceWindow = 150 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the source tree and regenerate on change",
	Long: `Run a long-lived session: generate once, then watch source files and the
engine configuration, regenerating the stylesheet whenever a relevant file
changes. Unrelated changes are ignored.`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
	RunE: runWatch,
}

func init() {
	f := watchCmd.Flags()
	f.String("engine-config", "", "Engine config file path (default: probe loom.config.yaml)")
	f.String("outfile", "", "Write the generated stylesheet to this path")
	f.StringSlice("include", nil, "Glob patterns for source files to scan")
	f.StringSlice("exclude", nil, "Glob patterns for source files to skip")
	f.Bool("minify", false, "Minify the generated stylesheet")
	f.String("optimize", "", "Source optimization mode: on|off|auto")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	opts := buildOptions()
	if opts.Outfile == "" {
		return fmt.Errorf("watch mode requires --outfile (or outfile in the config file)")
	}

	quiet := getBoolWithFallback("quiet", "quiet", false)
	reporter := report.NewReporter(os.Stderr, getBoolWithFallback("color", "color", false))
	if !quiet {
		opts.OnRegenerate = func(ev loom.RegenerateEvent) {
			reporter.Regenerated(ev.Trigger, ev.Path, ev.CSSBytes, ev.Duration)
		}
	}

	plugin := loom.New(opts)
	defer plugin.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := scanAndTransform(ctx, plugin, opts.Cwd, opts.Include); err != nil {
		return err
	}

	watcher, err := watch.New(debounceWindow, func(paths []string) {
		for _, path := range paths {
			plugin.HandleChange(path)
		}
	}, nil)
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()

	// Hostless session: no module graph to invalidate, the watcher feeds
	// dependency paths directly.
	if err := plugin.ServerStart(ctx, nil, func(dep string) {
		if err := watcher.Add(dep); err != nil && !quiet {
			reporter.Error(fmt.Errorf("watching %s: %w", dep, err))
		}
	}); err != nil {
		return err
	}

	if err := watcher.Start(ctx, opts.Cwd); err != nil {
		return fmt.Errorf("watching %s: %w", opts.Cwd, err)
	}

	if !quiet {
		reporter.Watching(opts.Cwd)
	}

	<-ctx.Done()
	return nil
}
