// Package report formats generation and watch-session output for the
// terminal.
package report

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Reporter writes human-readable progress lines for generate and watch runs.
type Reporter struct {
	w         io.Writer
	useColors bool
}

// NewReporter creates a reporter. Color usage follows the explicit flag,
// FORCE_COLOR / GITHUB_ACTIONS, then TTY detection.
func NewReporter(w io.Writer, forceColors bool) *Reporter {
	return &Reporter{w: w, useColors: shouldUseColors(forceColors)}
}

func shouldUseColors(force bool) bool {
	if force {
		return true
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	if os.Getenv("GITHUB_ACTIONS") == "true" {
		return true
	}
	if fileInfo, _ := os.Stdout.Stat(); fileInfo != nil && (fileInfo.Mode()&os.ModeCharDevice) != 0 {
		return true
	}
	return false
}

// GenerateSummary prints the result of a one-shot generation.
func (r *Reporter) GenerateSummary(filesScanned, filesWithUsage, cssBytes int, outfile string) {
	fmt.Fprintf(r.w, "%s scanned %d files, %d with styling usage\n",
		renderStyle(StyleGreen, "✓", r.useColors), filesScanned, filesWithUsage)
	if outfile != "" {
		fmt.Fprintf(r.w, "  wrote %s (%s)\n",
			renderStyle(StyleCyan, outfile, r.useColors), formatBytes(cssBytes))
	} else {
		fmt.Fprintf(r.w, "  generated %s of CSS (in-memory)\n", formatBytes(cssBytes))
	}
}

// Regenerated prints one watch-session regeneration.
func (r *Reporter) Regenerated(trigger, path string, cssBytes int, elapsed time.Duration) {
	detail := trigger
	if path != "" {
		detail = fmt.Sprintf("%s: %s", trigger, path)
	}
	fmt.Fprintf(r.w, "%s regenerated (%s) %s\n",
		renderStyle(StyleGreen, "✓", r.useColors),
		detail,
		renderStyle(StyleGray, fmt.Sprintf("%s, %dms", formatBytes(cssBytes), elapsed.Milliseconds()), r.useColors))
}

// Watching prints the watch-session banner.
func (r *Reporter) Watching(root string) {
	fmt.Fprintf(r.w, "%s watching %s for changes\n",
		renderStyle(StyleCyan, "→", r.useColors), root)
}

// Error prints a non-fatal session error.
func (r *Reporter) Error(err error) {
	fmt.Fprintf(r.w, "%s %v\n", renderStyle(StyleRed, "✗", r.useColors), err)
}

func formatBytes(n int) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	return fmt.Sprintf("%.1f KiB", float64(n)/1024)
}
