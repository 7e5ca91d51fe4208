package loom

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/loomcss/loom/internal/engine"
)

// Default include/exclude matchers. Includes cover the common script and
// markup source extensions; excludes keep dependency and generated-output
// directories out of the transform pipeline.
var (
	defaultInclude = []string{
		"**/*.{js,jsx,ts,tsx,mjs,cjs}",
		"**/*.{vue,svelte,astro}",
	}
	defaultExclude = []string{
		"**/node_modules/**",
		"**/dist/**",
		"**/build/**",
		"**/.git/**",
	}
)

// TransformArgs is the input handed to a user transform callback.
type TransformArgs struct {
	FilePath string
	Content  string
}

// TransformOutput is a structured user-transform result. An empty Code keeps
// the previous code.
type TransformOutput struct {
	Code string
	Map  string
}

// TransformFunc is an optional user-level source transform applied before the
// file is registered with the engine.
type TransformFunc func(ctx context.Context, args TransformArgs) (*TransformOutput, error)

// Options is the immutable plugin configuration, resolved once at startup.
type Options struct {
	// Cwd is the project root. Empty falls back to the root announced by
	// the host's config-resolved hook.
	Cwd string
	// ConfigPath is an explicit engine config file path. Empty lets the
	// engine probe for loom.config.yaml under Cwd.
	ConfigPath string

	// Include and Exclude are doublestar patterns selecting the files fed
	// through the transform pipeline. Exclude takes precedence. Empty
	// slices use the package defaults.
	Include []string
	Exclude []string

	// Outfile persists the generated stylesheet to this path on every
	// regeneration. Empty means pure virtual-module delivery.
	Outfile string

	// Minify collapses whitespace in the generated stylesheet.
	Minify bool

	// Optimize enables per-kind source optimization. Nil disables it.
	Optimize *engine.OptimizeOptions

	// Transform is an optional user transform, applied first.
	Transform TransformFunc

	// OnRegenerate is invoked after every completed regeneration. Useful
	// for progress reporting; never required for correctness.
	OnRegenerate func(RegenerateEvent)

	// Logger receives debug/info output. Nil uses slog.Default().
	Logger *slog.Logger
}

// RegenerateEvent describes one completed artifact regeneration.
type RegenerateEvent struct {
	// Trigger names what caused the regeneration: "load", "source-change"
	// or "config-change".
	Trigger string
	// Path is the changed file for change-triggered regenerations.
	Path string
	// CSSBytes is the size of the generated stylesheet.
	CSSBytes int
	// Duration is the wall time of the regeneration cycle.
	Duration time.Duration
}

// matcher decides which file ids enter the transform pipeline.
// Filtering is layered: exclude patterns win over include patterns, and
// gitignored files are skipped for paths inside the project root.
type matcher struct {
	include []string
	exclude []string
	root    string
	ignored *ignore.GitIgnore
}

func newMatcher(include, exclude []string, root string) *matcher {
	if len(include) == 0 {
		include = defaultInclude
	}
	if len(exclude) == 0 {
		exclude = defaultExclude
	}

	m := &matcher{include: include, exclude: exclude, root: root}

	// Gracefully degrade when the project has no .gitignore.
	if gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore")); err == nil {
		m.ignored = gi
	}
	return m
}

// Match reports whether id should be transformed.
func (m *matcher) Match(id string) bool {
	rel := m.relative(id)

	for _, pattern := range m.exclude {
		if matchPattern(pattern, rel) {
			return false
		}
	}
	if m.ignored != nil && m.ignored.MatchesPath(rel) {
		return false
	}
	for _, pattern := range m.include {
		if matchPattern(pattern, rel) {
			return true
		}
	}
	return false
}

// relative normalizes id to a slash-separated path relative to the root so
// patterns behave identically for absolute and relative ids.
func (m *matcher) relative(id string) string {
	path := filepath.ToSlash(id)
	if m.root != "" {
		if rel, err := filepath.Rel(m.root, id); err == nil && !strings.HasPrefix(rel, "..") {
			path = filepath.ToSlash(rel)
		}
	}
	return path
}

func matchPattern(pattern, path string) bool {
	ok, err := doublestar.Match(pattern, path)
	if err != nil {
		return false
	}
	if ok {
		return true
	}
	// A bare-name pattern like "*.tsx" should match nested files too.
	if !strings.Contains(pattern, "/") {
		ok, err = doublestar.Match("**/"+pattern, path)
		return err == nil && ok
	}
	return false
}
