package loom

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/loomcss/loom/internal/codegen"
)

// Plugin is the host-facing integration surface. One Plugin serves one
// project for the lifetime of a build or dev-server session.
type Plugin struct {
	opts    Options
	match   *matcher
	manager *Manager
	coord   *coordinator
	logger  *slog.Logger

	matchOnce   sync.Once
	codegenOnce sync.Once
}

// New creates a plugin from resolved options.
func New(opts Options) *Plugin {
	if opts.Cwd == "" {
		if cwd, err := os.Getwd(); err == nil {
			opts.Cwd = cwd
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := &Plugin{
		opts:    opts,
		manager: NewManager(opts.Cwd, opts.ConfigPath),
		logger:  logger,
	}
	p.coord = newCoordinator(p.manager, newWriter(opts.Outfile), opts, logger)
	p.coord.retransform = p.retransform
	p.coord.reapply = func(ctx context.Context, id, code string) error {
		_, err := p.Transform(ctx, code, id)
		return err
	}
	return p
}

// Name returns the plugin name announced to the host.
func (p *Plugin) Name() string { return "loom" }

// ResolveID answers only for the virtual module registry's symbolic ids.
// Any other id returns ok=false so the host's normal resolution proceeds.
func (p *Plugin) ResolveID(id string) (string, bool) {
	return ResolveVirtualID(id)
}

// Load returns the source text for the registry's resolved ids: the freshly
// computed stylesheet for the CSS artifact and the embedded runtime snippet
// for the helper module.
func (p *Plugin) Load(ctx context.Context, id string) (string, bool, error) {
	switch id {
	case ResolvedModuleID:
		css, err := p.coord.serve(ctx)
		if err != nil {
			return "", true, err
		}
		return css, true, nil
	case ResolvedHelpersID:
		return helpersSource, true, nil
	}
	return "", false, nil
}

// ShouldTransform reports whether the host should feed id through Transform.
func (p *Plugin) ShouldTransform(id string) bool {
	p.matchOnce.Do(func() {
		p.match = newMatcher(p.opts.Include, p.opts.Exclude, p.opts.Cwd)
	})
	return p.match.Match(id)
}

// ConfigResolved records the root announced by the host. Only effective
// before the first context initialization; Options.Cwd wins when set
// explicitly.
func (p *Plugin) ConfigResolved(root string) {
	if p.opts.Cwd == "" || p.opts.Cwd == "." {
		p.opts.Cwd = root
	}
	p.manager.SetRoot(root)
}

// ServerStart seeds the dependency watch, performs the first artifact
// write, starts the invalidation loop, and kicks the one-time async codegen.
// graph and watch may be nil for hostless sessions.
func (p *Plugin) ServerStart(ctx context.Context, graph ModuleGraph, watch func(path string)) error {
	current, err := p.manager.Get(ctx)
	if err != nil {
		return err
	}

	p.coord.start(graph, watch)
	p.coord.watchDependencies(current)

	if _, err := p.coord.serve(ctx); err != nil {
		return err
	}

	p.codegenOnce.Do(func() {
		dir := current.Engine.Config.CodegenDir
		if dir == "" {
			return
		}
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(current.Root, dir)
		}
		go func() {
			err := codegen.Write(codegen.Input{
				Dir:     dir,
				Helpers: helpersSource,
				Tokens:  current.Engine.TokensCSS(),
			})
			if err != nil {
				p.logger.Error("codegen failed", "dir", dir, "error", err)
			}
		}()
	})
	return nil
}

// HandleChange notifies the plugin that path changed on disk. Irrelevant
// paths are cheap no-ops; the host may call this for every change event.
func (p *Plugin) HandleChange(path string) {
	p.coord.notify(path)
}

// GenerateCSS computes the current stylesheet text, persisting it when an
// outfile is configured. Used by one-shot generation and tests; the host's
// load hook goes through the same path.
func (p *Plugin) GenerateCSS(ctx context.Context) (string, error) {
	return p.coord.serve(ctx)
}

// Manager exposes the context manager, mainly for lifecycle introspection.
func (p *Plugin) Manager() *Manager { return p.manager }

// Close stops the invalidation loop. The plugin must not be reused after.
func (p *Plugin) Close() error {
	p.coord.stop()
	return nil
}

// retransform re-runs the transform pipeline for a file that changed on
// disk. Deleted files leave the registry and the tracked set.
func (p *Plugin) retransform(ctx context.Context, path string) error {
	current, err := p.manager.Get(ctx)
	if err != nil {
		return err
	}

	code, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		current.Engine.Project.RemoveSourceFile(path)
		current.Untrack(path)
		return nil
	}
	if err != nil {
		return err
	}

	_, err = p.Transform(ctx, string(code), path)
	return err
}
