package loom

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/loomcss/loom/internal/engine"
)

// ModuleInfo identifies one entry of the host's module graph.
type ModuleInfo struct {
	ID string
}

// ModuleGraph is the narrow capability set the coordinator needs from the
// host bundler's module graph.
type ModuleGraph interface {
	GetModuleByID(id string) (ModuleInfo, bool)
	InvalidateModule(id string)
}

// artifactState tracks the freshness of the generated stylesheet.
type artifactState int

const (
	stateFresh artifactState = iota
	stateStale
	stateRegenerating
)

// coordinator reconciles the generated artifact with source and configuration
// changes. Change events are messages consumed by a single goroutine, so
// re-entrant host callbacks cannot interleave two invalidations.
type coordinator struct {
	manager      *Manager
	out          *writer
	logger       *slog.Logger
	minify       bool
	onRegenerate func(RegenerateEvent)

	// retransform re-runs the transform pipeline for a changed source file
	// so the engine registry reflects the on-disk content before the sheet
	// is recomputed.
	retransform func(ctx context.Context, path string) error
	// reapply re-runs the transform pipeline for a tracked file's recorded
	// original code, repopulating a freshly reloaded context.
	reapply func(ctx context.Context, id, code string) error

	// pending coalesces change events by path until the consumer goroutine
	// picks them up, so bursts can never overflow or drop events.
	pendMu  sync.Mutex
	pending map[string]struct{}
	wake    chan struct{}

	done     chan struct{}
	loopDone chan struct{}
	stopOnce sync.Once

	mu       sync.Mutex
	state    artifactState
	graph    ModuleGraph
	watch    func(path string)
	lastHash uint64
	hasHash  bool
	started  bool
}

func newCoordinator(m *Manager, out *writer, opts Options, logger *slog.Logger) *coordinator {
	return &coordinator{
		manager:      m,
		out:          out,
		logger:       logger,
		minify:       opts.Minify,
		onRegenerate: opts.OnRegenerate,
		pending:      make(map[string]struct{}),
		wake:         make(chan struct{}, 1),
		done:         make(chan struct{}),
		loopDone:     make(chan struct{}),
	}
}

// start begins consuming change events. graph and watch may be nil for
// hostless (CLI) sessions.
func (c *coordinator) start(graph ModuleGraph, watch func(string)) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.graph = graph
	c.watch = watch
	c.mu.Unlock()

	go c.run()
}

// notify records a change event. Safe to call from any goroutine; paths are
// coalesced into the pending set, so arbitrary bursts never block the host
// and never lose an event.
func (c *coordinator) notify(path string) {
	c.pendMu.Lock()
	c.pending[path] = struct{}{}
	c.pendMu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// stop terminates the event loop. Idempotent.
func (c *coordinator) stop() {
	c.stopOnce.Do(func() {
		close(c.done)
	})
}

func (c *coordinator) run() {
	defer close(c.loopDone)
	for {
		select {
		case <-c.done:
			return
		case <-c.wake:
			c.handleBatch(c.takePending())
		}
	}
}

// takePending swaps out the coalesced change set, returning its paths in
// deterministic order.
func (c *coordinator) takePending() []string {
	c.pendMu.Lock()
	paths := make([]string, 0, len(c.pending))
	for path := range c.pending {
		paths = append(paths, path)
	}
	c.pending = make(map[string]struct{})
	c.pendMu.Unlock()

	sort.Strings(paths)
	return paths
}

// handleBatch classifies a batch of changed paths and drives the artifact
// state machine. A dependency-set hit forces a context reload and supersedes
// any source-change recomputation queued in the same batch; paths matching
// neither set are no-ops.
func (c *coordinator) handleBatch(paths []string) {
	if len(paths) == 0 {
		return
	}

	current := c.manager.Peek()
	if current == nil {
		// Nothing initialized yet, so nothing can be stale.
		return
	}

	deps := make(map[string]bool)
	for _, dep := range current.Dependencies() {
		deps[dep] = true
	}

	var depPath, sourcePath string
	for _, path := range paths {
		if deps[path] {
			depPath = path
			break
		}
		if sourcePath == "" && current.IsTracked(path) {
			sourcePath = path
		}
	}

	ctx := context.Background()
	switch {
	case depPath != "":
		c.logger.Info("configuration dependency changed, reloading context", "path", depPath)
		fresh, err := c.manager.Reload(ctx)
		if err != nil {
			// The previous context stays live; the next relevant
			// change retries.
			c.logger.Error("context reload failed, keeping previous context", "error", err)
			return
		}
		// Carry tracked files forward so the rebuilt registry still
		// covers the session's source files. Each file goes through the
		// full transform pipeline again: the registry must hold the
		// transformed code, and a user transform may inject styling the
		// raw original does not contain.
		for _, id := range current.TrackedFiles() {
			code, ok := current.OriginalCode(id)
			if !ok {
				continue
			}
			if c.reapply != nil {
				if err := c.reapply(ctx, id, code); err != nil {
					c.logger.Error("reapplying transform after reload failed", "path", id, "error", err)
				}
				continue
			}
			fresh.Engine.Project.AddSourceFile(id, code)
			fresh.TrackFile(id, code)
		}
		c.regenerate(ctx, "config-change", depPath)
	case sourcePath != "":
		if c.retransform != nil {
			if err := c.retransform(ctx, sourcePath); err != nil {
				c.logger.Error("retransform failed", "path", sourcePath, "error", err)
			}
		}
		c.regenerate(ctx, "source-change", sourcePath)
	}
}

// regenerate recomputes the artifact and synchronizes the host module graph.
// Graph invalidation happens strictly after the outfile write so a
// re-requesting host can never observe stale persisted content.
func (c *coordinator) regenerate(ctx context.Context, trigger, path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = stateStale
	if _, err := c.refreshLocked(ctx, trigger, path, true); err != nil {
		c.logger.Error("regeneration failed", "trigger", trigger, "error", err)
	}
}

// serve computes the current stylesheet text for the load hook, transitioning
// the artifact to fresh. The sheet is recomputed on every call.
func (c *coordinator) serve(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshLocked(ctx, "load", "", false)
}

// refreshLocked runs one Stale -> Regenerating -> Fresh cycle. Callers hold
// c.mu. When invalidate is set and the output actually changed, the host
// module-graph entry for the artifact is invalidated after the write.
func (c *coordinator) refreshLocked(ctx context.Context, trigger, path string, invalidate bool) (string, error) {
	start := time.Now()
	c.state = stateRegenerating

	current, err := c.manager.Get(ctx)
	if err != nil {
		c.state = stateStale
		return "", err
	}

	css, err := current.CSS(engine.ToCSSOptions{Minify: c.minify})
	if err != nil {
		c.state = stateStale
		return "", err
	}

	hash := xxhash.Sum64String(css)
	unchanged := c.hasHash && hash == c.lastHash

	if c.out.Enabled() && !unchanged {
		if err := c.out.Write(css); err != nil {
			// Persisted output degrades; in-memory delivery stays
			// correct, so the artifact still becomes fresh.
			c.state = stateFresh
			return css, err
		}
	}

	if invalidate && !unchanged && c.graph != nil {
		if mod, ok := c.graph.GetModuleByID(ResolvedModuleID); ok {
			c.graph.InvalidateModule(mod.ID)
		}
	}

	c.lastHash = hash
	c.hasHash = true
	c.state = stateFresh

	if unchanged {
		c.logger.Debug("output unchanged, skipping write and invalidation", "trigger", trigger)
	}
	if c.onRegenerate != nil {
		c.onRegenerate(RegenerateEvent{
			Trigger:  trigger,
			Path:     path,
			CSSBytes: len(css),
			Duration: time.Since(start),
		})
	}
	return css, nil
}

// watchDependencies registers the context's dependency set with the host
// watcher, if one was provided.
func (c *coordinator) watchDependencies(current *Context) {
	c.mu.Lock()
	watch := c.watch
	c.mu.Unlock()
	if watch == nil {
		return
	}
	for _, dep := range current.Dependencies() {
		watch(dep)
	}
}
