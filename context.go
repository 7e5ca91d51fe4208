package loom

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/loomcss/loom/internal/engine"
)

// Context is the live handle bundling the style engine, the working root and
// the tracked-file bookkeeping. A Context is replaced wholesale on reload,
// never mutated field by field; holders of an old reference keep a
// consistent, if stale, view.
type Context struct {
	// Engine is the style engine handle for this configuration snapshot.
	Engine *engine.Handle
	// Root is the absolute working root.
	Root string

	mu    sync.RWMutex
	files map[string]string
}

func newContext(root string, res *engine.ConfigResult) *Context {
	return &Context{
		Engine: engine.CreateContext(root, res),
		Root:   root,
		files:  make(map[string]string),
	}
}

// TrackFile records id as a styling-relevant file together with the original,
// pre-transform code the author wrote.
func (c *Context) TrackFile(id, original string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files[id] = original
}

// Untrack removes id from the styling-relevant set, e.g. after deletion.
func (c *Context) Untrack(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.files, id)
}

// IsTracked reports whether id contributed styling usage in its last
// transform pass. Untracked files are irrelevant to invalidation.
func (c *Context) IsTracked(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.files[id]
	return ok
}

// OriginalCode returns the pre-transform code recorded for id.
func (c *Context) OriginalCode(id string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	code, ok := c.files[id]
	return code, ok
}

// TrackedFiles returns the tracked ids in sorted order.
func (c *Context) TrackedFiles() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.files))
	for id := range c.files {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Dependencies returns the configuration-derived files whose change must
// reload this context.
func (c *Context) Dependencies() []string {
	return c.Engine.Dependencies()
}

// CSS computes a fresh sheet from the engine's current registry and
// serializes it. The sheet is single-use; every call recomputes.
func (c *Context) CSS(opts engine.ToCSSOptions) (string, error) {
	return c.Engine.ToCSS(c.Engine.CreateSheet(), opts)
}

// configLoader abstracts engine.LoadConfig so tests can count and fail loads.
type configLoader func(ctx context.Context, opts engine.LoadOptions) (*engine.ConfigResult, error)

// Manager owns the single live Context. Initialization is lazy, memoized and
// exactly-once: concurrent callers share one in-flight load and observe the
// identical resulting Context. The memoized result is sticky, including a
// failed one; Reload is the only way to retry.
type Manager struct {
	cwd        string
	configPath string
	load       configLoader

	group singleflight.Group

	mu      sync.RWMutex
	current *Context
	initErr error
	settled bool
}

// NewManager creates a manager for the given working directory and optional
// explicit config path.
func NewManager(cwd, configPath string) *Manager {
	return &Manager{
		cwd:        cwd,
		configPath: configPath,
		load:       engine.LoadConfig,
	}
}

// SetRoot updates the working root before first initialization. Used by the
// host's config-resolved hook; a no-op once a context exists.
func (m *Manager) SetRoot(root string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.settled && root != "" {
		m.cwd = root
	}
}

// Get returns the live Context, initializing it at most once. All callers
// racing the first initialization resolve to the same Context reference.
func (m *Manager) Get(ctx context.Context) (*Context, error) {
	m.mu.RLock()
	if m.settled {
		current, err := m.current, m.initErr
		m.mu.RUnlock()
		return current, err
	}
	m.mu.RUnlock()

	// singleflight shares the in-flight initialization, so a second caller
	// cannot start a redundant load.
	v, err, _ := m.group.Do("init", func() (interface{}, error) {
		c, err := m.build(ctx)

		m.mu.Lock()
		defer m.mu.Unlock()
		if !m.settled {
			m.current = c
			m.initErr = err
			m.settled = true
		}
		return m.current, m.initErr
	})
	if err != nil {
		return nil, err
	}
	c, ok := v.(*Context)
	if !ok || c == nil {
		return nil, ErrUninitialized
	}
	return c, nil
}

// Peek returns the current Context without initializing. Nil before first
// successful Get.
func (m *Manager) Peek() *Context {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Reload discards the memoized initialization result and constructs a fresh
// Context. The previous Context stays live until the new one successfully
// replaces it; a failed reload changes nothing.
func (m *Manager) Reload(ctx context.Context) (*Context, error) {
	c, err := m.build(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.current = c
	m.initErr = nil
	m.settled = true
	m.mu.Unlock()
	return c, nil
}

func (m *Manager) build(ctx context.Context) (*Context, error) {
	m.mu.RLock()
	cwd, configPath := m.cwd, m.configPath
	m.mu.RUnlock()

	res, err := m.load(ctx, engine.LoadOptions{Cwd: cwd, Path: configPath})
	if err != nil {
		return nil, err
	}
	return newContext(cwd, res), nil
}
