package loom

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGraph records module invalidations issued by the coordinator.
type fakeGraph struct {
	mu          sync.Mutex
	invalidated []string
}

func (g *fakeGraph) GetModuleByID(id string) (ModuleInfo, bool) {
	return ModuleInfo{ID: id}, true
}

func (g *fakeGraph) InvalidateModule(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.invalidated = append(g.invalidated, id)
}

func (g *fakeGraph) calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.invalidated...)
}

// watchProject seeds a temp project with a config file and one source file,
// returning the plugin wired to a fake module graph. The coordinator's event
// loop is not started; tests drive handleBatch synchronously.
func watchProject(t *testing.T, prefix string) (*Plugin, *fakeGraph, string, string) {
	t.Helper()
	dir := t.TempDir()

	confPath := filepath.Join(dir, "loom.config.yaml")
	require.NoError(t, os.WriteFile(confPath, []byte("prefix: "+prefix+"\n"), 0o644))

	srcPath := filepath.Join(dir, "app.tsx")
	require.NoError(t, os.WriteFile(srcPath, []byte(`const a = css({ color: "red" })`), 0o644))

	p := New(Options{Cwd: dir})
	t.Cleanup(func() { p.Close() })

	graph := &fakeGraph{}
	p.coord.graph = graph

	code, err := os.ReadFile(srcPath)
	require.NoError(t, err)
	_, err = p.Transform(context.Background(), string(code), srcPath)
	require.NoError(t, err)

	return p, graph, confPath, srcPath
}

func TestCoordinatorIgnoresIrrelevantPaths(t *testing.T) {
	p, graph, _, _ := watchProject(t, "loom")

	before := p.Manager().Peek()
	css1, err := p.GenerateCSS(context.Background())
	require.NoError(t, err)

	p.coord.handleBatch([]string{"/somewhere/else.txt", filepath.Join(p.opts.Cwd, "untracked.ts")})

	assert.Same(t, before, p.Manager().Peek())
	assert.Empty(t, graph.calls())

	css2, err := p.GenerateCSS(context.Background())
	require.NoError(t, err)
	assert.Equal(t, css1, css2)
}

func TestCoordinatorSourceChangeRecomputesAndInvalidates(t *testing.T) {
	p, graph, _, srcPath := watchProject(t, "loom")
	ctx := context.Background()

	css1, err := p.GenerateCSS(ctx)
	require.NoError(t, err)
	assert.Contains(t, css1, "color: red")

	before := p.Manager().Peek()
	require.NoError(t, os.WriteFile(srcPath, []byte(`const a = css({ color: "blue" })`), 0o644))
	p.coord.handleBatch([]string{srcPath})

	// A source change never reloads the context.
	assert.Same(t, before, p.Manager().Peek())
	assert.Equal(t, []string{ResolvedModuleID}, graph.calls())

	css2, err := p.GenerateCSS(ctx)
	require.NoError(t, err)
	assert.Contains(t, css2, "color: blue")
	assert.NotContains(t, css2, "color: red")
}

func TestCoordinatorSuppressesUnchangedOutput(t *testing.T) {
	p, graph, _, srcPath := watchProject(t, "loom")

	_, err := p.GenerateCSS(context.Background())
	require.NoError(t, err)

	// The file is touched but its content is identical, so the output hash
	// matches and invalidation is skipped.
	p.coord.handleBatch([]string{srcPath})
	assert.Empty(t, graph.calls())
}

func TestCoordinatorConfigChangeReloadsContext(t *testing.T) {
	p, graph, confPath, srcPath := watchProject(t, "aaa")
	ctx := context.Background()

	css1, err := p.GenerateCSS(ctx)
	require.NoError(t, err)
	assert.Contains(t, css1, ".aaa-")

	before := p.Manager().Peek()
	require.NoError(t, os.WriteFile(confPath, []byte("prefix: bbb\n"), 0o644))
	p.coord.handleBatch([]string{confPath})

	after := p.Manager().Peek()
	require.NotSame(t, before, after)

	// Tracked files survive the reload.
	assert.True(t, after.IsTracked(srcPath))
	assert.NotEmpty(t, graph.calls())

	css2, err := p.GenerateCSS(ctx)
	require.NoError(t, err)
	assert.Contains(t, css2, ".bbb-")
	assert.NotContains(t, css2, ".aaa-")
}

func TestCoordinatorConfigChangeReappliesUserTransform(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	confPath := filepath.Join(dir, "loom.config.yaml")
	require.NoError(t, os.WriteFile(confPath, []byte("prefix: aaa\n"), 0o644))

	// The styling usage exists only in the user transform's output; the
	// raw original has none.
	original := `const styles = makeStyles()`
	srcPath := filepath.Join(dir, "app.tsx")
	require.NoError(t, os.WriteFile(srcPath, []byte(original), 0o644))

	p := New(Options{
		Cwd: dir,
		Transform: func(ctx context.Context, args TransformArgs) (*TransformOutput, error) {
			return &TransformOutput{
				Code: strings.ReplaceAll(args.Content, "makeStyles()", `css({ color: "red" })`),
			}, nil
		},
	})
	defer p.Close()

	_, err := p.Transform(ctx, original, srcPath)
	require.NoError(t, err)

	css1, err := p.GenerateCSS(ctx)
	require.NoError(t, err)
	require.Contains(t, css1, "color: red")

	require.NoError(t, os.WriteFile(confPath, []byte("prefix: bbb\n"), 0o644))
	p.coord.handleBatch([]string{confPath})

	// The reloaded registry holds the transformed code, so the injected
	// rule survives the reload under the new prefix.
	css2, err := p.GenerateCSS(ctx)
	require.NoError(t, err)
	assert.Contains(t, css2, "color: red")
	assert.Contains(t, css2, ".bbb-")

	// Bookkeeping still records what the author wrote.
	got, ok := p.Manager().Peek().OriginalCode(srcPath)
	require.True(t, ok)
	assert.Equal(t, original, got)
}

func TestCoordinatorDependencyChangeWinsOverSource(t *testing.T) {
	p, _, confPath, srcPath := watchProject(t, "aaa")

	before := p.Manager().Peek()
	require.NoError(t, os.WriteFile(confPath, []byte("prefix: bbb\n"), 0o644))

	// Both a tracked source and a dependency appear in one batch; the
	// reload covers the source recomputation.
	p.coord.handleBatch([]string{srcPath, confPath})
	assert.NotSame(t, before, p.Manager().Peek())
}

func TestCoordinatorReloadFailureKeepsServing(t *testing.T) {
	p, _, confPath, _ := watchProject(t, "aaa")
	ctx := context.Background()

	css1, err := p.GenerateCSS(ctx)
	require.NoError(t, err)

	before := p.Manager().Peek()
	require.NoError(t, os.WriteFile(confPath, []byte("prefix: [unclosed\n"), 0o644))
	p.coord.handleBatch([]string{confPath})

	// The broken config does not tear down the session.
	assert.Same(t, before, p.Manager().Peek())
	css2, err := p.GenerateCSS(ctx)
	require.NoError(t, err)
	assert.Equal(t, css1, css2)
}

func TestCoordinatorDeletedSourceDropsItsRules(t *testing.T) {
	p, _, _, srcPath := watchProject(t, "loom")
	ctx := context.Background()

	css1, err := p.GenerateCSS(ctx)
	require.NoError(t, err)
	assert.Contains(t, css1, "color: red")

	require.NoError(t, os.Remove(srcPath))
	p.coord.handleBatch([]string{srcPath})

	assert.False(t, p.Manager().Peek().IsTracked(srcPath))
	css2, err := p.GenerateCSS(ctx)
	require.NoError(t, err)
	assert.NotContains(t, css2, "color: red")
}

func TestCoordinatorWriteFailureStillServesInMemory(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	p := New(Options{Cwd: dir, Outfile: filepath.Join(blocker, "out.css")})
	defer p.Close()

	_, err := p.Transform(context.Background(), `const a = css({ color: "red" })`, filepath.Join(dir, "app.tsx"))
	require.NoError(t, err)

	css, err := p.GenerateCSS(context.Background())
	require.Error(t, err)
	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)

	// In-memory delivery is unaffected by the failed write.
	assert.Contains(t, css, "color: red")
}

func TestCoordinatorNotifyCoalescesWithoutDropping(t *testing.T) {
	p, _, _, srcPath := watchProject(t, "loom")

	// The consumer goroutine is not running, so every event stays queued.
	// Far more events than any fixed buffer would hold must all survive.
	for i := 0; i < 500; i++ {
		p.coord.notify(srcPath)
	}
	other := filepath.Join(p.opts.Cwd, "other.tsx")
	p.coord.notify(other)

	paths := p.coord.takePending()
	assert.Equal(t, []string{srcPath, other}, paths)
	assert.Empty(t, p.coord.takePending())
}

func TestCoordinatorNotifyAfterStopIsSafe(t *testing.T) {
	p, _, _, srcPath := watchProject(t, "loom")
	p.coord.stop()
	p.coord.notify(srcPath)
	require.NoError(t, p.Close())
}

func TestCoordinatorHandleBatchBeforeInit(t *testing.T) {
	p := New(Options{Cwd: t.TempDir()})
	defer p.Close()

	// No context exists yet; the batch must be a no-op, not a panic.
	p.coord.handleBatch([]string{"/src/app.tsx"})
	assert.Nil(t, p.Manager().Peek())
}
