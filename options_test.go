package loom

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcherDefaults(t *testing.T) {
	root := t.TempDir()
	m := newMatcher(nil, nil, root)

	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"tsx under root", filepath.Join(root, "src/app.tsx"), true},
		{"plain js", filepath.Join(root, "index.js"), true},
		{"vue component", filepath.Join(root, "src/App.vue"), true},
		{"css file", filepath.Join(root, "src/styles.css"), false},
		{"node_modules excluded", filepath.Join(root, "node_modules/pkg/index.ts"), false},
		{"dist excluded", filepath.Join(root, "dist/bundle.js"), false},
		{"dotgit excluded", filepath.Join(root, ".git/hooks/x.js"), false},
		{"relative id", "src/app.ts", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Match(tt.id))
		})
	}
}

func TestMatcherExcludeWinsOverInclude(t *testing.T) {
	root := t.TempDir()
	m := newMatcher([]string{"**/*.ts"}, []string{"**/generated/**"}, root)

	assert.True(t, m.Match(filepath.Join(root, "src/a.ts")))
	assert.False(t, m.Match(filepath.Join(root, "src/generated/a.ts")))
}

func TestMatcherBareNamePatternMatchesNested(t *testing.T) {
	root := t.TempDir()
	m := newMatcher([]string{"*.tsx"}, nil, root)

	assert.True(t, m.Match(filepath.Join(root, "app.tsx")))
	assert.True(t, m.Match(filepath.Join(root, "deep/nested/app.tsx")))
	assert.False(t, m.Match(filepath.Join(root, "app.ts")))
}

func TestMatcherHonorsGitignore(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("vendor/\n"), 0o644))

	m := newMatcher(nil, nil, root)
	assert.False(t, m.Match(filepath.Join(root, "vendor/lib.js")))
	assert.True(t, m.Match(filepath.Join(root, "src/lib.js")))
}
