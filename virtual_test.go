package loom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveVirtualID(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		want   string
		wantOK bool
	}{
		{"stylesheet module", ModuleID, ResolvedModuleID, true},
		{"helpers module", HelpersModuleID, ResolvedHelpersID, true},
		{"real file path", "/src/app.tsx", "", false},
		{"already resolved id", ResolvedModuleID, "", false},
		{"foreign virtual id", "virtual:other.css", "", false},
		{"empty id", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveVirtualID(tt.id)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolvedIDsNeverCollideWithPaths(t *testing.T) {
	// The NUL prefix keeps resolved ids out of the filesystem namespace.
	assert.Equal(t, byte(0), ResolvedModuleID[0])
	assert.Equal(t, byte(0), ResolvedHelpersID[0])

	assert.True(t, IsResolvedID(ResolvedModuleID))
	assert.True(t, IsResolvedID(ResolvedHelpersID))
	assert.False(t, IsResolvedID(ModuleID))
	assert.False(t, IsResolvedID("\x00virtual:other.css"))
}

func TestHelpersSource(t *testing.T) {
	src := HelpersSource()
	require.NotEmpty(t, src)
	assert.Contains(t, src, "export function cx")
	assert.Contains(t, src, "export function createRuntimeFn")
}
