package engine

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func optimizeSource(t *testing.T, h *Handle, code string, opts OptimizeOptions) OptimizeResult {
	t.Helper()
	h.Project.AddSourceFile("test.tsx", code)
	pr := h.Project.ParseSourceFile("test.tsx")
	require.False(t, pr.IsEmpty())
	return h.Optimize(pr, code, opts)
}

func TestOptimizeStylesheetToClassLiteral(t *testing.T) {
	h := testHandle(nil)
	code := `const a = css({ color: "red" })`

	res := optimizeSource(t, h, code, OptimizeOptions{Stylesheet: ModeOn})
	require.True(t, res.Changed)

	name := h.ClassName(Usage{Kind: KindStylesheet, Body: `{ color: "red" }`})
	assert.Equal(t, fmt.Sprintf("const a = %q", name), res.Code)
}

func TestOptimizeRecipeUsesRuntimeHelper(t *testing.T) {
	h := testHandle(nil)
	code := `const r = recipe({ size: "sm" })`

	res := optimizeSource(t, h, code, OptimizeOptions{
		Recipe:        ModeOn,
		HelpersImport: "virtual:helpers",
	})
	require.True(t, res.Changed)

	name := h.ClassName(Usage{Kind: KindRecipe, Body: `{ size: "sm" }`})
	assert.True(t, strings.HasPrefix(res.Code, "import { createRuntimeFn } from \"virtual:helpers\";\n"))
	assert.Contains(t, res.Code, fmt.Sprintf("createRuntimeFn(%q)", name))
}

func TestOptimizeAutoSkipsMixedFiles(t *testing.T) {
	h := testHandle(nil)
	mixed := "const a = css({ color: \"red\" })\nconst b = css({ color: `blue` })"

	res := optimizeSource(t, h, mixed, OptimizeOptions{Stylesheet: ModeAuto})
	assert.False(t, res.Changed)
	assert.Equal(t, mixed, res.Code)

	// A fully static file is rewritten under auto.
	h2 := testHandle(nil)
	static := `const a = css({ color: "red" })`
	res = optimizeSource(t, h2, static, OptimizeOptions{Stylesheet: ModeAuto})
	assert.True(t, res.Changed)
}

func TestOptimizeOnRewritesStaticSitesInMixedFiles(t *testing.T) {
	h := testHandle(nil)
	mixed := "const a = css({ color: \"red\" })\nconst b = css({ color: `blue` })"

	res := optimizeSource(t, h, mixed, OptimizeOptions{Stylesheet: ModeOn})
	require.True(t, res.Changed)
	assert.Contains(t, res.Code, "`blue`")
	assert.NotContains(t, res.Code, `css({ color: "red" })`)
}

func TestOptimizeNeverRewritesStructuralKinds(t *testing.T) {
	h := testHandle(nil)
	code := `const B = styled.button({ color: "blue" })
return <styled.div>x</styled.div>`

	res := optimizeSource(t, h, code, AllOptimizations(ModeOn))
	assert.False(t, res.Changed)
	assert.Equal(t, code, res.Code)
}

func TestOptimizeMultipleRewritesKeepOffsets(t *testing.T) {
	h := testHandle(nil)
	code := `const a = css({ color: "red" })
const b = css({ color: "blue" })`

	res := optimizeSource(t, h, code, OptimizeOptions{Stylesheet: ModeOn})
	require.True(t, res.Changed)

	red := h.ClassName(Usage{Kind: KindStylesheet, Body: `{ color: "red" }`})
	blue := h.ClassName(Usage{Kind: KindStylesheet, Body: `{ color: "blue" }`})
	assert.Equal(t, fmt.Sprintf("const a = %q\nconst b = %q", red, blue), res.Code)
}

func TestOptimizeOptionsEnabled(t *testing.T) {
	assert.False(t, OptimizeOptions{}.Enabled())
	assert.False(t, AllOptimizations(ModeOff).Enabled())
	assert.True(t, OptimizeOptions{Recipe: ModeAuto}.Enabled())
	assert.True(t, AllOptimizations(ModeOn).Enabled())
}
