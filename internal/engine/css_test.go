package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDeclarations(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []Declaration
	}{
		{
			name: "quoted values",
			body: `{ color: "red", background: "blue" }`,
			want: []Declaration{
				{Property: "color", Value: "red"},
				{Property: "background", Value: "blue"},
			},
		},
		{
			name: "camelCase property",
			body: `{ backgroundColor: "blue", fontSize: "12px" }`,
			want: []Declaration{
				{Property: "background-color", Value: "blue"},
				{Property: "font-size", Value: "12px"},
			},
		},
		{
			name: "numeric values",
			body: `{ opacity: 0.5, zIndex: 10 }`,
			want: []Declaration{
				{Property: "opacity", Value: "0.5"},
				{Property: "z-index", Value: "10"},
			},
		},
		{
			name: "later duplicate wins in place",
			body: `{ color: "red", padding: "4px", color: "blue" }`,
			want: []Declaration{
				{Property: "color", Value: "blue"},
				{Property: "padding", Value: "4px"},
			},
		},
		{
			name: "string contents never produce keys",
			body: `{ content: "padding: 4px" }`,
			want: []Declaration{
				{Property: "content", Value: "padding: 4px"},
			},
		},
		{
			name: "unquoted identifier values skipped",
			body: `{ display: flex, color: "red" }`,
			want: []Declaration{
				{Property: "color", Value: "red"},
			},
		},
		{
			name: "empty body",
			body: `{}`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseDeclarations(tt.body)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestCamelToKebab(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"color", "color"},
		{"backgroundColor", "background-color"},
		{"borderTopLeftRadius", "border-top-left-radius"},
		{"-webkit-line-clamp", "-webkit-line-clamp"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, camelToKebab(tt.in))
	}
}

func TestMinifyCSS(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "collapses structural whitespace",
			in:   ".a {\n  color: red;\n}\n",
			want: ".a{color:red;}",
		},
		{
			name: "keeps spaces between value parts",
			in:   ".a {\n  margin: 4px 8px;\n}\n",
			want: ".a{margin:4px 8px;}",
		},
		{
			name: "strips comments",
			in:   ".a {\n  /* note */\n  color: red;\n}\n",
			want: ".a{color:red;}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, minifyCSS(tt.in))
		})
	}
}
