// Package engine turns styling call sites found in source files into a
// generated stylesheet. It owns the source-file registry, the design-token
// configuration, and the CSS serialization; orchestration (when to parse,
// when to regenerate, how to deliver the output) lives with the caller.
package engine

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Handle bundles one loaded configuration with its source-file registry.
// A Handle is created once per configuration snapshot and replaced wholesale
// when the configuration changes.
type Handle struct {
	// Conf is the configuration snapshot this handle was created from.
	Conf *ConfigResult
	// Config is Conf.Config, exposed for convenience.
	Config *Config
	// Project is the source-file registry feeding sheet computation.
	Project *Project
	// Root is the absolute working root paths resolve against.
	Root string
}

// CreateContext binds a configuration snapshot to a working root.
func CreateContext(root string, res *ConfigResult) *Handle {
	return &Handle{
		Conf:    res,
		Config:  res.Config,
		Project: NewProject(),
		Root:    root,
	}
}

// Dependencies returns the absolute paths of all configuration-derived files:
// the config file itself, files the snapshot was derived from, and the
// user-declared dependency list.
func (h *Handle) Dependencies() []string {
	var deps []string
	if h.Conf.Path != "" {
		deps = append(deps, h.Conf.Path)
	}
	deps = append(deps, h.Conf.Dependencies...)
	for _, dep := range h.Config.Dependencies {
		if !filepath.IsAbs(dep) {
			dep = filepath.Join(h.Root, dep)
		}
		deps = append(deps, dep)
	}

	seen := make(map[string]bool, len(deps))
	unique := deps[:0]
	for _, dep := range deps {
		if !seen[dep] {
			seen[dep] = true
			unique = append(unique, dep)
		}
	}
	return unique
}

// Rule is one generated class rule.
type Rule struct {
	ClassName    string
	Declarations []Declaration
}

// Sheet is a single-use computation snapshot over the registry. It has no
// identity beyond the CreateSheet call that produced it; any registry change
// requires a fresh sheet.
type Sheet struct {
	rules []Rule
}

// Rules returns the generated rules sorted by class name.
func (s *Sheet) Rules() []Rule { return s.rules }

// CreateSheet computes the rule set for the registry's current contents.
func (h *Handle) CreateSheet() *Sheet {
	seen := make(map[string]bool)
	var rules []Rule

	for _, id := range h.Project.Files() {
		pr := h.Project.ParseSourceFile(id)
		for _, usage := range pr.Usages() {
			if usage.Body == "" {
				continue
			}
			decls := parseDeclarations(usage.Body)
			if len(decls) == 0 {
				continue
			}
			name := h.ClassName(usage)
			if seen[name] {
				continue
			}
			seen[name] = true
			rules = append(rules, Rule{ClassName: name, Declarations: decls})
		}
	}

	sort.Slice(rules, func(i, j int) bool { return rules[i].ClassName < rules[j].ClassName })
	return &Sheet{rules: rules}
}

// ClassName derives the stable class name for a usage. Identical call bodies
// produce identical names regardless of which file they appear in, so the
// optimizer and the sheet always agree.
func (h *Handle) ClassName(u Usage) string {
	sum := xxhash.Sum64String(string(u.Kind) + "|" + normalizeBody(u.Body))
	return fmt.Sprintf("%s-%08x", h.Config.Prefix, uint32(sum))
}

// normalizeBody strips insignificant whitespace so formatting-only edits do
// not change class names.
func normalizeBody(body string) string {
	return strings.Join(strings.Fields(body), " ")
}

// ToCSSOptions controls stylesheet serialization.
type ToCSSOptions struct {
	// Minify strips comments and collapses whitespace in the output.
	Minify bool
}

// ToCSS serializes a sheet. Output is deterministic: the token block comes
// first, rules follow sorted by class name.
func (h *Handle) ToCSS(sheet *Sheet, opts ToCSSOptions) (string, error) {
	var b strings.Builder

	if tokens := h.TokensCSS(); tokens != "" {
		b.WriteString(tokens)
		b.WriteByte('\n')
	}

	for _, rule := range sheet.rules {
		b.WriteByte('.')
		b.WriteString(rule.ClassName)
		b.WriteString(" {\n")
		for _, decl := range rule.Declarations {
			b.WriteString("  ")
			b.WriteString(decl.Property)
			b.WriteString(": ")
			b.WriteString(h.resolveValue(decl.Property, decl.Value))
			b.WriteString(";\n")
		}
		b.WriteString("}\n")
	}

	out := b.String()
	if opts.Minify {
		out = minifyCSS(out)
	}
	return out, nil
}

// TokensCSS renders the configured design tokens as CSS custom properties on
// :root. Empty when no tokens are configured.
func (h *Handle) TokensCSS() string {
	if len(h.Config.Tokens) == 0 {
		return ""
	}

	categories := make([]string, 0, len(h.Config.Tokens))
	for cat := range h.Config.Tokens {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	var b strings.Builder
	b.WriteString(":root {\n")
	for _, cat := range categories {
		names := make([]string, 0, len(h.Config.Tokens[cat]))
		for name := range h.Config.Tokens[cat] {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "  --%s-%s-%s: %s;\n", h.Config.Prefix, cat, name, h.Config.Tokens[cat][name])
		}
	}
	b.WriteString("}\n")
	return b.String()
}

// propertyCategories maps CSS properties to the token category their values
// resolve against.
var propertyCategories = map[string]string{
	"color":            "colors",
	"background":       "colors",
	"background-color": "colors",
	"border-color":     "colors",
	"outline-color":    "colors",
	"fill":             "colors",
	"stroke":           "colors",

	"padding":        "spacing",
	"padding-top":    "spacing",
	"padding-right":  "spacing",
	"padding-bottom": "spacing",
	"padding-left":   "spacing",
	"margin":         "spacing",
	"margin-top":     "spacing",
	"margin-right":   "spacing",
	"margin-bottom":  "spacing",
	"margin-left":    "spacing",
	"gap":            "spacing",
	"row-gap":        "spacing",
	"column-gap":     "spacing",

	"font-family":   "fonts",
	"font-size":     "fontSizes",
	"border-radius": "radii",
	"box-shadow":    "shadows",
}

// resolveValue maps token references to their CSS custom property. Values
// that are not configured tokens pass through unchanged.
func (h *Handle) resolveValue(property, value string) string {
	cat, ok := propertyCategories[property]
	if !ok {
		return value
	}
	if _, ok := h.Config.Tokens[cat][value]; !ok {
		return value
	}
	return fmt.Sprintf("var(--%s-%s-%s)", h.Config.Prefix, cat, value)
}
