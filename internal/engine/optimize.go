package engine

import (
	"fmt"
	"strings"
)

// OptimizeMode selects how aggressively one usage kind is rewritten.
type OptimizeMode string

const (
	// ModeOff disables rewriting for the kind.
	ModeOff OptimizeMode = "off"
	// ModeOn rewrites every statically analyzable call site of the kind.
	ModeOn OptimizeMode = "on"
	// ModeAuto rewrites static call sites only in files where every call
	// site of that kind is static, so mixed files keep consistent runtime
	// behavior.
	ModeAuto OptimizeMode = "auto"
)

// OptimizeOptions holds the per-kind switches. The zero value (empty modes)
// behaves as everything off.
type OptimizeOptions struct {
	Stylesheet        OptimizeMode
	InlineVariantCall OptimizeMode
	Pattern           OptimizeMode
	Recipe            OptimizeMode
	Factory           OptimizeMode
	JSXPattern        OptimizeMode

	// HelpersImport is the module specifier the rewritten code imports
	// runtime helpers from. Required when any variant/recipe rewrite fires.
	HelpersImport string
}

// AllOptimizations returns options with every kind set to mode.
func AllOptimizations(mode OptimizeMode) OptimizeOptions {
	return OptimizeOptions{
		Stylesheet:        mode,
		InlineVariantCall: mode,
		Pattern:           mode,
		Recipe:            mode,
		Factory:           mode,
		JSXPattern:        mode,
	}
}

func (o OptimizeOptions) modeFor(kind UsageKind) OptimizeMode {
	switch kind {
	case KindStylesheet:
		return o.Stylesheet
	case KindInlineVariant:
		return o.InlineVariantCall
	case KindPattern:
		return o.Pattern
	case KindRecipe:
		return o.Recipe
	case KindFactory:
		return o.Factory
	case KindJSXPattern:
		return o.JSXPattern
	}
	return ModeOff
}

// OptimizeResult is the outcome of a source-optimization pass.
type OptimizeResult struct {
	Code    string
	Changed bool
}

// Optimize rewrites statically analyzable styling calls in code to their
// precomputed class names. The parse result must come from the same revision
// of code. Factory and JSX usages are structural and never rewritten; their
// modes are accepted for completeness.
func (h *Handle) Optimize(pr *ParseResult, code string, opts OptimizeOptions) OptimizeResult {
	usages := pr.Usages()
	if len(usages) == 0 {
		return OptimizeResult{Code: code}
	}

	// For auto mode: a kind is eligible in this file only when all of its
	// call sites are static.
	dynamicKinds := make(map[UsageKind]bool)
	for _, u := range usages {
		if !u.Static {
			dynamicKinds[u.Kind] = true
		}
	}

	var (
		out          = code
		changed      bool
		needsHelpers bool
	)

	// Rewrite back to front so earlier offsets stay valid.
	for i := len(usages) - 1; i >= 0; i-- {
		u := usages[i]
		if !u.Static || u.Body == "" {
			continue
		}
		switch opts.modeFor(u.Kind) {
		case ModeOn:
		case ModeAuto:
			if dynamicKinds[u.Kind] {
				continue
			}
		default:
			continue
		}

		var replacement string
		switch u.Kind {
		case KindStylesheet, KindPattern:
			replacement = fmt.Sprintf("%q", h.ClassName(u))
		case KindInlineVariant, KindRecipe:
			replacement = fmt.Sprintf("createRuntimeFn(%q)", h.ClassName(u))
			needsHelpers = true
		default:
			continue
		}

		out = out[:u.Start] + replacement + out[u.End:]
		changed = true
	}

	if needsHelpers && opts.HelpersImport != "" && !strings.Contains(out, opts.HelpersImport) {
		out = fmt.Sprintf("import { createRuntimeFn } from %q;\n", opts.HelpersImport) + out
	}

	return OptimizeResult{Code: out, Changed: changed}
}

// Enabled reports whether any kind is switched on.
func (o OptimizeOptions) Enabled() bool {
	for _, mode := range []OptimizeMode{
		o.Stylesheet, o.InlineVariantCall, o.Pattern, o.Recipe, o.Factory, o.JSXPattern,
	} {
		if mode == ModeOn || mode == ModeAuto {
			return true
		}
	}
	return false
}
