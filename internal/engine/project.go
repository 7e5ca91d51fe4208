package engine

import (
	"regexp"
	"sort"
	"strings"
	"sync"
)

// UsageKind classifies a styling call site. The kinds double as the keys of
// the per-kind optimization switches.
type UsageKind string

const (
	KindStylesheet    UsageKind = "stylesheet"
	KindInlineVariant UsageKind = "inline-variant-call"
	KindPattern       UsageKind = "pattern"
	KindRecipe        UsageKind = "recipe"
	KindFactory       UsageKind = "factory"
	KindJSXPattern    UsageKind = "jsx-pattern"
)

// Usage is one styling call site found in a registered source file.
type Usage struct {
	Kind UsageKind
	// Body is the raw argument text of the call (empty for JSX usages).
	Body string
	// Start and End are byte offsets of the full call expression in the
	// registered source.
	Start, End int
	// Static reports whether the call arguments are statically analyzable
	// (no template literals, interpolation, or nested calls).
	Static bool
}

// ParseResult holds the styling usages of one source file.
// A nil ParseResult means the file was never registered.
type ParseResult struct {
	usages []Usage
}

// IsEmpty reports absence of styling usage. Safe on a nil result.
func (r *ParseResult) IsEmpty() bool {
	return r == nil || len(r.usages) == 0
}

// Usages returns the call sites in source order.
func (r *ParseResult) Usages() []Usage {
	if r == nil {
		return nil
	}
	return r.usages
}

type sourceFile struct {
	code   string
	parsed *ParseResult
}

// Project is the engine's source-file registry. Registration is
// last-write-wins per file id; parsing is lazy and cached per revision.
type Project struct {
	mu    sync.RWMutex
	files map[string]*sourceFile
}

// NewProject creates an empty registry.
func NewProject() *Project {
	return &Project{files: make(map[string]*sourceFile)}
}

// AddSourceFile registers code under id, replacing any prior registration.
func (p *Project) AddSourceFile(id, code string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.files[id] = &sourceFile{code: code}
}

// RemoveSourceFile drops the registration for id, if any.
func (p *Project) RemoveSourceFile(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.files, id)
}

// ParseSourceFile parses the registered source for styling usage.
// It returns nil when id was never registered.
func (p *Project) ParseSourceFile(id string) *ParseResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	f, ok := p.files[id]
	if !ok {
		return nil
	}
	if f.parsed == nil {
		f.parsed = parseSource(f.code)
	}
	return f.parsed
}

// Files returns the registered ids in sorted order.
func (p *Project) Files() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids := make([]string, 0, len(p.files))
	for id := range p.files {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered files.
func (p *Project) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.files)
}

// callPattern locates the opening of one styling call form.
type callPattern struct {
	kind  UsageKind
	regex *regexp.Regexp
}

var (
	// Call forms ordered from most to least specific. Each regex ends at
	// the opening parenthesis; the argument text is scanned manually so
	// nested parentheses and string literals are balanced correctly.
	callPatterns = []callPattern{
		{KindFactory, regexp.MustCompile(`\bstyled(?:\.[a-zA-Z][a-zA-Z0-9]*)?\(`)},
		{KindInlineVariant, regexp.MustCompile(`\bcva\(`)},
		{KindRecipe, regexp.MustCompile(`\brecipe\(`)},
		{KindPattern, regexp.MustCompile(`\b(?:hstack|vstack|stack|flex|grid|center|wrap)\(`)},
		{KindStylesheet, regexp.MustCompile(`\bcss\(`)},
	}

	// JSX pattern tags: <styled.div ...>
	jsxPattern = regexp.MustCompile(`<styled\.[a-zA-Z][a-zA-Z0-9]*[\s/>]`)
)

// parseSource extracts styling usages from source text.
func parseSource(code string) *ParseResult {
	var usages []Usage

	for _, pat := range callPatterns {
		for _, loc := range pat.regex.FindAllStringIndex(code, -1) {
			if isCommentedOut(code, loc[0]) {
				continue
			}
			open := loc[1] - 1
			end := scanBalanced(code, open)
			if end < 0 {
				continue
			}
			body := code[open+1 : end]
			usages = append(usages, Usage{
				Kind:   pat.kind,
				Body:   body,
				Start:  loc[0],
				End:    end + 1,
				Static: isStaticBody(body),
			})
		}
	}

	for _, loc := range jsxPattern.FindAllStringIndex(code, -1) {
		if isCommentedOut(code, loc[0]) {
			continue
		}
		usages = append(usages, Usage{
			Kind:  KindJSXPattern,
			Start: loc[0],
			End:   loc[1],
		})
	}

	sort.Slice(usages, func(i, j int) bool { return usages[i].Start < usages[j].Start })

	// Drop call matches nested inside an earlier match (e.g. the css() call
	// inside a styled() argument) so a call site is counted once.
	deduped := usages[:0]
	lastEnd := -1
	for _, u := range usages {
		if u.Start < lastEnd {
			continue
		}
		deduped = append(deduped, u)
		if u.End > lastEnd {
			lastEnd = u.End
		}
	}

	return &ParseResult{usages: deduped}
}

// isCommentedOut reports whether the line containing offset is a line comment.
func isCommentedOut(code string, offset int) bool {
	lineStart := strings.LastIndexByte(code[:offset], '\n') + 1
	line := strings.TrimSpace(code[lineStart:offset])
	return strings.HasPrefix(line, "//") || strings.HasPrefix(line, "*")
}

// scanBalanced returns the offset of the parenthesis closing the one at open,
// skipping string literals. Returns -1 when the call is unterminated.
func scanBalanced(code string, open int) int {
	depth := 0
	for i := open; i < len(code); i++ {
		switch code[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		case '"', '\'', '`':
			end := scanString(code, i)
			if end < 0 {
				return -1
			}
			i = end
		}
	}
	return -1
}

// scanString returns the offset of the closing quote for the string opened at
// start, honoring backslash escapes.
func scanString(code string, start int) int {
	quote := code[start]
	for i := start + 1; i < len(code); i++ {
		switch code[i] {
		case '\\':
			i++
		case quote:
			return i
		}
	}
	return -1
}

// isStaticBody reports whether a call body contains only literal values.
func isStaticBody(body string) bool {
	return !strings.ContainsAny(body, "`(") && !strings.Contains(body, "${")
}
