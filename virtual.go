package loom

import "strings"

// Virtual module identities. The resolved form carries a NUL prefix so it can
// never collide with a real filesystem path; only this registry resolves it.
const (
	// ModuleID is the symbolic id user code imports the stylesheet by.
	ModuleID = "virtual:loom.css"
	// HelpersModuleID is the symbolic id of the runtime helper snippet used
	// by optimized output.
	HelpersModuleID = "virtual:loom/helpers"

	resolvedPrefix = "\x00"

	// ResolvedModuleID is the registry-resolved form of ModuleID.
	ResolvedModuleID = resolvedPrefix + ModuleID
	// ResolvedHelpersID is the registry-resolved form of HelpersModuleID.
	ResolvedHelpersID = resolvedPrefix + HelpersModuleID
)

// ResolveVirtualID maps a symbolic virtual id to its resolved form.
// The second return value is false for ids this registry does not own,
// signaling the caller to let another resolver try.
func ResolveVirtualID(id string) (string, bool) {
	switch id {
	case ModuleID:
		return ResolvedModuleID, true
	case HelpersModuleID:
		return ResolvedHelpersID, true
	}
	return "", false
}

// IsResolvedID reports whether id is one of the registry's resolved forms.
func IsResolvedID(id string) bool {
	return strings.HasPrefix(id, resolvedPrefix) &&
		(id == ResolvedModuleID || id == ResolvedHelpersID)
}

// helpersVersion tracks the embedded runtime snippet. Bump it together with
// any change to helpersSource so hosts cache-bust the helper module.
const helpersVersion = "1"

// helpersSource is the runtime helper module served for HelpersModuleID.
// It is maintained as a static snippet rather than derived from live code.
const helpersSource = `// loom runtime helpers v` + helpersVersion + `
export function cx(...parts) {
  return parts.filter(Boolean).join(" ");
}

export function createRuntimeFn(base) {
  return () => base;
}
`

// HelpersSource returns the source text of the runtime helper module.
func HelpersSource() string { return helpersSource }
