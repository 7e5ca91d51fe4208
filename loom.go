// Package loom integrates styling-usage extraction with a host bundler.
//
// loom scans the source files a build host feeds it for styling call sites,
// aggregates them into a single generated stylesheet, and exposes that
// stylesheet as a virtual module the host can resolve and load. During a
// long-lived dev session it keeps the artifact fresh: configuration changes
// reload the whole engine context, tracked source changes trigger a
// recomputation, and everything else is ignored.
//
// # Plugin usage
//
// Create a plugin and wire its hooks into the host:
//
//	plugin := loom.New(loom.Options{
//		Cwd:     projectRoot,
//		Include: []string{"**/*.tsx"},
//	})
//	// host calls plugin.ResolveID, plugin.Load, plugin.Transform,
//	// plugin.ServerStart and plugin.HandleChange from its lifecycle hooks.
//
// The generated stylesheet is served for loom.ModuleID; setting
// Options.Outfile additionally persists it to disk on every regeneration.
//
// # CLI Tool
//
// loom also provides a CLI for one-shot generation and a standalone watch
// mode. Install with:
//
//	go install github.com/loomcss/loom/cmd/loom@latest
package loom
