package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// skipDirectories are never descended into or watched.
var skipDirectories = map[string]bool{
	".git":         true,
	".jj":          true,
	"node_modules": true,
	"dist":         true,
	"build":        true,
}

// Watcher watches a directory tree recursively and reports write/create/
// remove/rename events as debounced path batches.
type Watcher struct {
	fsw    *fsnotify.Watcher
	deb    *Debouncer
	logger *slog.Logger
}

// New creates a watcher delivering coalesced change batches to fn after the
// given debounce window.
func New(window time.Duration, fn func(paths []string), logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		fsw:    fsw,
		deb:    NewDebouncer(window, fn),
		logger: logger,
	}, nil
}

// Start watches root recursively and begins delivering events until ctx is
// canceled or Close is called.
func (w *Watcher) Start(ctx context.Context, root string) error {
	if err := w.addTree(root); err != nil {
		return err
	}
	go w.loop(ctx)
	return nil
}

// Add watches a single extra path, typically a configuration dependency
// outside the watched tree.
func (w *Watcher) Add(path string) error {
	// fsnotify watches directories; watching the parent covers the file.
	return w.fsw.Add(filepath.Dir(path))
}

// Close stops the watcher and delivers any pending batch.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	w.deb.Flush()
	return err
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable directories are skipped, not fatal.
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if skipDirectories[d.Name()] {
			return fs.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// New directories join the watch so nested creates are seen.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !skipDirectories[info.Name()] {
						_ = w.addTree(event.Name)
					}
					continue
				}
			}
			w.deb.Add(event.Name)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}
