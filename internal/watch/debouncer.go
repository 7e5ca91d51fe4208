// Package watch provides the file-system watching used by standalone (CLI)
// sessions: a recursive fsnotify watcher feeding a debouncer that coalesces
// event bursts into change batches.
package watch

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid change events into batches. Editors and
// toolchains commonly emit several events per save; one batch per burst keeps
// regeneration work proportional to user actions.
type Debouncer struct {
	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	window  time.Duration
	fn      func(paths []string)
}

// NewDebouncer creates a debouncer that calls fn with the coalesced paths
// once no new event has arrived for the given window.
func NewDebouncer(window time.Duration, fn func(paths []string)) *Debouncer {
	return &Debouncer{
		pending: make(map[string]struct{}),
		window:  window,
		fn:      fn,
	}
}

// Add records a changed path and (re)arms the window timer.
func (d *Debouncer) Add(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending[path] = struct{}{}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	paths := d.takeLocked()
	d.timer = nil
	d.mu.Unlock()

	if len(paths) > 0 {
		d.fn(paths)
	}
}

// Flush delivers any pending paths immediately and synchronously. Used on
// shutdown so queued work finishes before the process exits.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		if !d.timer.Stop() {
			// The timer already fired; let that delivery complete.
			d.mu.Unlock()
			return
		}
		d.timer = nil
	}
	paths := d.takeLocked()
	d.mu.Unlock()

	if len(paths) > 0 {
		d.fn(paths)
	}
}

func (d *Debouncer) takeLocked() []string {
	paths := make([]string, 0, len(d.pending))
	for path := range d.pending {
		paths = append(paths, path)
	}
	d.pending = make(map[string]struct{})
	return paths
}
