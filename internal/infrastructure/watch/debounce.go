// Package watch recompiles a workspace when its input files change.
package watch

import (
	"slices"
	"sync"
	"time"
)

// Debouncer collects keys and hands them to flush, sorted and
// deduplicated, once window has passed without a new key.
type Debouncer struct {
	window  time.Duration
	flush   func(keys []string)
	mu      sync.Mutex
	timer   *time.Timer
	pending map[string]struct{}
}

func NewDebouncer(window time.Duration, flush func(keys []string)) *Debouncer {
	return &Debouncer{
		window:  window,
		flush:   flush,
		pending: make(map[string]struct{}),
	}
}

// Add records key and restarts the window.
func (d *Debouncer) Add(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending[key] = struct{}{}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	keys := make([]string, 0, len(d.pending))
	for k := range d.pending {
		keys = append(keys, k)
	}
	clear(d.pending)
	d.mu.Unlock()

	if len(keys) == 0 {
		return
	}
	slices.Sort(keys)
	d.flush(keys)
}

// Stop drops pending keys without flushing them.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	clear(d.pending)
}
