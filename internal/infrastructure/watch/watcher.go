package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 300 * time.Millisecond

// Watcher runs onChange with the base names of changed input files.
// Directories are watched without recursion, so compile output written to
// a build/ subdirectory never retriggers it.
type Watcher struct {
	fs       *fsnotify.Watcher
	filter   *Filter
	debounce time.Duration
	onChange func(ctx context.Context, files []string)
	logger   *slog.Logger
}

// New creates a watcher. A nil filter means InputFilter and a zero debounce
// means DefaultDebounce.
func New(debounce time.Duration, filter *Filter, onChange func(context.Context, []string), logger *slog.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if filter == nil {
		filter = InputFilter()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{fs: w, filter: filter, debounce: debounce, onChange: onChange, logger: logger}, nil
}

func (w *Watcher) Add(dir string) error {
	if err := w.fs.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	return nil
}

// Run blocks until ctx is cancelled or the fsnotify watcher fails.
// onChange is called from Run itself, one batch at a time.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	batches := make(chan []string, 1)
	debouncer := NewDebouncer(w.debounce, func(files []string) {
		select {
		case batches <- files:
		case <-ctx.Done():
		}
	})
	defer debouncer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case files := <-batches:
			w.logger.DebugContext(ctx, "workspace changed", "files", files)
			w.onChange(ctx, files)
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) &&
				!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
				continue
			}
			if !w.filter.Matches(event.Name) {
				continue
			}
			debouncer.Add(filepath.Base(event.Name))
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}
