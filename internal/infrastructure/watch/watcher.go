// Package watch reports changes to the datasets of a folder.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/alexisbeaulieu97/volsource/internal/infrastructure/logging"
	"github.com/alexisbeaulieu97/volsource/internal/ports"
)

// ChangeFunc receives the base names changed during one debounce window.
type ChangeFunc func(ctx context.Context, names []string)

// Watcher watches one directory and calls its ChangeFunc once activity has
// been quiet for the debounce period.
type Watcher struct {
	dir      string
	onChange ChangeFunc
	match    func(name string) bool
	debounce time.Duration
	logger   ports.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger.
func WithLogger(logger ports.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithDebounce sets the quiet period.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithMatch restricts notifications to names accepted by match.
func WithMatch(match func(name string) bool) Option {
	return func(w *Watcher) {
		w.match = match
	}
}

// New creates a watcher for dir.
func New(dir string, onChange ChangeFunc, opts ...Option) (*Watcher, error) {
	if onChange == nil {
		return nil, fmt.Errorf("watch: change callback is required")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch: %s is not a directory", dir)
	}

	w := &Watcher{
		dir:      dir,
		onChange: onChange,
		match:    func(string) bool { return true },
		debounce: 500 * time.Millisecond,
		logger:   logging.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch: add %s: %w", w.dir, err)
	}
	w.logger.Info(ctx, "folder watcher started", "folder", w.dir, "debounce", w.debounce.String())

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()
	pending := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "folder watcher stopped", "folder", w.dir)
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			name := filepath.Base(event.Name)
			if !w.match(name) {
				continue
			}
			w.logger.Debug(ctx, "folder entry changed", "file", name, "op", event.Op.String())
			pending[name] = struct{}{}
			timer.Reset(w.debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			names := make([]string, 0, len(pending))
			for name := range pending {
				names = append(names, name)
			}
			sort.Strings(names)
			clear(pending)
			w.onChange(ctx, names)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error(ctx, "folder watcher error", "folder", w.dir, "error", err)
		}
	}
}

func relevant(event fsnotify.Event) bool {
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}
