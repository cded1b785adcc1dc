package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet window used when none is configured.
const DefaultDebounce = 500 * time.Millisecond

// Filter decides which names are part of the corpus. source.Loader
// satisfies it.
type Filter interface {
	IsPrivate(name string) bool
	IsDocument(name string) bool
}

// RebuildFunc is invoked once per debounced batch with the changed paths,
// relative to the corpus root and slash-separated.
type RebuildFunc func(ctx context.Context, changed []string) error

// Watcher triggers rebuilds on corpus changes.
type Watcher struct {
	root     string
	filter   Filter
	debounce time.Duration
	logger   *slog.Logger
	fsw      *fsnotify.Watcher
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet window between the last change and a rebuild.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWatcher creates a watcher for the corpus at root.
func NewWatcher(root string, filter Filter, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve absolute path: %w", err)
	}
	w := &Watcher{
		root:     abs,
		filter:   filter,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With("component", "watch")
	return w, nil
}

// Run watches until ctx is cancelled, calling rebuild after each burst of
// changes. Rebuild errors are logged and watching continues. Run returns nil
// on cancellation.
func (w *Watcher) Run(ctx context.Context, rebuild RebuildFunc) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()
	w.fsw = fsw

	if err := w.addRecursive(w.root); err != nil {
		return fmt.Errorf("add directories to watcher: %w", err)
	}

	debouncer := NewDebouncer(w.debounce)
	defer debouncer.Stop()

	w.logger.Info("watching corpus", "root", w.root, "debounce", w.debounce)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if rel, ok := w.handleEvent(event); ok {
				debouncer.Add(rel)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "err", err)
		case changed, ok := <-debouncer.Output():
			if !ok {
				return nil
			}
			w.logger.Info("corpus changed, rebuilding", "paths", len(changed))
			if err := rebuild(ctx, changed); err != nil {
				if errors.Is(err, context.Canceled) && ctx.Err() != nil {
					return nil
				}
				w.logger.Error("rebuild failed", "err", err)
			}
		}
	}
}

// handleEvent filters an fsnotify event and returns the relative path to
// record. New directories are added to the watch list.
func (w *Watcher) handleEvent(event fsnotify.Event) (string, bool) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil || rel == "." {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if w.isPrivatePath(rel) {
		return "", false
	}

	isDir := false
	if info, err := os.Stat(event.Name); err == nil {
		isDir = info.IsDir()
	}

	switch {
	case event.Has(fsnotify.Create):
		if isDir {
			if err := w.addRecursive(event.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "path", rel, "err", err)
			}
			return rel, true
		}
	case event.Has(fsnotify.Write):
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		// A removed directory can no longer be inspected; extensionless
		// names are treated as directories.
		if filepath.Ext(rel) == "" {
			return rel, true
		}
	default:
		return "", false
	}

	if isDir || !w.filter.IsDocument(filepath.Base(rel)) {
		return "", false
	}
	return rel, true
}

func (w *Watcher) isPrivatePath(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if w.filter.IsPrivate(part) {
			return true
		}
	}
	return false
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip directories we can't access
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.filter.IsPrivate(d.Name()) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}
