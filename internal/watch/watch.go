// Package watch re-runs a callback when schema files change on disk. Edits
// are debounced so an editor save burst triggers one run, not five.
package watch

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce coalesces rapid saves into a single callback.
const DefaultDebounce = 500 * time.Millisecond

// Callback runs after the debounce window closes. Errors are logged, not
// fatal; the watcher keeps running until the context ends.
type Callback func(ctx context.Context) error

// Watcher monitors one directory for schema file changes.
type Watcher struct {
	dir      string
	debounce time.Duration
	logger   *zap.Logger
}

// Option customises a Watcher.
type Option func(*Watcher)

// WithDebounce overrides the coalescing window.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger injects a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New constructs a watcher for dir.
func New(dir string, options ...Option) (*Watcher, error) {
	if dir == "" {
		return nil, errors.New("watch: directory is required")
	}
	w := &Watcher{
		dir:      dir,
		debounce: DefaultDebounce,
		logger:   zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(w)
	}
	return w, nil
}

// Run blocks until the context ends, invoking fn after each debounced burst
// of schema file changes.
func (w *Watcher) Run(ctx context.Context, fn Callback) error {
	if fn == nil {
		return errors.New("watch: callback is required")
	}

	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer notifier.Close()

	if err := notifier.Add(w.dir); err != nil {
		return err
	}
	w.logger.Info("watching for schema changes", zap.String("dir", w.dir))

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-notifier.Events:
			if !ok {
				return nil
			}
			if !isSchemaFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("schema change", zap.String("file", event.Name), zap.String("op", event.Op.String()))
			if pending {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
			}
			timer.Reset(w.debounce)
			pending = true

		case err, ok := <-notifier.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))

		case <-timer.C:
			pending = false
			if err := fn(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				w.logger.Error("resync failed", zap.Error(err))
			}
		}
	}
}

func isSchemaFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
