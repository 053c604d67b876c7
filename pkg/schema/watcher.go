package schema

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"chronodb/pkg/logging"
)

// Watcher reloads a schema override file whenever it changes on disk and
// hands each successfully parsed version to the configured callback.
// Parse failures keep the previous version in effect.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	onLoad  func(*Schema)
}

// NewWatcher starts watching the given schema file. The callback is
// invoked once with the initial contents before NewWatcher returns, then
// again after every change, from the watcher goroutine.
func NewWatcher(ctx context.Context, path string, onLoad func(*Schema)) (*Watcher, error) {
	initial, err := Load(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create schema watcher: %w", err)
	}

	// Watch the directory: editors replace files on save, and watching
	// the path directly loses the watch after the first rename.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch schema directory: %w", err)
	}

	w := &Watcher{path: path, watcher: fsw, onLoad: onLoad}
	onLoad(initial)
	go w.loop(ctx)
	return w, nil
}

// Close stops the watcher. Safe to call more than once.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) loop(ctx context.Context) {
	log := logging.Component("schema")
	for {
		select {
		case <-ctx.Done():
			w.watcher.Close()
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			fresh, err := Load(w.path)
			if err != nil {
				log.Warn("schema reload failed, keeping previous version",
					"path", w.path, "error", err)
				continue
			}
			log.Info("schema reloaded", "path", w.path, "columns", fresh.ColumnCount())
			w.onLoad(fresh)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warn("schema watcher error", "path", w.path, "error", err)
		}
	}
}
