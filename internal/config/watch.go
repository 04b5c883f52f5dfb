package config

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads configuration whenever the active config file is
// written, so a hand-edited YAML file takes effect without a restart.
type Watcher struct {
	fsw *fsnotify.Watcher
}

// WatchFile starts watching path's directory (not the file directly —
// editors and config-management tools commonly replace a file via
// rename-over rather than an in-place write, which a direct watch would
// miss) and invokes onReload with a freshly reloaded Config after every
// write/create event for path. Reload errors are reported through
// onError rather than a *logging.Logger: internal/logging imports
// internal/config, so importing logging back here would cycle.
//
// The returned Watcher must be closed to stop the background goroutine.
func WatchFile(path string, onReload func(*Config), onError func(error)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}

	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("fsnotify: watching %s: %w", dir, err)
	}

	w := &Watcher{fsw: fsw}
	go w.loop(path, onReload, onError)
	return w, nil
}

func (w *Watcher) loop(path string, onReload func(*Config), onError func(error)) {
	target := filepath.Clean(path)
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			cfg, err := LoadWithFile(path)
			if err != nil {
				if onError != nil {
					onError(fmt.Errorf("reload %s: %w", path, err))
				}
				continue
			}
			if onReload != nil {
				onReload(cfg)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if onError != nil {
				onError(err)
			}
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
