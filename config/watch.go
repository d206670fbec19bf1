package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay coalesces the burst of events editors produce for one save.
const reloadDelay = 200 * time.Millisecond

// Watch calls fn with the freshly loaded configuration whenever the file at
// path changes, until ctx is done. Files that fail to load or validate are
// logged and skipped; fn keeps the last good configuration.
func Watch(ctx context.Context, path string, fn func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	// Watch the directory: atomic saves replace the file and drop file watches.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch config dir: %w", err)
	}

	go func() {
		defer watcher.Close()

		var pending <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(path) {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
					pending = time.After(reloadDelay)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("config watcher", "error", err)
			case <-pending:
				pending = nil
				cfg, err := LoadFrom(path)
				if err != nil {
					slog.Error("reload config", "path", path, "error", err)
					continue
				}
				slog.Info("config reloaded", "path", path)
				fn(cfg)
			}
		}
	}()

	return nil
}
