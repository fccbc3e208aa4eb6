package config

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the config at path whenever it is written and passes the
// result to onChange, until ctx is done. Files that fail to load are skipped.
func Watch(ctx context.Context, path string, onChange func(Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	target := filepath.Clean(path)

	// Editors often save by renaming over the file, so watch the directory.
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}

				cfg, err := Load(target)
				if err != nil {
					slog.Warn("config reload failed", "path", target, "error", err)
					continue
				}

				slog.Debug("config reloaded", "path", target, "provider", cfg.Provider)
				onChange(cfg)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("config watcher error", "error", err)
			}
		}
	}()

	return nil
}
