package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the configuration whenever filename changes and passes
// the freshly loaded value to onChange. Reload failures are logged and
// the previous configuration stays in effect. Watch blocks until ctx is
// cancelled.
//
// The parent directory is watched rather than the file itself, so
// editors and config managers that replace the file via rename are
// picked up.
func Watch[T any](ctx context.Context, filename string, logger *slog.Logger, onChange func(*T)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watch: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(filename)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("config watch %s: %w", dir, err)
	}

	target := filepath.Clean(filename)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg := new(T)
			if err := Load(filename, cfg); err != nil {
				logger.Warn("config reload failed, keeping previous",
					slog.String("file", filename), slog.String("error", err.Error()))
				continue
			}
			logger.Info("config reloaded", slog.String("file", filename))
			onChange(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher error", slog.String("error", err.Error()))
		}
	}
}
