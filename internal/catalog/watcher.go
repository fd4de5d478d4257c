package catalog

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadCallback is called after a watcher-driven catalog reload.
type ReloadCallback func()

// Watch monitors the seed file for changes and re-syncs the catalog until
// ctx is cancelled. Events are debounced because editors typically emit a
// burst of writes per save. cb (if non-nil) runs after each reload that
// actually changed the catalog.
//
// The parent directory is watched rather than the file itself so that
// atomic-rename saves (write temp, rename over target) keep working.
func Watch(ctx context.Context, seeder *Seeder, logger *slog.Logger, cb ReloadCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(seeder.path)
	if err := w.Add(dir); err != nil {
		return err
	}

	logger.Info("catalog watcher: started", slog.String("seed", seeder.path))

	var debounce *time.Timer
	var debounceCh <-chan time.Time

	scheduleReload := func() {
		if debounce == nil {
			debounce = time.NewTimer(200 * time.Millisecond)
			debounceCh = debounce.C
		} else {
			debounce.Reset(200 * time.Millisecond)
		}
	}

	target := filepath.Clean(seeder.path)

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			logger.Info("catalog watcher: stopped")
			return nil

		case <-debounceCh:
			changed, err := seeder.Sync()
			if err != nil {
				logger.Warn("catalog watcher: reload failed", slog.String("error", err.Error()))
				continue
			}
			if changed && cb != nil {
				cb()
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				scheduleReload()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("catalog watcher: error", slog.String("error", err.Error()))
		}
	}
}
