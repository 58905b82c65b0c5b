// Package watcher reloads the notebook when its data file is changed by
// another process.
package watcher

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/neuronote/internal/storage"
)

// DefaultDebounce coalesces bursts of file events into one reload.
const DefaultDebounce = 200 * time.Millisecond

// Reloader replaces in-memory state with the stored document.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Watch watches the directory holding store's data file until ctx is
// cancelled. Writes made through store itself are recognised by checksum
// and ignored; any other change triggers r.Reload after debounce.
func Watch(ctx context.Context, store storage.Provider, r Reloader, debounce time.Duration, logger *slog.Logger) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	target := filepath.Clean(store.Path())
	dir := filepath.Dir(target)
	if err := w.Add(dir); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("path", target))

	var timer *time.Timer
	var fire <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			fire = timer.C
			return
		}
		timer.Reset(debounce)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			timer = nil
			fire = nil
			reloadIfChanged(ctx, store, r, logger)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || strings.HasPrefix(filepath.Base(ev.Name), storage.TempPrefix) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reloadIfChanged reloads unless the file on disk is what store last read
// or wrote. A missing file is left alone; the next save recreates it.
func reloadIfChanged(ctx context.Context, store storage.Provider, r Reloader, logger *slog.Logger) {
	data, err := os.ReadFile(store.Path())
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("watcher: read failed", slog.String("error", err.Error()))
		}
		return
	}
	if storage.Checksum(data) == store.LastChecksum() {
		logger.Debug("watcher: own write ignored")
		return
	}
	if err := r.Reload(ctx); err != nil {
		logger.Warn("watcher: reload failed", slog.String("error", err.Error()))
		return
	}
	logger.Info("watcher: reloaded external change")
}
