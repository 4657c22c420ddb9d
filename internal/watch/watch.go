// Package watch notices edits made to the file store by anything other than
// this process and asks the garden to reload.
package watch

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/planthub/internal/checksum"
	"github.com/starford/planthub/internal/kvstore"
)

// DefaultDebounce coalesces the burst of events a single save produces.
const DefaultDebounce = 200 * time.Millisecond

// Store is the part of kvstore.FS the watcher needs.
type Store interface {
	Root() string
	KeyForPath(path string) (string, bool)
	LastWritten(key string) string
}

var _ Store = (*kvstore.FS)(nil)

// Watch runs until ctx is cancelled. Changes to the given keys that do not
// match the store's own last write trigger onChange once per debounce window.
func Watch(ctx context.Context, store Store, keys []string, debounce time.Duration, logger *slog.Logger, onChange func(context.Context)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(store.Root()); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("root", store.Root()))

	watched := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		watched[k] = struct{}{}
	}

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
			logger.Info("watcher: external change, reloading")
			onChange(ctx)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			key, ok := store.KeyForPath(ev.Name)
			if !ok {
				continue
			}
			if _, ok := watched[key]; !ok {
				continue
			}

			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				data, readErr := os.ReadFile(ev.Name)
				if readErr != nil {
					// Gone again before we could read it; a later event follows.
					continue
				}
				if checksum.Matches(data, store.LastWritten(key)) {
					continue
				}
				logger.Debug("watcher: changed", slog.String("key", key))
				schedule()
				continue
			}
			if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				logger.Debug("watcher: removed", slog.String("key", key))
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
