package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/quanswer/internal/logger"
)

// passageChanged reports whether ev rewrote the watched file. Editors often
// replace a file instead of writing it in place, so Create counts too.
func passageChanged(ev fsnotify.Event, path string) bool {
	if filepath.Clean(ev.Name) != filepath.Clean(path) {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)
}

// reloadInterval is the minimum spacing between passage reloads. Editors
// usually emit several events per save.
const reloadInterval = 200 * time.Millisecond

// watchPassage calls onChange with the new content whenever path changes,
// until ctx is done. The parent directory is watched so replaced files are
// still seen.
func watchPassage(ctx context.Context, path string, onChange func(string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watching %s: %w", path, err)
	}

	limiter := rate.NewLimiter(rate.Every(reloadInterval), 1)

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !passageChanged(ev, path) {
					continue
				}
				if err := limiter.Wait(ctx); err != nil {
					return
				}
				data, err := os.ReadFile(path)
				if err != nil {
					logger.Warn("Reloading %s: %v", path, err)
					continue
				}
				logger.Debug("Passage %s changed", path)
				onChange(string(data))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Watcher error: %v", err)
			}
		}
	}()
	return nil
}
