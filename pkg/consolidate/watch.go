package consolidate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/fsnotify.v1"

	"github.com/coolbeans/plenario/pkg/dataset"
)

// DefaultDebounce spaces re-runs while a collector is still writing files.
const DefaultDebounce = 2 * time.Second

// WatchDataset runs once, then watches the dataset directories under root
// and calls run again whenever changes settle for the debounce window. It
// blocks until the context ends.
func WatchDataset(ctx context.Context, root string, debounce time.Duration, logger *zap.Logger, run func()) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	watched := 0
	for _, dir := range dataset.WatchDirs(root) {
		if err := watcher.Add(dir); err != nil {
			logger.Debug("not watching directory", zap.String("dir", dir), zap.Error(err))
			continue
		}
		watched++
	}
	if watched == 0 {
		return fmt.Errorf("no dataset directories to watch under %s", root)
	}

	run()

	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, ".json") {
				continue
			}
			logger.Debug("dataset change", zap.String("file", event.Name), zap.String("op", event.Op.String()))
			if pending && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)
			pending = true

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))

		case <-timer.C:
			pending = false
			run()
		}
	}
}
