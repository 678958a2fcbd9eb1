package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/platinummonkey/beacon/pkg/observability"
)

// Watch reloads the thresholds section of the YAML file at path whenever it
// changes and publishes the result into store. Invalid edits are logged and
// ignored so the last good thresholds stay in effect. Watch blocks until ctx
// is cancelled.
func Watch(ctx context.Context, path string, store *ThresholdStore, logger *observability.Logger, onChange func(Thresholds)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Editors commonly replace files via rename, so watch the directory
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	target := filepath.Clean(path)

	logger.Infof("Watching %s for threshold changes", target)
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
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			thresholds, err := LoadThresholdsFile(path, store.Load())
			if err != nil {
				logger.WithError(err).Warn("Ignoring invalid threshold update")
				continue
			}
			store.Store(thresholds)
			logger.WithField("file", target).Info("Thresholds reloaded")
			if onChange != nil {
				onChange(thresholds)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.WithError(err).Warn("Config watcher error")
		}
	}
}
