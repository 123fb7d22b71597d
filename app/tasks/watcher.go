package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watcherDebounce = 500 * time.Millisecond

// DatasetWatcher watches the topic dataset file and enqueues a sync task
// when it changes. Events are debounced because editors and deploy tooling
// often produce several writes per save.
type DatasetWatcher struct {
	dataFile  string
	scheduler TaskSchedulerInterface
}

func NewDatasetWatcher(dataFile string, scheduler TaskSchedulerInterface) *DatasetWatcher {
	return &DatasetWatcher{
		dataFile:  dataFile,
		scheduler: scheduler,
	}
}

// Run blocks until the context is cancelled. The parent directory is
// watched rather than the file itself so atomic rename-style rewrites keep
// being observed.
func (w *DatasetWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(w.dataFile)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	slog.Info("Dataset watcher started", "file", w.dataFile)

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	pending := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.dataFile) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			slog.Debug("Dataset change detected", "event", event.Op.String())

			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(watcherDebounce, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})

		case <-pending:
			slog.Info("Dataset changed, enqueueing sync", "file", w.dataFile)
			if err := w.scheduler.EnqueueTask(w.scheduler.NewSyncTask()); err != nil {
				slog.Warn("Failed to enqueue sync after dataset change", "error", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Dataset watcher error", "error", err)
		}
	}
}
