package render

import (
	"context"
	"path/filepath"
	"time"

	"pdf-annotator-be/internal/pkg/logger"

	"github.com/fsnotify/fsnotify"
)

const iconReloadDelay = 500 * time.Millisecond

// IconWatcher reloads an IconSet when files in its directory change.
type IconWatcher struct {
	icons   *IconSet
	logger  logger.ILogger
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
}

func NewIconWatcher(icons *IconSet, log logger.ILogger) *IconWatcher {
	return &IconWatcher{icons: icons, logger: log}
}

// Start begins watching. It is a no-op for sets without a directory.
func (w *IconWatcher) Start() error {
	if w.icons.Dir() == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dir, err := filepath.Abs(w.icons.Dir())
	if err != nil {
		watcher.Close()
		return err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}
	w.watcher = watcher

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	go w.loop(ctx, watcher)

	w.logger.Info("IconWatcher", "Watching icon directory", map[string]interface{}{"dir": dir})
	return nil
}

func (w *IconWatcher) loop(ctx context.Context, watcher *fsnotify.Watcher) {
	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(iconReloadDelay, w.reload)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("IconWatcher", "Watcher error", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (w *IconWatcher) reload() {
	if err := w.icons.Reload(); err != nil {
		w.logger.Warn("IconWatcher", "Icons reloaded with missing entries", map[string]interface{}{"error": err.Error()})
		return
	}
	w.logger.Info("IconWatcher", "Icons reloaded", nil)
}

func (w *IconWatcher) Stop() {
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	if w.watcher != nil {
		w.watcher.Close()
		w.watcher = nil
	}
}
