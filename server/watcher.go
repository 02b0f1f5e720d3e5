package server

import (
	"path/filepath"
	"strings"
	"time"

	"mixtape/core/catalog"
	"mixtape/logger"

	"github.com/fsnotify/fsnotify"
)

// watchSongsDir watches the songs directory and schedules a catalog scan
// when MP3s appear or disappear, so files dropped in over SFTP show up
// without waiting for a page load. Events are debounced because a single
// upload produces a burst of writes.
func watchSongsDir(dir string, cat *catalog.Catalog, stop <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()

		var debounce *time.Timer
		trigger := func() {
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(2*time.Second, func() {
				if _, err := cat.Scan(); err != nil {
					logger.Warn("watcher scan failed", logger.ErrorField(err))
				}
			})
		}

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !strings.EqualFold(filepath.Ext(event.Name), ".mp3") {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					logger.Debug("songs directory changed",
						logger.String("file", filepath.Base(event.Name)),
						logger.String("op", event.Op.String()))
					trigger()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("songs watcher error", logger.ErrorField(err))
			case <-stop:
				if debounce != nil {
					debounce.Stop()
				}
				return
			}
		}
	}()

	return nil
}
