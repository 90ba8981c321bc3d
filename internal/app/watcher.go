package app

import (
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// watchAnnotations watches the annotations directory and invokes onChange
// whenever a matching file appears, disappears or is rewritten, so the file
// selector stays current without a manual refresh. The caller owns the
// returned watcher and must Close it.
func watchAnnotations(dir, ext string, logger *zap.SugaredLogger, onChange func()) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !strings.EqualFold(filepath.Ext(event.Name), ext) {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) == 0 {
					continue
				}
				logger.Debugw("annotations directory changed", "event", event.String())
				onChange()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warnw("annotations watcher error", "error", err)
			}
		}
	}()
	return watcher, nil
}
