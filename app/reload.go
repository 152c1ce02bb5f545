package app

import (
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// routesWatcher rebuilds the route table when the routes directory
// changes. Events are debounced so a burst of file operations produces a
// single rebuild.
type routesWatcher struct {
	app       *App
	watcher   *fsnotify.Watcher
	done      chan struct{}
	closeOnce sync.Once
}

const reloadDebounce = 200 * time.Millisecond

func newRoutesWatcher(app *App) (*routesWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	rw := &routesWatcher{
		app:     app,
		watcher: watcher,
		done:    make(chan struct{}),
	}
	rw.addRecursive(app.cfg.Routes.Dir)

	go rw.loop()
	return rw, nil
}

// addRecursive watches a directory tree. Unreadable subdirectories are
// logged and skipped, matching the scanner's failure semantics.
func (rw *routesWatcher) addRecursive(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			rw.app.logger.Warn("cannot watch path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := rw.watcher.Add(path); err != nil {
			rw.app.logger.Warn("cannot watch directory", zap.String("path", path), zap.Error(err))
		}
		return nil
	})
}

func (rw *routesWatcher) loop() {
	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case event, ok := <-rw.watcher.Events:
			if !ok {
				return
			}
			if event.Op.Has(fsnotify.Create) {
				// New directories must be watched before files appear in
				// them.
				rw.addRecursive(event.Name)
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
				timerCh = timer.C
			} else {
				timer.Reset(reloadDebounce)
			}

		case <-timerCh:
			timer = nil
			timerCh = nil
			rw.app.Reload()

		case err, ok := <-rw.watcher.Errors:
			if !ok {
				return
			}
			rw.app.logger.Warn("routes watcher error", zap.Error(err))

		case <-rw.done:
			return
		}
	}
}

func (rw *routesWatcher) close() {
	rw.closeOnce.Do(func() {
		close(rw.done)
		rw.watcher.Close()
	})
}
