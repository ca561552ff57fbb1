package herobg

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"herobg/misc"
)

// ShaderWatcher reports new shader source whenever the file is written.
//
// It watches the file's directory instead of the file itself,
// since editors tend to save by replacing the file.
type ShaderWatcher struct {
	path    string
	watcher *fsnotify.Watcher

	changes chan []byte
	done    chan struct{}

	closeOnce sync.Once
	wg        sync.WaitGroup
}

func NewShaderWatcher(path string) (*ShaderWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, err
	}

	sw := &ShaderWatcher{
		path:    abs,
		watcher: watcher,
		changes: make(chan []byte, 1),
		done:    make(chan struct{}),
	}

	sw.wg.Add(1)
	go sw.watch()

	return sw, nil
}

// Changes delivers the latest source. Unread source is replaced by newer
// source rather than queued.
func (sw *ShaderWatcher) Changes() <-chan []byte {
	return sw.changes
}

func (sw *ShaderWatcher) watch() {
	defer sw.wg.Done()

	for {
		select {
		case <-sw.done:
			return
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(sw.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			src, err := os.ReadFile(sw.path)
			if err != nil {
				misc.WarnLogger.Printf("failed to read %s: %v", sw.path, err)
				continue
			}
			// half written file
			if len(src) == 0 {
				continue
			}

			sw.publish(src)
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			misc.WarnLogger.Printf("shader watcher: %v", err)
		}
	}
}

func (sw *ShaderWatcher) publish(src []byte) {
	for {
		select {
		case sw.changes <- src:
			return
		default:
		}

		// drop the stale source
		select {
		case <-sw.changes:
		default:
		}
	}
}

func (sw *ShaderWatcher) Close() error {
	var err error
	sw.closeOnce.Do(func() {
		close(sw.done)
		err = sw.watcher.Close()
		sw.wg.Wait()
	})
	return err
}
