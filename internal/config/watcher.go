package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadFunc receives the freshly loaded config, or the error that stopped it loading.
type ReloadFunc func(cfg *Config, err error)

// Watcher reloads a config file whenever it changes on disk.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	onReload ReloadFunc
	debounce time.Duration

	mu     sync.Mutex
	timer  *time.Timer
	cancel context.CancelFunc
}

// NewWatcher watches the directory holding path, since editors usually
// replace a file instead of writing it in place.
func NewWatcher(path string, onReload ReloadFunc) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	path = filepath.Clean(path)
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}

	return &Watcher{
		path:     path,
		watcher:  fw,
		onReload: onReload,
		debounce: 500 * time.Millisecond,
	}, nil
}

// Start begins watching until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				w.handleEvent(event)
			case _, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
}

// Stop stops watching and drops any pending reload.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	w.watcher.Close()
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	w.onReload(cfg, err)
}
