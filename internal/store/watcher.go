package store

import (
	"context"
	"sync"
	"time"

	"medstore/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports keys of a FileStorage that were changed on disk, e.g. by a
// second medstore process sharing the same workspace.
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	dir         string
	changes     chan string
	debounceDur time.Duration
	pending     map[string]time.Time
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
}

// NewWatcher creates a watcher for the storage directory. Call Start to begin.
func (f *FileStorage) NewWatcher() (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:     w,
		dir:         f.dir,
		changes:     make(chan string, 16),
		debounceDur: 50 * time.Millisecond,
		pending:     make(map[string]time.Time),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Changes delivers changed keys. Slow consumers lose events rather than
// blocking the watcher.
func (w *Watcher) Changes() <-chan string { return w.changes }

// Start begins watching. It is non-blocking.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.dir); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}
	logging.Store("Watcher: watching %s", w.dir)

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	wasRunning := w.running
	w.running = false
	w.mu.Unlock()

	if wasRunning {
		close(w.stopCh)
		<-w.doneCh
	}
	if err := w.watcher.Close(); err != nil {
		logging.StoreError("Watcher: error closing watcher: %v", err)
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.debounceDur)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			key := keyFromPath(event.Name)
			if key == "" {
				continue
			}
			w.pending[key] = time.Now()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.StoreWarn("Watcher: fsnotify error: %v", err)

		case <-ticker.C:
			w.flush()
		}
	}
}

// flush emits keys whose last event is older than the debounce window.
func (w *Watcher) flush() {
	now := time.Now()
	for key, at := range w.pending {
		if now.Sub(at) < w.debounceDur {
			continue
		}
		delete(w.pending, key)
		select {
		case w.changes <- key:
			logging.StoreDebug("Watcher: %s changed", key)
		default:
		}
	}
}
