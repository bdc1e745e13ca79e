package config

import "sync"

// Watcher fans out configuration-change notifications. The editor
// integration fires it whenever workspace settings affecting Jupyter change;
// engine caches subscribe to invalidate themselves.
type Watcher struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]func()
}

// NewWatcher returns an empty watcher.
func NewWatcher() *Watcher {
	return &Watcher{listeners: make(map[int]func())}
}

// Subscribe registers fn and returns an unsubscribe function.
func (w *Watcher) Subscribe(fn func()) func() {
	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.listeners[id] = fn
	w.mu.Unlock()

	return func() {
		w.mu.Lock()
		delete(w.listeners, id)
		w.mu.Unlock()
	}
}

// Fire notifies every subscriber of a configuration change.
func (w *Watcher) Fire() {
	w.mu.Lock()
	fns := make([]func(), 0, len(w.listeners))
	for _, fn := range w.listeners {
		fns = append(fns, fn)
	}
	w.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
