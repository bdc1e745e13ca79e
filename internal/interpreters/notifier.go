package interpreters

import "sync"

// ChangeNotifier fans out interpreter-change notifications to every engine
// cache that must invalidate on them. Subscribers are invoked synchronously
// from whichever goroutine observed the change.
type ChangeNotifier struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]func()
}

// NewChangeNotifier returns an empty notifier.
func NewChangeNotifier() *ChangeNotifier {
	return &ChangeNotifier{listeners: make(map[int]func())}
}

// Subscribe registers fn and returns an unsubscribe function.
func (n *ChangeNotifier) Subscribe(fn func()) func() {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.listeners[id] = fn
	n.mu.Unlock()

	return func() {
		n.mu.Lock()
		delete(n.listeners, id)
		n.mu.Unlock()
	}
}

// Fire notifies every subscriber that the active interpreter changed.
func (n *ChangeNotifier) Fire() {
	n.mu.Lock()
	fns := make([]func(), 0, len(n.listeners))
	for _, fn := range n.listeners {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
