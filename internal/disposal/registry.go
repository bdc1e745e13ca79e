// Package disposal tracks resources that must be released exactly once:
// temporary working directories, session managers, partially-built servers.
// Disposers registered here run either when their owner triggers them or at
// shutdown, whichever comes first, and never twice.
package disposal

import (
	"sync"

	"github.com/hochshi/vscode-python/pkg/logging"
)

// Disposer is a single registered cleanup. Dispose is idempotent.
type Disposer struct {
	name string
	once sync.Once
	fn   func()
}

// Name identifies the disposer in logs.
func (d *Disposer) Name() string { return d.name }

// Dispose runs the cleanup. Subsequent calls are no-ops.
func (d *Disposer) Dispose() {
	d.once.Do(func() {
		if d.fn != nil {
			d.fn()
		}
	})
}

// Registry collects disposers for deterministic release at shutdown.
type Registry struct {
	mu        sync.Mutex
	disposers []*Disposer
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a cleanup and returns its handle. The owner may call
// Dispose on the handle at any time; DisposeAll covers whatever is left.
func (r *Registry) Register(name string, fn func()) *Disposer {
	d := &Disposer{name: name, fn: fn}
	r.mu.Lock()
	r.disposers = append(r.disposers, d)
	r.mu.Unlock()
	return d
}

// DisposeAll releases everything still pending, most recent first.
func (r *Registry) DisposeAll() {
	r.mu.Lock()
	pending := make([]*Disposer, len(r.disposers))
	copy(pending, r.disposers)
	r.disposers = nil
	r.mu.Unlock()

	for i := len(pending) - 1; i >= 0; i-- {
		logging.Debug("Disposal", "disposing %s", pending[i].Name())
		pending[i].Dispose()
	}
}
