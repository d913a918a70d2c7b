package hookpoint

import "sync"

// Registry is the set of known event names. An event must be added
// here before any scope may create or invoke a hook for it; resolving
// an unregistered name fails with UnknownEventError.
//
// Registration is idempotent: adding a name that is already present
// is a no-op, not an error.
type Registry struct {
	mu    sync.RWMutex
	names map[string]struct{}
}

// NewRegistry returns an empty registry.
//
// Most callers use the process-wide default through the package-level
// AddEvents; a private registry is useful for isolating independent
// hook hierarchies.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]struct{})}
}

// Add inserts one or more fully qualified event names.
func (r *Registry) Add(names ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range names {
		r.names[name] = struct{}{}
	}
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.names[name]
	return ok
}

// Len returns the number of registered names.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// Reset clears every registered name. Intended for test isolation.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.names = make(map[string]struct{})
	r.mu.Unlock()
}
