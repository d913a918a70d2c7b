package hookpoint

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Hook is a single named slot holding an ordered list of listeners.
// Invoking the hook runs every listener concurrently and aggregates
// their results in registration order.
//
// Thread Safety:
// All methods are safe for concurrent use. Invoke operates on a
// snapshot of the listener list taken at invocation start, so
// registrations and removals that race with an in-flight invocation
// affect only later invocations.
type Hook struct {
	mu      sync.RWMutex
	entries []listenerEntry

	// metrics is shared with the owning scope when the hook was
	// created through one; standalone hooks get their own.
	metrics *Metrics
}

// NewHook returns a new empty hook.
//
// Hooks are usually created lazily by a Scope; a standalone hook is
// useful when no registry or hierarchy is needed.
func NewHook() *Hook {
	return &Hook{metrics: &Metrics{}}
}

// newHook creates a hook wired to the owning scope's metrics.
func newHook(m *Metrics) *Hook {
	return &Hook{metrics: m}
}

// Registration is a handle to one registered listener occurrence.
// It removes exactly the occurrence it was created for.
//
// Remove is idempotent: calling it more than once is a no-op, and
// removing a listener that was already cleared via RemoveAll is not
// an error.
type Registration struct {
	remove func()
	once   sync.Once
}

// Remove unregisters the listener occurrence this handle was created
// for. Safe to call multiple times.
func (r *Registration) Remove() {
	if r == nil || r.remove == nil {
		return
	}
	r.once.Do(r.remove)
}

// Add appends a listener to the hook. The listener must be one of the
// accepted shapes (Listener, CallbackListener, or their raw function
// signatures); anything else fails with ErrNotFunction.
//
// The same function may be added more than once; each occurrence is
// invoked independently and must be removed independently.
func (h *Hook) Add(listener any) (*Registration, error) {
	entry, err := newListenerEntry(listener)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.entries = append(h.entries, entry)
	h.mu.Unlock()

	return &Registration{
		remove: func() { h.removeByID(entry.id) },
	}, nil
}

// removeByID drops the single occurrence with the given id.
func (h *Hook) removeByID(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, e := range h.entries {
		if e.id == id {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			return
		}
	}
}

// Remove drops the first occurrence of listener, matched by function
// identity. A listener that was never added is a no-op, not an error.
// Returns the hook for chaining.
func (h *Hook) Remove(listener any) *Hook {
	id := listenerID(listener)
	if id == 0 {
		return h
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for i, e := range h.entries {
		if e.fnID == id {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			return h
		}
	}
	return h
}

// RemoveAll clears the listener list.
func (h *Hook) RemoveAll() {
	h.mu.Lock()
	h.entries = nil
	h.mu.Unlock()
}

// Len returns the current number of registered listener occurrences.
func (h *Hook) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Invoke runs every currently registered listener with args.
//
// All listeners are started without waiting for earlier ones to
// finish. Invoke blocks until every listener has settled, then
// returns each listener's result in registration order. If any
// listener fails, Invoke returns that listener's error; sibling
// listeners are not cancelled and still run to completion before
// Invoke returns.
//
// A listener may itself trigger further invocations (including on the
// same hook) without deadlock: every invocation carries its own
// goroutine fan-out and wait.
func (h *Hook) Invoke(ctx context.Context, args ...any) ([]any, error) {
	h.mu.RLock()
	entries := make([]listenerEntry, len(h.entries))
	copy(entries, h.entries)
	h.mu.RUnlock()

	if len(entries) == 0 {
		return []any{}, nil
	}

	atomic.AddInt64(&h.metrics.ListenersInvoked, int64(len(entries)))

	results := make([]any, len(entries))
	var g errgroup.Group

	for i, entry := range entries {
		g.Go(func() error {
			res, err := entry.call(ctx, args)
			if err != nil {
				atomic.AddInt64(&h.metrics.ListenersFailed, 1)
				if errors.Is(err, ErrListenerPanicked) {
					atomic.AddInt64(&h.metrics.ListenersPanicked, 1)
				}
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
