package hookpoint

import "sync/atomic"

// Metrics provides observability data for a scope and its hooks.
// All counter fields use atomic operations for thread safety.
type Metrics struct {
	// Invocation Counters (atomic operations required)
	RunsStarted       int64 // RunHook calls entered on the scope
	ListenersInvoked  int64 // Listener executions started
	ListenersFailed   int64 // Listener executions that failed or panicked
	ListenersPanicked int64 // Subset of failures caused by panics
	SwallowedErrors   int64 // After-hook / error-hook failures logged but suppressed

	// Registration Metrics
	HooksCreated int64 // Hooks lazily materialized in the scope

	// LastInvocation is the clock timestamp (unix nanoseconds) of the
	// most recent RunHook on the scope. Zero until the first run.
	LastInvocation int64
}

// snapshot returns a point-in-time copy with every counter loaded
// atomically.
func (m *Metrics) snapshot() Metrics {
	return Metrics{
		RunsStarted:       atomic.LoadInt64(&m.RunsStarted),
		ListenersInvoked:  atomic.LoadInt64(&m.ListenersInvoked),
		ListenersFailed:   atomic.LoadInt64(&m.ListenersFailed),
		ListenersPanicked: atomic.LoadInt64(&m.ListenersPanicked),
		SwallowedErrors:   atomic.LoadInt64(&m.SwallowedErrors),
		HooksCreated:      atomic.LoadInt64(&m.HooksCreated),
		LastInvocation:    atomic.LoadInt64(&m.LastInvocation),
	}
}
