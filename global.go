package hookpoint

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// Process-wide state: one default registry and one global scope at
// the root of every hierarchy. Their lifetime is the process
// lifetime; Reset exists for test isolation only.
var (
	defaultRegistry = NewRegistry()
	defaultScope    = NewScope()

	loggerMu  sync.RWMutex
	pkgLogger = zerolog.Nop()

	corkMu sync.Mutex
	corked bool
	queued []*queuedListener
)

// queuedListener is a package-level On call deferred while corked.
type queuedListener struct {
	event     string
	listener  any
	reg       *Registration
	cancelled bool
}

// SetLogger installs the structured logger used by package-level
// helpers and, by default, by scopes created afterwards. Call it
// once during startup, before scopes are created.
func SetLogger(logger zerolog.Logger) {
	loggerMu.Lock()
	pkgLogger = logger
	loggerMu.Unlock()
}

func currentLogger() zerolog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return pkgLogger
}

// Global returns the process-wide root scope. It has no parent and no
// prefix; every scope created via NewInstance propagates to it.
func Global() *Scope {
	return defaultScope
}

// AddEvents registers one or more fully qualified event names in the
// process-wide registry. Registering an existing name is a no-op.
func AddEvents(names ...string) {
	defaultRegistry.Add(names...)
}

// NewInstance creates an instance scope under the global scope with
// the given prefix. Pass an empty prefix for an unprefixed child.
func NewInstance(prefix string) *Scope {
	return NewScope(WithParent(defaultScope), WithPrefix(prefix), WithLogger(currentLogger()))
}

// On registers listener for the fully qualified event name on the
// global scope.
//
// While the package is corked, the registration is queued instead and
// replayed in order by Uncork. The returned handle works in either
// case: removing a still-queued registration cancels its replay.
func On(event string, listener any) (*Registration, error) {
	corkMu.Lock()
	if !corked {
		corkMu.Unlock()
		return defaultScope.On(event, listener)
	}
	defer corkMu.Unlock()

	// Validate now so misuse fails at the call site, not at flush.
	if _, err := newListenerEntry(listener); err != nil {
		return nil, err
	}

	q := &queuedListener{event: event, listener: listener}
	queued = append(queued, q)

	return &Registration{
		remove: func() {
			corkMu.Lock()
			defer corkMu.Unlock()
			if q.reg != nil {
				q.reg.Remove()
				return
			}
			q.cancelled = true
		},
	}, nil
}

// RunHook triggers the fully qualified event name on the global scope.
func RunHook(ctx context.Context, event string, args ...any) ([]any, error) {
	return defaultScope.RunHook(ctx, event, args...)
}

// Cork defers subsequent package-level On calls into an ordered queue
// until Uncork. Hosting glue uses this to hold listener registration
// until the host signals its start lifecycle event.
func Cork() {
	corkMu.Lock()
	corked = true
	corkMu.Unlock()
}

// Uncork replays all queued registrations in their original order and
// returns the package to immediate registration. Replay failures
// (typically unknown events) are joined into the returned error; the
// remaining registrations are still replayed.
func Uncork() error {
	corkMu.Lock()
	pending := queued
	queued = nil
	corked = false
	corkMu.Unlock()

	var errs []error
	for _, q := range pending {
		corkMu.Lock()
		cancelled := q.cancelled
		corkMu.Unlock()
		if cancelled {
			continue
		}

		reg, err := defaultScope.On(q.event, q.listener)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		corkMu.Lock()
		q.reg = reg
		cancelled = q.cancelled
		corkMu.Unlock()
		if cancelled {
			reg.Remove()
		}
	}
	return errors.Join(errs...)
}

// Reset restores the process-wide state to its initial condition:
// the registry is cleared, the global scope drops all hooks and
// curried arguments, and any corked queue is discarded. Intended for
// test isolation.
func Reset() {
	corkMu.Lock()
	corked = false
	queued = nil
	corkMu.Unlock()

	defaultRegistry.Reset()
	defaultScope.reset()
}
