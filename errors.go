package hookpoint

import (
	"errors"
	"fmt"
)

// Registration Errors
//
// These errors are returned when registering listeners on a hook.

// ErrNotFunction is returned when Add is passed something that is not
// a recognized listener shape.
//
// The message text is a compatibility contract with dependents and
// must not change, including its capitalization.
var ErrNotFunction = errors.New("Listener must be a function")

// Lookup Errors
//
// These errors are returned when resolving event names against the
// registry.

// UnknownEventError is returned when a hook is requested for an event
// name that was never registered via AddEvents.
//
// The Name field holds the fully resolved event name (prefix included
// when the scope has one).
type UnknownEventError struct {
	Name string
}

// Error renders the compatibility-contract message "Unknown event: X".
func (e *UnknownEventError) Error() string {
	return "Unknown event: " + e.Name
}

// IsUnknownEvent reports whether err is an UnknownEventError.
//
// Hookify uses this to distinguish a missing error-hook event (which
// is swallowed) from a real listener failure (which is logged).
func IsUnknownEvent(err error) bool {
	var ue *UnknownEventError
	return errors.As(err, &ue)
}

// Execution Errors
//
// These errors describe listener failures during an invocation.

// ErrListenerPanicked wraps the recovered value of a listener that
// panicked mid-invocation. The panic is converted to an error so a
// misbehaving listener rejects only its own slot in the aggregate
// instead of crashing the process.
var ErrListenerPanicked = errors.New("listener panicked during invocation")

// panicError attaches the recovered panic value to ErrListenerPanicked.
func panicError(recovered any) error {
	return fmt.Errorf("%w: %v", ErrListenerPanicked, recovered)
}
