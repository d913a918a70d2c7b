package hookpoint

import (
	"context"
	"reflect"
	"sync"

	"github.com/rs/xid"
)

// Listener is a direct-style listener: it receives the full bound
// argument list and reports its result (or failure) by returning.
//
// The args slice starts with any values curried onto the invoking
// scope, followed by the arguments supplied at the RunHook call site.
type Listener func(ctx context.Context, args ...any) (any, error)

// Callback completes a callback-style listener. The first argument is
// an error or nil, the second the listener's result value.
type Callback func(err error, result any)

// CallbackListener is a callback-style listener: instead of returning,
// it reports completion through done. The listener may call done
// synchronously or hand it to another goroutine; only the first call
// settles the listener, later calls are ignored.
type CallbackListener func(ctx context.Context, args []any, done Callback)

// listenerEntry is one registered listener occurrence within a Hook.
// The same function may be registered multiple times; each occurrence
// gets its own entry and id.
type listenerEntry struct {
	id     string
	fnID   uintptr
	direct Listener
	cb     CallbackListener
}

// newListenerEntry validates and normalizes the accepted listener
// shapes. Both the named types and their raw function signatures are
// accepted, so call sites don't need explicit conversions.
func newListenerEntry(listener any) (listenerEntry, error) {
	e := listenerEntry{id: xid.New().String()}

	switch fn := listener.(type) {
	case Listener:
		e.direct = fn
	case func(context.Context, ...any) (any, error):
		e.direct = fn
	case CallbackListener:
		e.cb = fn
	case func(context.Context, []any, Callback):
		e.cb = fn
	case func(context.Context, []any, func(error, any)):
		e.cb = func(ctx context.Context, args []any, done Callback) {
			fn(ctx, args, done)
		}
	default:
		return listenerEntry{}, ErrNotFunction
	}

	if e.direct == nil && e.cb == nil {
		return listenerEntry{}, ErrNotFunction
	}

	e.fnID = reflect.ValueOf(listener).Pointer()
	return e, nil
}

// listenerID returns the code-pointer identity of a listener function,
// or 0 when the value is not a function. Remove uses it to locate the
// first matching occurrence.
func listenerID(listener any) uintptr {
	v := reflect.ValueOf(listener)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return 0
	}
	return v.Pointer()
}

// call runs the listener and blocks until it settles. Panics are
// recovered and converted to errors so a misbehaving listener rejects
// only its own slot of the aggregate.
func (e listenerEntry) call(ctx context.Context, args []any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()

	if e.direct != nil {
		return e.direct(ctx, args...)
	}
	return e.callback(ctx, args)
}

// callback bridges a callback-style listener into a blocking call.
// The first done invocation wins; no timeout is applied, the listener
// owns its own completion.
func (e listenerEntry) callback(ctx context.Context, args []any) (any, error) {
	type outcome struct {
		result any
		err    error
	}

	settled := make(chan outcome, 1)
	var once sync.Once

	e.cb(ctx, args, func(err error, result any) {
		once.Do(func() {
			settled <- outcome{result: result, err: err}
		})
	})

	out := <-settled
	return out.result, out.err
}
