package hookpoint

import (
	"context"
	"reflect"
	"runtime"
	"strings"
	"unicode"
	"unicode/utf8"
)

// HookRunner is the capability Hookify needs from its receiver: any
// entity that can trigger hooks. Both Scope and HasHooks satisfy it.
type HookRunner interface {
	RunHook(ctx context.Context, shortName string, args ...any) ([]any, error)
}

// Operation is an arbitrary function being wrapped by Hookify.
type Operation func(ctx context.Context, args ...any) (any, error)

// Hookified is the wrapped form returned by Hookify. The self
// argument supplies the hook scope the sandwich events run on.
type Hookified func(self HookRunner, ctx context.Context, args ...any) (any, error)

// Hookify wraps op in a before/call/after sandwich with error-hook
// support. name is the event base; when empty it defaults to op's own
// declared function name. For a base "execute" the wrapper uses the
// events "beforeExecute", "afterExecute" and "executeError".
//
// Calling the wrapper:
//  1. Runs the before hook with the call arguments. If it fails, that
//     failure is returned and op never runs; neither the after hook
//     nor the error hook fires.
//  2. Invokes op with the same arguments.
//  3. On success R, fires the after hook with R appended to the
//     arguments. After-hook failures are logged and suppressed; the
//     wrapper still returns R.
//  4. On failure E, fires the error hook with E appended. When the
//     error event was never registered the lookup failure is silently
//     ignored; any error-hook listener failure is logged as
//     secondary. The wrapper always returns the original E, and the
//     after hook does not fire.
func Hookify(name string, op Operation) Hookified {
	if name == "" {
		name = operationName(op)
	}
	beforeEvent := "before" + capitalize(name)
	afterEvent := "after" + capitalize(name)
	errorEvent := name + "Error"

	return func(self HookRunner, ctx context.Context, args ...any) (any, error) {
		if _, err := self.RunHook(ctx, beforeEvent, args...); err != nil {
			return nil, err
		}

		result, opErr := op(ctx, args...)
		if opErr != nil {
			if _, err := self.RunHook(ctx, errorEvent, appendArg(args, opErr)...); err != nil {
				// A missing error event is fine; a failing error
				// listener is secondary and never masks opErr.
				if !IsUnknownEvent(err) {
					swallow(self, errorEvent, err)
				}
			}
			return nil, opErr
		}

		if _, err := self.RunHook(ctx, afterEvent, appendArg(args, result)...); err != nil {
			swallow(self, afterEvent, err)
		}
		return result, nil
	}
}

// appendArg copies args with extra appended, leaving the caller's
// variadic backing array untouched.
func appendArg(args []any, extra any) []any {
	out := make([]any, 0, len(args)+1)
	out = append(out, args...)
	return append(out, extra)
}

// swallow records a suppressed hook failure on the receiver's scope
// when it supports that, falling back to the package logger.
func swallow(self HookRunner, event string, err error) {
	if rec, ok := self.(interface{ recordSwallowed(string, error) }); ok {
		rec.recordSwallowed(event, err)
		return
	}
	logger := currentLogger()
	logger.Warn().Str("event", event).Err(err).Msg("hook failure suppressed")
}

// operationName derives an event base from op's declared function
// name: the runtime symbol is trimmed to its last path segment,
// method-value suffixes are dropped, and the first rune is lowered so
// a method Execute yields the base "execute".
func operationName(op Operation) string {
	pc := reflect.ValueOf(op).Pointer()
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "call"
	}

	name := fn.Name()
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, "-fm")
	if name == "" {
		return "call"
	}

	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToLower(r)) + name[size:]
}

// capitalize upper-cases the first rune of s.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// HasHooks is the reusable hookable capability: a private instance
// scope curried with the owning entity, so every listener invoked on
// the entity's behalf receives the entity itself as first argument.
//
// Embed it in a consumer type and initialize it with NewHasHooks:
//
//	type Datasource struct {
//	    hookpoint.HasHooks
//	}
//
//	ds := &Datasource{}
//	ds.HasHooks = hookpoint.NewHasHooks(ds, "datasource")
type HasHooks struct {
	scope *Scope
}

// NewHasHooks creates the capability for owner: an instance scope
// under the global scope with the given prefix, curried with owner.
func NewHasHooks(owner any, prefix string) HasHooks {
	s := NewInstance(prefix)
	s.Curry(owner)
	return HasHooks{scope: s}
}

// On registers listener for the short event name on the owned scope.
func (h HasHooks) On(shortName string, listener any) (*Registration, error) {
	return h.scope.On(shortName, listener)
}

// RunHook triggers the short event name on the owned scope. The
// owning entity arrives as the first listener argument via currying.
func (h HasHooks) RunHook(ctx context.Context, shortName string, args ...any) ([]any, error) {
	return h.scope.RunHook(ctx, shortName, args...)
}

// HookScope exposes the owned scope for advanced use (metrics,
// additional currying, clearing listeners).
func (h HasHooks) HookScope() *Scope {
	return h.scope
}

func (h HasHooks) recordSwallowed(event string, err error) {
	h.scope.recordSwallowed(event, err)
}
