// Package hookpoint provides a hierarchical hook/event-interception
// engine: named hook points are registered once, listened to at
// multiple scopes (global or per-instance), and triggered so that all
// listeners run concurrently and their results are collected in
// registration order.
//
// Event names form a flat, pre-registered namespace with strict
// existence checking; this is not a pub/sub broker with topics or
// wildcards.
//
// Basic Usage:
//
//	// Register the hook points once, at startup
//	hookpoint.AddEvents("query.beforeExecute", "query.afterExecute")
//
//	// Listen on the global scope
//	reg, err := hookpoint.On("query.beforeExecute", func(ctx context.Context, args ...any) (any, error) {
//		return nil, validate(args)
//	})
//	if err != nil {
//		return err
//	}
//	defer reg.Remove()
//
//	// Trigger the hook point
//	if _, err := hookpoint.RunHook(ctx, "query.beforeExecute", q); err != nil {
//		return err
//	}
//
// Instance Scopes:
//
// A scope created with NewInstance resolves short names through its
// prefix and propagates every invocation to the global scope after
// its local listeners complete:
//
//	scope := hookpoint.NewInstance("query")
//	scope.On("beforeExecute", listener) // listens on "query.beforeExecute"
//	scope.RunHook(ctx, "beforeExecute", q)
//
// Wrapping Operations:
//
// Hookify builds a before/call/after sandwich with error-hook support
// around an arbitrary operation:
//
//	execute := hookpoint.Hookify("execute", func(ctx context.Context, args ...any) (any, error) {
//		return runQuery(ctx, args)
//	})
//	result, err := execute(entity, ctx, "foo", "bar")
//
// Entity Integration:
//
// Embed HasHooks so every listener receives the entity itself as its
// first argument:
//
//	type Datasource struct {
//		hookpoint.HasHooks
//	}
//
//	ds := &Datasource{}
//	ds.HasHooks = hookpoint.NewHasHooks(ds, "datasource")
package hookpoint

// Key represents a fully qualified event identifier, namespaced by
// dot-separated segments. This is a type alias for string that
// provides semantic meaning and encourages the use of package-level
// constants.
//
// Basic Usage with constants (recommended):
//
//	const (
//		QueryBeforeExecute Key = "query.beforeExecute"
//		QueryAfterExecute  Key = "query.afterExecute"
//	)
//
//	hookpoint.AddEvents(QueryBeforeExecute, QueryAfterExecute)
type Key = string
