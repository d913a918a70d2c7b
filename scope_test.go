package hookpoint

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scopePair builds an isolated global/instance hierarchy so tests
// never touch the process-wide default scope.
func scopePair(t *testing.T, prefix string, events ...string) (global, instance *Scope) {
	t.Helper()

	reg := NewRegistry()
	reg.Add(events...)

	global = NewScope(WithRegistry(reg))
	instance = NewScope(WithParent(global), WithPrefix(prefix))
	return global, instance
}

func TestResolveEvent(t *testing.T) {
	_, scoped := scopePair(t, "datasource")
	assert.Equal(t, "datasource.execute", scoped.ResolveEvent("execute"))

	_, bare := scopePair(t, "")
	assert.Equal(t, "execute", bare.ResolveEvent("execute"))
}

func TestGetHookUnknownEvent(t *testing.T) {
	_, scoped := scopePair(t, "datasource", "datasource.goodEvent")

	_, err := scoped.GetHook("datasource.goodEvent")
	require.NoError(t, err)

	_, err = scoped.GetHook("datasource.badEvent")
	require.Error(t, err)
	assert.Equal(t, "Unknown event: datasource.badEvent", err.Error())
	assert.True(t, IsUnknownEvent(err))

	global, _ := scopePair(t, "")
	_, err = global.GetHook("badEvent")
	require.Error(t, err)
	assert.Equal(t, "Unknown event: badEvent", err.Error())
}

func TestOnResolvesThroughPrefix(t *testing.T) {
	_, scoped := scopePair(t, "query", "query.beforeExecute")

	called := int32(0)
	_, err := scoped.On("beforeExecute", func(ctx context.Context, args ...any) (any, error) {
		atomic.AddInt32(&called, 1)
		return nil, nil
	})
	require.NoError(t, err)

	_, err = scoped.RunHook(context.Background(), "beforeExecute")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&called))

	_, err = scoped.On("missing", func(ctx context.Context, args ...any) (any, error) { return nil, nil })
	require.EqualError(t, err, "Unknown event: query.missing")
}

func TestRunHookPropagatesToParent(t *testing.T) {
	global, scoped := scopePair(t, "query", "query.beforeExecute")

	var localRuns, globalRuns int32
	_, err := scoped.On("beforeExecute", func(ctx context.Context, args ...any) (any, error) {
		atomic.AddInt32(&localRuns, 1)
		return nil, nil
	})
	require.NoError(t, err)

	// Global listeners observe the fully resolved name.
	_, err = global.On("query.beforeExecute", func(ctx context.Context, args ...any) (any, error) {
		atomic.AddInt32(&globalRuns, 1)
		return nil, nil
	})
	require.NoError(t, err)

	_, err = scoped.RunHook(context.Background(), "beforeExecute")
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&localRuns), "local listener runs exactly once")
	assert.Equal(t, int32(1), atomic.LoadInt32(&globalRuns), "global listener runs exactly once")
}

func TestInstancesDoNotCrossFire(t *testing.T) {
	reg := NewRegistry()
	reg.Add("worker.tick")

	global := NewScope(WithRegistry(reg))
	first := NewScope(WithParent(global), WithPrefix("worker"))
	second := NewScope(WithParent(global), WithPrefix("worker"))

	var firstRuns, secondRuns int32
	_, err := first.On("tick", func(ctx context.Context, args ...any) (any, error) {
		atomic.AddInt32(&firstRuns, 1)
		return nil, nil
	})
	require.NoError(t, err)
	_, err = second.On("tick", func(ctx context.Context, args ...any) (any, error) {
		atomic.AddInt32(&secondRuns, 1)
		return nil, nil
	})
	require.NoError(t, err)

	_, err = first.RunHook(context.Background(), "tick")
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&firstRuns))
	assert.Equal(t, int32(0), atomic.LoadInt32(&secondRuns), "sibling instance must not fire")
}

func TestLocalFailureShortCircuitsParent(t *testing.T) {
	global, scoped := scopePair(t, "query", "query.beforeExecute")

	boom := errors.New("local listener failed")
	_, err := scoped.On("beforeExecute", func(ctx context.Context, args ...any) (any, error) {
		return nil, boom
	})
	require.NoError(t, err)

	var globalRuns int32
	_, err = global.On("query.beforeExecute", func(ctx context.Context, args ...any) (any, error) {
		atomic.AddInt32(&globalRuns, 1)
		return nil, nil
	})
	require.NoError(t, err)

	_, err = scoped.RunHook(context.Background(), "beforeExecute")
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int32(0), atomic.LoadInt32(&globalRuns), "parent must not run after local failure")
}

func TestCurryPrependsArguments(t *testing.T) {
	_, scoped := scopePair(t, "", "evt")

	var got []any
	done := make(chan struct{})
	_, err := scoped.On("evt", func(ctx context.Context, args ...any) (any, error) {
		got = args
		close(done)
		return nil, nil
	})
	require.NoError(t, err)

	scoped.Curry("X")
	_, err = scoped.RunHook(context.Background(), "evt", "a")
	require.NoError(t, err)

	<-done
	require.Len(t, got, 2)
	assert.Equal(t, "X", got[0])
	assert.Equal(t, "a", got[1])
}

func TestCurryChainsAndAccumulates(t *testing.T) {
	_, scoped := scopePair(t, "", "evt")

	var got []any
	_, err := scoped.On("evt", func(ctx context.Context, args ...any) (any, error) {
		got = args
		return nil, nil
	})
	require.NoError(t, err)

	scoped.Curry(1).Curry(2, 3)
	_, err = scoped.RunHook(context.Background(), "evt", "tail")
	require.NoError(t, err)

	assert.Equal(t, []any{1, 2, 3, "tail"}, got)
}

func TestCurriedArgumentsReachParentListeners(t *testing.T) {
	global, scoped := scopePair(t, "query", "query.execute")

	var got []any
	_, err := global.On("query.execute", func(ctx context.Context, args ...any) (any, error) {
		got = args
		return nil, nil
	})
	require.NoError(t, err)

	scoped.Curry("owner")
	_, err = scoped.RunHook(context.Background(), "execute", "arg")
	require.NoError(t, err)

	assert.Equal(t, []any{"owner", "arg"}, got, "combined args travel up the chain as-is")
}

func TestRemoveAllListeners(t *testing.T) {
	_, scoped := scopePair(t, "q", "q.one", "q.two")

	var runs int32
	listener := func(ctx context.Context, args ...any) (any, error) {
		atomic.AddInt32(&runs, 1)
		return nil, nil
	}
	_, err := scoped.On("one", listener)
	require.NoError(t, err)
	_, err = scoped.On("two", listener)
	require.NoError(t, err)

	scoped.RemoveAllListeners()

	_, err = scoped.RunHook(context.Background(), "one")
	require.NoError(t, err)
	_, err = scoped.RunHook(context.Background(), "two")
	require.NoError(t, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&runs))
}

func TestRemoveAllListenersDoesNotTouchParent(t *testing.T) {
	global, scoped := scopePair(t, "q", "q.one")

	var globalRuns int32
	_, err := global.On("q.one", func(ctx context.Context, args ...any) (any, error) {
		atomic.AddInt32(&globalRuns, 1)
		return nil, nil
	})
	require.NoError(t, err)

	scoped.RemoveAllListeners()
	_, err = scoped.RunHook(context.Background(), "one")
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&globalRuns))
}

func TestReentrantRunHookDoesNotDeadlock(t *testing.T) {
	_, scoped := scopePair(t, "", "outer", "inner")

	var innerRuns int32
	_, err := scoped.On("inner", func(ctx context.Context, args ...any) (any, error) {
		atomic.AddInt32(&innerRuns, 1)
		return nil, nil
	})
	require.NoError(t, err)

	_, err = scoped.On("outer", func(ctx context.Context, args ...any) (any, error) {
		return scoped.RunHook(ctx, "inner")
	})
	require.NoError(t, err)

	_, err = scoped.RunHook(context.Background(), "outer")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&innerRuns))
}

func TestRunHookUnknownEvent(t *testing.T) {
	_, scoped := scopePair(t, "ds")

	_, err := scoped.RunHook(context.Background(), "nope")
	require.EqualError(t, err, "Unknown event: ds.nope")
}

func TestRunHookReturnsLocalResultsWithoutParent(t *testing.T) {
	reg := NewRegistry()
	reg.Add("evt")
	root := NewScope(WithRegistry(reg))

	_, err := root.On("evt", func(ctx context.Context, args ...any) (any, error) {
		return "only", nil
	})
	require.NoError(t, err)

	results, err := root.RunHook(context.Background(), "evt")
	require.NoError(t, err)
	assert.Equal(t, []any{"only"}, results)
}
