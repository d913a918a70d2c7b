package hookpoint

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/zoobzio/clockz"
)

// ScopeOption configures a Scope during creation.
type ScopeOption func(*scopeConfig)

// scopeConfig holds internal configuration for scope creation.
type scopeConfig struct {
	parent   *Scope
	prefix   string
	registry *Registry
	clock    clockz.Clock
	logger   zerolog.Logger
	hasLog   bool
}

// WithParent links the new scope under parent. Invocations on the new
// scope propagate to the parent after local listeners complete.
func WithParent(parent *Scope) ScopeOption {
	return func(c *scopeConfig) {
		c.parent = parent
	}
}

// WithPrefix sets the namespace prefix used to resolve short event
// names ("execute" resolves to "<prefix>.execute").
func WithPrefix(prefix string) ScopeOption {
	return func(c *scopeConfig) {
		c.prefix = prefix
	}
}

// WithRegistry sets the event registry the scope validates names
// against. Default is the parent's registry, or the process-wide
// default for a parentless scope.
func WithRegistry(r *Registry) ScopeOption {
	return func(c *scopeConfig) {
		c.registry = r
	}
}

// WithClock sets the clock implementation for metrics timestamps.
// Default is clockz.RealClock for production use.
func WithClock(clock clockz.Clock) ScopeOption {
	return func(c *scopeConfig) {
		c.clock = clock
	}
}

// WithLogger sets the structured logger for the scope. Default is a
// no-op logger.
func WithLogger(logger zerolog.Logger) ScopeOption {
	return func(c *scopeConfig) {
		c.logger = logger
		c.hasLog = true
	}
}

// Scope is a node in the hook hierarchy. It resolves short event
// names through an optional prefix, owns a lazily populated mapping
// from resolved event name to Hook, and propagates invocations to its
// parent after local listeners complete.
//
// Scopes are created via NewScope (or NewInstance for the common
// instance-under-global case) and live as long as their owner.
// Listeners can be cleared but the scope itself is never recycled.
//
// Thread Safety:
// All methods are safe for concurrent use. Curried arguments and the
// hook map are guarded by a mutex; invocations operate on snapshots.
type Scope struct {
	parent   *Scope
	prefix   string
	registry *Registry
	clock    clockz.Clock
	logger   zerolog.Logger

	mu      sync.Mutex
	hooks   map[string]*Hook
	curried []any

	metrics Metrics
}

// NewScope creates a scope from the given options.
//
//	global := hookpoint.NewScope()
//	inst := hookpoint.NewScope(
//	    hookpoint.WithParent(global),
//	    hookpoint.WithPrefix("datasource"),
//	)
func NewScope(opts ...ScopeOption) *Scope {
	cfg := scopeConfig{
		clock:  clockz.RealClock,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.registry == nil {
		if cfg.parent != nil {
			cfg.registry = cfg.parent.registry
		} else {
			cfg.registry = defaultRegistry
		}
	}
	if !cfg.hasLog && cfg.parent != nil {
		cfg.logger = cfg.parent.logger
	}

	return &Scope{
		parent:   cfg.parent,
		prefix:   cfg.prefix,
		registry: cfg.registry,
		clock:    cfg.clock,
		logger:   cfg.logger,
		hooks:    make(map[string]*Hook),
	}
}

// Parent returns the scope this one propagates to, or nil.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// ResolveEvent returns the fully qualified event name for shortName:
// "<prefix>.<shortName>" when a prefix is set, shortName unchanged
// otherwise.
func (s *Scope) ResolveEvent(shortName string) string {
	if s.prefix == "" {
		return shortName
	}
	return s.prefix + "." + shortName
}

// GetHook returns the scope's hook for the already-resolved event
// name, creating and caching it on first access. Fails with
// UnknownEventError when the name was never registered.
func (s *Scope) GetHook(resolvedName string) (*Hook, error) {
	if !s.registry.Has(resolvedName) {
		return nil, &UnknownEventError{Name: resolvedName}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.hooks[resolvedName]
	if !ok {
		h = newHook(&s.metrics)
		s.hooks[resolvedName] = h
		atomic.AddInt64(&s.metrics.HooksCreated, 1)
		s.logger.Debug().Str("event", resolvedName).Msg("hook created")
	}
	return h, nil
}

// On resolves shortName through the scope's prefix and registers
// listener on the resulting hook.
func (s *Scope) On(shortName string, listener any) (*Registration, error) {
	h, err := s.GetHook(s.ResolveEvent(shortName))
	if err != nil {
		return nil, err
	}
	return h.Add(listener)
}

// RunHook triggers the event named by shortName.
//
// The scope's curried arguments are prepended to args, the name is
// resolved through the prefix, and the local hook runs all its
// listeners. On local success the already-resolved name and combined
// arguments propagate to the parent scope, and RunHook returns the
// parent chain's result, so the call only returns once both local and
// ancestor listeners have run. Local listener failure short-circuits
// the parent: ancestor listeners never run.
func (s *Scope) RunHook(ctx context.Context, shortName string, args ...any) ([]any, error) {
	return s.runResolved(ctx, s.ResolveEvent(shortName), args)
}

// runResolved is the propagation path: the event name is already
// fully qualified, so only this scope's curried arguments are
// prepended before invoking.
func (s *Scope) runResolved(ctx context.Context, resolvedName string, args []any) ([]any, error) {
	atomic.AddInt64(&s.metrics.RunsStarted, 1)
	atomic.StoreInt64(&s.metrics.LastInvocation, s.clock.Now().UnixNano())

	combined := s.combine(args)

	h, err := s.GetHook(resolvedName)
	if err != nil {
		return nil, err
	}

	results, err := h.Invoke(ctx, combined...)
	if err != nil {
		return nil, err
	}

	if s.parent != nil {
		return s.parent.runResolved(ctx, resolvedName, combined)
	}
	return results, nil
}

// combine prepends the curried arguments to args in a fresh slice.
func (s *Scope) combine(args []any) []any {
	s.mu.Lock()
	curried := s.curried
	s.mu.Unlock()

	if len(curried) == 0 {
		return args
	}
	combined := make([]any, 0, len(curried)+len(args))
	combined = append(combined, curried...)
	return append(combined, args...)
}

// Curry appends values to the scope's pre-bound argument list. The
// values are prepended to every subsequent RunHook from this scope.
// Returns the scope for chaining.
func (s *Scope) Curry(values ...any) *Scope {
	s.mu.Lock()
	s.curried = append(s.curried, values...)
	s.mu.Unlock()
	return s
}

// RemoveAllListeners clears every hook currently cached in this
// scope. It does not recurse into the parent or any child scopes.
// Returns the scope for chaining.
func (s *Scope) RemoveAllListeners() *Scope {
	s.mu.Lock()
	hooks := make([]*Hook, 0, len(s.hooks))
	for _, h := range s.hooks {
		hooks = append(hooks, h)
	}
	s.mu.Unlock()

	for _, h := range hooks {
		h.RemoveAll()
	}
	return s
}

// reset drops every cached hook and curried argument. Used by the
// package-level Reset for test isolation.
func (s *Scope) reset() {
	s.mu.Lock()
	s.hooks = make(map[string]*Hook)
	s.curried = nil
	s.mu.Unlock()
}

// Metrics returns a point-in-time snapshot of the scope's counters.
func (s *Scope) Metrics() Metrics {
	return s.metrics.snapshot()
}

// recordSwallowed tracks a hook failure that was deliberately
// suppressed (after-hook and error-hook failures inside Hookify).
func (s *Scope) recordSwallowed(event string, err error) {
	atomic.AddInt64(&s.metrics.SwallowedErrors, 1)
	s.logger.Warn().Str("event", event).Err(err).Msg("hook failure suppressed")
}
