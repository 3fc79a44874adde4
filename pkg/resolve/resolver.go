package resolve

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/aretw0/tendril/pkg/query"
)

// ErrUnbound is returned when a reference has no session attached, e.g. a
// zero query.Ref.
var ErrUnbound = errors.New("reference is not bound to a session")

// Resolver executes references. It holds no per-call state and is safe
// for concurrent use.
type Resolver struct {
	cache  ports.ResultCache
	hooks  domain.LifecycleHooks
	logger *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithResultCache enables memoisation of identical chains within a session.
func WithResultCache(cache ports.ResultCache) Option {
	return func(r *Resolver) {
		r.cache = cache
	}
}

// WithLifecycleHooks registers resolve hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Resolver) {
		r.hooks = hooks
	}
}

// WithLogger configures a logger for the Resolver.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// New creates a Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve executes ref's chain in a single round trip and returns the
// decoded payload (string, float64/int64/uint64, bool, []any,
// map[string]any or nil).
func (r *Resolver) Resolve(ctx context.Context, ref query.Ref) (result any, err error) {
	owner := ref.Owner()
	if owner == nil {
		return nil, ErrUnbound
	}
	chain := ref.Chain()

	if state := owner.State(); state != domain.StateReady {
		return nil, &domain.ConnectionClosedError{Session: owner.ID(), State: state}
	}

	start := time.Now()
	cached := false
	r.emit(ctx, r.hooks.OnResolveStart, domain.EventResolveStart, owner.ID(), chain, 0, false, nil)
	defer func() {
		elapsed := time.Since(start)
		r.emit(ctx, r.hooks.OnResolveEnd, domain.EventResolveEnd, owner.ID(), chain, elapsed, cached, err)
		r.logger.Debug("resolved",
			"session", owner.ID(),
			"chain", chain.String(),
			"duration", elapsed,
			"cached", cached,
			"error", err,
		)
	}()

	key := owner.ID() + ":" + chain.Key()
	if r.cache != nil {
		value, found, cacheErr := r.cache.Get(ctx, key)
		if cacheErr != nil {
			r.logger.Warn("result cache lookup failed", "chain", chain.String(), "error", cacheErr)
		} else if found {
			cached = true
			return value, nil
		}
	}

	resp, err := owner.RoundTrip(ctx, chain)
	if err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, &domain.ResolutionError{Chain: chain, Faults: resp.Errors}
	}

	if r.cache != nil {
		if cacheErr := r.cache.Set(ctx, key, resp.Data); cacheErr != nil {
			r.logger.Warn("result cache store failed", "chain", chain.String(), "error", cacheErr)
		}
	}
	return resp.Data, nil
}

// As resolves ref and decodes the payload into T. A payload that does not
// fit T is reported as a *domain.TransportError: the engine answered, but
// not in the shape the terminal operation declares.
func As[T any](ctx context.Context, r *Resolver, ref query.Ref) (T, error) {
	var out T
	raw, err := r.Resolve(ctx, ref)
	if err != nil {
		return out, err
	}
	if err := Decode(raw, &out); err != nil {
		return out, &domain.TransportError{Chain: ref.Chain(), Err: err}
	}
	return out, nil
}

func (r *Resolver) emit(ctx context.Context, hook func(context.Context, *domain.ResolveEvent), typ domain.EventType, sessionID string, chain domain.Chain, d time.Duration, cached bool, err error) {
	if hook == nil {
		return
	}
	hook(ctx, &domain.ResolveEvent{
		EventBase: domain.EventBase{
			Timestamp: time.Now(),
			Type:      typ,
			SessionID: sessionID,
		},
		Chain:    chain,
		Duration: d,
		Cached:   cached,
		Err:      err,
	})
}
