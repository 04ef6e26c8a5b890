package resolver

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/MrSnakeDoc/yaelah/internal/domain"
	"github.com/MrSnakeDoc/yaelah/internal/logger"
)

// Store is the read side of the persistent URL store.
type Store interface {
	FindByAlias(ctx context.Context, alias string) (*domain.Mapping, error)
}

// Cache is an optional read-through cache. It only ever holds mappings
// that exist, so a miss always falls back to the store.
type Cache interface {
	GetMapping(ctx context.Context, alias string) (*domain.Mapping, error)
	PutMapping(ctx context.Context, m *domain.Mapping) error
	DropMapping(ctx context.Context, alias string) error
}

// DefaultLookupTimeout bounds a shared store lookup. It is detached from the
// caller that started it, so it needs a deadline of its own.
const DefaultLookupTimeout = 5 * time.Second

// Resolution is the outcome of a lookup. Mapping is nil when Exists is false.
type Resolution struct {
	Exists  bool
	Mapping *domain.Mapping
}

// Resolver answers "which mapping owns this alias?" for the redirect
// endpoint, the lookup API and the registration collision check.
type Resolver struct {
	store  Store
	cache  Cache
	logger logger.Logger
	group  singleflight.Group

	lookupTimeout time.Duration
	// invalidations counts Forget calls. A lookup that overlaps one must not
	// leave its result in the cache.
	invalidations atomic.Uint64
}

// New builds a Resolver. cache may be nil.
func New(store Store, cache Cache, log logger.Logger) *Resolver {
	return &Resolver{
		store:         store,
		cache:         cache,
		logger:        log,
		lookupTimeout: DefaultLookupTimeout,
	}
}

// Resolve looks alias up, serving from the cache when possible. Absence is
// reported through Resolution, never as an error; store failures are
// returned as-is.
func (r *Resolver) Resolve(ctx context.Context, alias string) (Resolution, error) {
	if r.cache != nil {
		m, err := r.cache.GetMapping(ctx, alias)
		switch {
		case err != nil:
			r.logger.Warn("alias cache read failed, falling back to store",
				logger.String("alias", alias), logger.Error(err))
		case m != nil:
			return Resolution{Exists: true, Mapping: m}, nil
		}
	}

	ch := r.group.DoChan(alias, func() (interface{}, error) {
		return r.load(context.WithoutCancel(ctx), alias)
	})

	var out singleflight.Result
	select {
	case out = <-ch:
	case <-ctx.Done():
		return Resolution{}, ctx.Err()
	}
	if out.Err != nil {
		return Resolution{}, out.Err
	}
	if out.Shared {
		r.logger.Debug("alias lookup shared with concurrent request", logger.String("alias", alias))
	}

	m, _ := out.Val.(*domain.Mapping)
	if m == nil {
		return Resolution{}, nil
	}

	cp := *m
	return Resolution{Exists: true, Mapping: &cp}, nil
}

// load reads the store and fills the cache. The result is only cached if no
// Forget ran since the read started; a Forget that lands between the check
// and the write is caught by the second check.
func (r *Resolver) load(ctx context.Context, alias string) (*domain.Mapping, error) {
	ctx, cancel := context.WithTimeout(ctx, r.lookupTimeout)
	defer cancel()

	gen := r.invalidations.Load()
	m, err := r.store.FindByAlias(ctx, alias)
	if err != nil || m == nil || r.cache == nil {
		return m, err
	}
	if r.invalidations.Load() != gen {
		return m, nil
	}

	if err := r.cache.PutMapping(ctx, m); err != nil {
		r.logger.Warn("failed to cache alias", logger.String("alias", alias), logger.Error(err))
		return m, nil
	}
	if r.invalidations.Load() != gen {
		if err := r.cache.DropMapping(ctx, alias); err != nil {
			r.logger.Warn("failed to undo racing cache fill",
				logger.String("alias", alias), logger.Error(err))
		}
	}
	return m, nil
}

// ResolveFresh reads the store directly, bypassing cache and request
// collapsing. The registration service uses it so a collision check never
// sees a stale entry.
func (r *Resolver) ResolveFresh(ctx context.Context, alias string) (Resolution, error) {
	m, err := r.store.FindByAlias(ctx, alias)
	if err != nil {
		return Resolution{}, err
	}
	if m == nil {
		return Resolution{}, nil
	}
	return Resolution{Exists: true, Mapping: m}, nil
}

// Forget drops any cached entry for alias. Failures are logged only.
func (r *Resolver) Forget(ctx context.Context, alias string) {
	r.invalidations.Add(1)
	r.group.Forget(alias)
	if r.cache == nil || alias == "" {
		return
	}
	if err := r.cache.DropMapping(ctx, alias); err != nil {
		r.logger.Warn("failed to invalidate cached alias",
			logger.String("alias", alias), logger.Error(err))
	}
}
