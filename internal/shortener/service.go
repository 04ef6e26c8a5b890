package shortener

import (
	"context"
	"errors"
	"strings"

	"github.com/MrSnakeDoc/yaelah/internal/domain"
	"github.com/MrSnakeDoc/yaelah/internal/logger"
	"github.com/MrSnakeDoc/yaelah/internal/resolver"
)

// DefaultAliasAttempts bounds how many generated aliases are tried before
// giving up with domain.ErrAliasExhausted.
const DefaultAliasAttempts = 5

// Store is the write side of the persistent URL store.
type Store interface {
	FindByID(ctx context.Context, id int64) (*domain.Mapping, error)
	Insert(ctx context.Context, longURL, alias, shortURL string) (*domain.Mapping, error)
	DeleteByID(ctx context.Context, id int64) (string, error)
}

// AliasResolver is the subset of *resolver.Resolver the service needs.
type AliasResolver interface {
	Resolve(ctx context.Context, alias string) (resolver.Resolution, error)
	ResolveFresh(ctx context.Context, alias string) (resolver.Resolution, error)
	Forget(ctx context.Context, alias string)
}

// Request is a registration attempt. An empty Alias asks for a generated one.
type Request struct {
	LongURL string `json:"longUrl"`
	Alias   string `json:"alias"`
}

// Options configures a Service.
type Options struct {
	BaseURL       string                // prefix of every short URL, without trailing slash
	AliasAttempts int                   // generated alias candidates tried per request
	Generator     domain.AliasGenerator // nil => domain.RandomAlias{Length: 6}
}

// Service registers, looks up and deletes mappings.
type Service struct {
	store    Store
	resolver AliasResolver
	logger   logger.Logger

	baseURL   string
	attempts  int
	generator domain.AliasGenerator
}

func NewService(store Store, res AliasResolver, log logger.Logger, opts Options) *Service {
	attempts := opts.AliasAttempts
	if attempts <= 0 {
		attempts = DefaultAliasAttempts
	}
	gen := opts.Generator
	if gen == nil {
		gen = domain.RandomAlias{Length: domain.DefaultAliasLength}
	}
	return &Service{
		store:     store,
		resolver:  res,
		logger:    log,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		attempts:  attempts,
		generator: gen,
	}
}

// Register validates req and stores exactly one new mapping, or none.
//
// A caller-chosen alias that is already mapped yields *domain.AliasTakenError
// carrying the current owner. Generated aliases are retried on collision.
func (s *Service) Register(ctx context.Context, req Request) (*domain.Mapping, error) {
	longURL := strings.TrimSpace(req.LongURL)
	if err := domain.ValidateLongURL(longURL); err != nil {
		return nil, err
	}

	if alias := strings.TrimSpace(req.Alias); alias != "" {
		if err := domain.ValidateAlias(alias); err != nil {
			return nil, err
		}
		return s.register(ctx, longURL, alias)
	}

	for attempt := 1; attempt <= s.attempts; attempt++ {
		alias, err := s.generator.Generate()
		if err != nil {
			return nil, err
		}

		m, err := s.register(ctx, longURL, alias)
		if _, taken := domain.IsAliasTaken(err); taken {
			s.logger.Debug("generated alias collided, retrying",
				logger.String("alias", alias),
				logger.Int("attempt", attempt))
			continue
		}
		return m, err
	}

	s.logger.Warn("no free alias after retries", logger.Int("attempts", s.attempts))
	return nil, domain.ErrAliasExhausted
}

func (s *Service) register(ctx context.Context, longURL, alias string) (*domain.Mapping, error) {
	res, err := s.resolver.ResolveFresh(ctx, alias)
	if err != nil {
		return nil, err
	}
	if res.Exists {
		return nil, &domain.AliasTakenError{Alias: alias, Existing: res.Mapping}
	}

	m, err := s.store.Insert(ctx, longURL, alias, domain.ShortURL(s.baseURL, alias))
	if errors.Is(err, domain.ErrDuplicateAlias) {
		// Lost a race with a concurrent registration of the same alias.
		taken := &domain.AliasTakenError{Alias: alias}
		if res, rerr := s.resolver.ResolveFresh(ctx, alias); rerr == nil {
			taken.Existing = res.Mapping
		}
		return nil, taken
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("url registered",
		logger.Int64("id", m.ID),
		logger.String("alias", m.Alias),
		logger.String("long_url", m.LongURL))
	return m, nil
}

// Delete removes the mapping with id. Unknown ids are not an error.
func (s *Service) Delete(ctx context.Context, id int64) error {
	alias, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if alias == "" {
		s.logger.Debug("delete of unknown id", logger.Int64("id", id))
		return nil
	}

	s.resolver.Forget(ctx, alias)
	s.logger.Info("url deleted", logger.Int64("id", id), logger.String("alias", alias))
	return nil
}

// Lookup returns the mapping owning alias, or nil when it is free.
func (s *Service) Lookup(ctx context.Context, alias string) (*domain.Mapping, error) {
	res, err := s.resolver.Resolve(ctx, alias)
	if err != nil {
		return nil, err
	}
	return res.Mapping, nil
}

// Get returns the mapping with id, or nil when none exists.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Mapping, error) {
	return s.store.FindByID(ctx, id)
}
