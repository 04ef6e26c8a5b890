package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/yaelah/internal/domain"
)

// PutMapping caches a resolved mapping under its alias
func (s *Store) PutMapping(ctx context.Context, m *domain.Mapping) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}
	if err := s.client.Set(ctx, AliasKey(m.Alias), data, s.cacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache mapping: %w", err)
	}
	return nil
}

// GetMapping retrieves a cached mapping. A miss returns nil, nil.
func (s *Store) GetMapping(ctx context.Context, alias string) (*domain.Mapping, error) {
	data, err := s.client.Get(ctx, AliasKey(alias)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to get cached mapping: %w", err)
	}

	var m domain.Mapping
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached mapping: %w", err)
	}
	return &m, nil
}

// DropMapping removes a cached alias resolution
func (s *Store) DropMapping(ctx context.Context, alias string) error {
	if err := s.client.Del(ctx, AliasKey(alias)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached mapping: %w", err)
	}
	return nil
}

// FlushCache removes all cached alias resolutions
func (s *Store) FlushCache(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, KeyPrefixAlias+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete cache key: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to flush cache: %w", err)
	}
	return nil
}
