package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultCacheTTL is the default TTL for cached alias resolutions (1 hour)
	DefaultCacheTTL = time.Hour
	// DefaultHistoryTTL is the default TTL for client history lists (30 days)
	DefaultHistoryTTL = 30 * 24 * time.Hour
)

// Store handles Redis operations for the alias cache and client histories
type Store struct {
	client     *redis.Client
	cacheTTL   time.Duration
	historyTTL time.Duration
}

// NewStore creates a new Redis store. Zero TTLs fall back to the defaults.
func NewStore(client *redis.Client, cacheTTL, historyTTL time.Duration) *Store {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	if historyTTL <= 0 {
		historyTTL = DefaultHistoryTTL
	}
	return &Store{
		client:     client,
		cacheTTL:   cacheTTL,
		historyTTL: historyTTL,
	}
}

// Ping checks the Redis server is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
