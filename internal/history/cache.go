package history

import (
	"context"
	"fmt"
	"sync"

	"github.com/MrSnakeDoc/yaelah/internal/domain"
)

// DefaultLimit caps how many entries a client history keeps.
const DefaultLimit = 50

// Store persists whole history lists per client.
type Store interface {
	LoadHistory(ctx context.Context, clientID string) ([]*domain.Mapping, error)
	SaveHistory(ctx context.Context, clientID string, items []*domain.Mapping) error
}

// Cache is the per-client list of mappings the client created, most recent
// first. It is a convenience view and never consulted for resolution.
type Cache struct {
	store Store
	limit int
	mu    sync.Mutex // serialises read-modify-write cycles
}

// NewCache builds a history cache. limit <= 0 uses DefaultLimit.
func NewCache(store Store, limit int) *Cache {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Cache{store: store, limit: limit}
}

// Record prepends m to the client's history and writes the list back.
func (c *Cache) Record(ctx context.Context, clientID string, m *domain.Mapping) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.store.LoadHistory(ctx, clientID)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	next := make([]*domain.Mapping, 0, min(len(items)+1, c.limit))
	next = append(next, m)
	for _, it := range items {
		if len(next) == c.limit {
			break
		}
		if it.ID != m.ID {
			next = append(next, it)
		}
	}

	if err := c.store.SaveHistory(ctx, clientID, next); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}

// Forget removes the entry with id from the client's history.
func (c *Cache) Forget(ctx context.Context, clientID string, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.store.LoadHistory(ctx, clientID)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	next := items[:0]
	for _, it := range items {
		if it.ID != id {
			next = append(next, it)
		}
	}
	if len(next) == len(items) {
		return nil
	}

	if err := c.store.SaveHistory(ctx, clientID, next); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}

// List returns the client's history, most recent first.
func (c *Cache) List(ctx context.Context, clientID string) ([]*domain.Mapping, error) {
	items, err := c.store.LoadHistory(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return items, nil
}
