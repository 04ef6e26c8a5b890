package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/yaelah/internal/domain"
)

// LoadHistory returns the stored history of a client, most recent first.
// An unknown client has an empty history.
func (s *Store) LoadHistory(ctx context.Context, clientID string) ([]*domain.Mapping, error) {
	data, err := s.client.Get(ctx, HistoryKey(clientID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []*domain.Mapping{}, nil
		}
		return nil, fmt.Errorf("failed to get history: %w", err)
	}

	var items []*domain.Mapping
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}
	return items, nil
}

// SaveHistory overwrites the whole history of a client and refreshes its TTL
func (s *Store) SaveHistory(ctx context.Context, clientID string, items []*domain.Mapping) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := s.client.Set(ctx, HistoryKey(clientID), data, s.historyTTL).Err(); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}
