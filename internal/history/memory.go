package history

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/yaelah/internal/domain"
)

// MemoryStore keeps client histories in process memory.
// It is used when Redis is not configured and does not survive restarts.
type MemoryStore struct {
	mu      sync.RWMutex
	clients map[string][]*domain.Mapping // client ID -> history
	touched map[string]time.Time         // client ID -> last save
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory history store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		clients: make(map[string][]*domain.Mapping),
		touched: make(map[string]time.Time),
		now:     time.Now,
	}
}

// LoadHistory returns a copy of the client's history
func (s *MemoryStore) LoadHistory(_ context.Context, clientID string) ([]*domain.Mapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := s.clients[clientID]
	out := make([]*domain.Mapping, len(items))
	copy(out, items)
	return out, nil
}

// SaveHistory replaces the client's history
func (s *MemoryStore) SaveHistory(_ context.Context, clientID string, items []*domain.Mapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(items) == 0 {
		delete(s.clients, clientID)
		delete(s.touched, clientID)
		return nil
	}
	stored := make([]*domain.Mapping, len(items))
	copy(stored, items)
	s.clients[clientID] = stored
	s.touched[clientID] = s.now()
	return nil
}

// Expire drops every history last saved before cutoff and returns how many
// clients were removed. It plays the role of the Redis key TTL.
func (s *MemoryStore) Expire(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, at := range s.touched {
		if at.Before(cutoff) {
			delete(s.clients, id)
			delete(s.touched, id)
			removed++
		}
	}
	return removed
}
