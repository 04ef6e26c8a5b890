package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/yaelah/internal/logger"
)

// Expirer drops client histories last written before a cutoff.
type Expirer interface {
	Expire(cutoff time.Time) int
}

// HistoryCollector periodically removes idle client histories from the
// in-memory backend. Redis expires its keys on its own.
type HistoryCollector struct {
	store    Expirer
	logger   logger.Logger
	interval time.Duration
	ttl      time.Duration
	now      func() time.Time
	stopCh   chan struct{}
}

// NewHistoryCollector creates a collector that forgets histories idle for
// longer than ttl, checking every interval.
func NewHistoryCollector(store Expirer, log logger.Logger, interval, ttl time.Duration) *HistoryCollector {
	return &HistoryCollector{
		store:    store,
		logger:   log,
		interval: interval,
		ttl:      ttl,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic collection
func (gc *HistoryCollector) Start(ctx context.Context) {
	ticker := time.NewTicker(gc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				gc.Collect()
			case <-gc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the collector
func (gc *HistoryCollector) Stop() {
	close(gc.stopCh)
}

// Collect runs one pass and returns the number of histories removed
func (gc *HistoryCollector) Collect() int {
	removed := gc.store.Expire(gc.now().Add(-gc.ttl))
	if removed > 0 {
		gc.logger.Info("garbage collected idle histories",
			logger.Int("clients_removed", removed),
			logger.Duration("ttl", gc.ttl))
	} else {
		gc.logger.Debug("no history to garbage collect")
	}
	return removed
}
