package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/MrSnakeDoc/yaelah/internal/domain"
	"github.com/MrSnakeDoc/yaelah/internal/history"
	"github.com/MrSnakeDoc/yaelah/internal/logger"
)

type recordingExpirer struct {
	cutoffs chan time.Time
}

func (r *recordingExpirer) Expire(cutoff time.Time) int {
	select {
	case r.cutoffs <- cutoff:
	default:
	}
	return 1
}

func TestHistoryCollector_Collect(t *testing.T) {
	log := logger.New("error", false)
	store := history.NewMemoryStore()
	ctx := context.Background()

	if err := store.SaveHistory(ctx, "client-a", []*domain.Mapping{{ID: 1, Alias: "a"}}); err != nil {
		t.Fatalf("SaveHistory() error = %v", err)
	}

	// ttl of 30 days: a history saved just now must survive
	gc := NewHistoryCollector(store, log, time.Hour, 30*24*time.Hour)
	if removed := gc.Collect(); removed != 0 {
		t.Errorf("Collect() removed %d fresh histories, want 0", removed)
	}

	// Pretend 31 days went by
	gc.now = func() time.Time { return time.Now().Add(31 * 24 * time.Hour) }
	if removed := gc.Collect(); removed != 1 {
		t.Errorf("Collect() removed %d, want 1", removed)
	}

	items, _ := store.LoadHistory(ctx, "client-a")
	if len(items) != 0 {
		t.Errorf("history still present after collection: %v", items)
	}
}

func TestHistoryCollector_StartStop(t *testing.T) {
	log := logger.New("error", false)
	exp := &recordingExpirer{cutoffs: make(chan time.Time, 4)}

	gc := NewHistoryCollector(exp, log, 10*time.Millisecond, time.Hour)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	gc.now = func() time.Time { return fixed }

	gc.Start(context.Background())
	defer gc.Stop()

	select {
	case cutoff := <-exp.cutoffs:
		if want := fixed.Add(-time.Hour); !cutoff.Equal(want) {
			t.Errorf("cutoff = %v, want %v", cutoff, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("collector never ran")
	}
}
