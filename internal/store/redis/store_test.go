package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/yaelah/internal/domain"
)

func TestKeys(t *testing.T) {
	if got := AliasKey("docs"); got != "yaelah:alias:docs" {
		t.Errorf("AliasKey() = %q", got)
	}
	if got := HistoryKey("c1"); got != "yaelah:history:c1" {
		t.Errorf("HistoryKey() = %q", got)
	}
}

func TestNewStoreDefaults(t *testing.T) {
	s := NewStore(nil, 0, -time.Second)
	if s.cacheTTL != DefaultCacheTTL || s.historyTTL != DefaultHistoryTTL {
		t.Errorf("ttls = %v/%v, want defaults", s.cacheTTL, s.historyTTL)
	}
}

// newTestStore runs an in-process Redis for the duration of the test.
func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, time.Minute, time.Hour), mr
}

func TestMappingCache(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	if m, err := s.GetMapping(ctx, "docs"); err != nil || m != nil {
		t.Fatalf("GetMapping(miss) = %v, %v; want nil, nil", m, err)
	}

	want := &domain.Mapping{ID: 7, Alias: "docs", LongURL: "https://example.com", ShortURL: "https://yae.la/docs"}
	if err := s.PutMapping(ctx, want); err != nil {
		t.Fatalf("PutMapping() error = %v", err)
	}
	got, err := s.GetMapping(ctx, "docs")
	if err != nil || got == nil || got.ID != 7 || got.LongURL != want.LongURL {
		t.Fatalf("GetMapping() = %+v, %v", got, err)
	}
	if ttl := mr.TTL(AliasKey("docs")); ttl != time.Minute {
		t.Errorf("cache TTL = %v, want 1m", ttl)
	}

	if err := s.DropMapping(ctx, "docs"); err != nil {
		t.Fatalf("DropMapping() error = %v", err)
	}
	if m, _ := s.GetMapping(ctx, "docs"); m != nil {
		t.Errorf("mapping still cached after DropMapping: %+v", m)
	}

	// expired entries read as misses
	_ = s.PutMapping(ctx, want)
	mr.FastForward(2 * time.Minute)
	if m, err := s.GetMapping(ctx, "docs"); err != nil || m != nil {
		t.Errorf("GetMapping(expired) = %v, %v; want nil, nil", m, err)
	}
}

func TestFlushCacheKeepsHistories(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	for _, alias := range []string{"a", "b", "c"} {
		if err := s.PutMapping(ctx, &domain.Mapping{ID: 1, Alias: alias}); err != nil {
			t.Fatalf("PutMapping(%s) error = %v", alias, err)
		}
	}
	if err := s.SaveHistory(ctx, "client", []*domain.Mapping{{ID: 1}}); err != nil {
		t.Fatalf("SaveHistory() error = %v", err)
	}

	if err := s.FlushCache(ctx); err != nil {
		t.Fatalf("FlushCache() error = %v", err)
	}
	for _, alias := range []string{"a", "b", "c"} {
		if mr.Exists(AliasKey(alias)) {
			t.Errorf("FlushCache left %s behind", AliasKey(alias))
		}
	}
	if items, _ := s.LoadHistory(ctx, "client"); len(items) != 1 {
		t.Errorf("FlushCache touched histories: %v", items)
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	items, err := s.LoadHistory(ctx, "nobody")
	if err != nil || items == nil || len(items) != 0 {
		t.Fatalf("LoadHistory(unknown) = %v, %v; want empty slice", items, err)
	}

	saved := []*domain.Mapping{{ID: 2, Alias: "b"}, {ID: 1, Alias: "a"}}
	if err := s.SaveHistory(ctx, "c1", saved); err != nil {
		t.Fatalf("SaveHistory() error = %v", err)
	}
	items, err = s.LoadHistory(ctx, "c1")
	if err != nil || len(items) != 2 || items[0].ID != 2 {
		t.Errorf("LoadHistory() = %v, %v", items, err)
	}
	if ttl := mr.TTL(HistoryKey("c1")); ttl != time.Hour {
		t.Errorf("history TTL = %v, want 1h", ttl)
	}

	mr.FastForward(2 * time.Hour)
	if items, _ := s.LoadHistory(ctx, "c1"); len(items) != 0 {
		t.Errorf("history survived its TTL: %v", items)
	}
}

func TestCorruptEntriesSurface(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	if err := mr.Set(AliasKey("bad"), "{not json"); err != nil {
		t.Fatalf("mr.Set() error = %v", err)
	}
	if _, err := s.GetMapping(ctx, "bad"); err == nil {
		t.Error("GetMapping() on corrupt entry should fail")
	}

	if err := mr.Set(HistoryKey("bad"), "[1,"); err != nil {
		t.Fatalf("mr.Set() error = %v", err)
	}
	if _, err := s.LoadHistory(ctx, "bad"); err == nil {
		t.Error("LoadHistory() on corrupt entry should fail")
	}
}

func TestServerDown(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	mr.Close()

	if err := s.Ping(ctx); err == nil {
		t.Error("Ping() against a stopped server should fail")
	}
	if _, err := s.GetMapping(ctx, "docs"); err == nil {
		t.Error("GetMapping() against a stopped server should fail, not report a miss")
	}
	if err := s.SaveHistory(ctx, "c1", []*domain.Mapping{{ID: 1}}); err == nil {
		t.Error("SaveHistory() against a stopped server should fail")
	}
}
