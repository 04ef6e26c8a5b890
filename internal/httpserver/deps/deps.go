package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/yaelah/internal/history"
	"github.com/MrSnakeDoc/yaelah/internal/logger"
	"github.com/MrSnakeDoc/yaelah/internal/scheduler"
	"github.com/MrSnakeDoc/yaelah/internal/shortener"
)

// Pinger is anything /readyz can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SeedStatus exposes the outcome of the last seed import.
type SeedStatus interface {
	Last() scheduler.ImportStats
}

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	AllowedCIDRS   []string           // IPs allowed to access readyz/reload endpoints
	TrustProxy     bool               // true if running behind a trusted reverse proxy (e.g., cloudflared)
	Shortener      *shortener.Service // registration, lookup and delete
	History        *history.Cache     // per-client history of created mappings
	HistoryBackend string             // "redis" | "memory"
	Database       Pinger             // persistent URL store
	Cache          Pinger             // Redis, nil when disabled
	Seed           SeedStatus         // nil when no seed file is configured
	ReloadTrigger  chan struct{}      // Channel to trigger a manual seed import (nil if seeding disabled)
}
