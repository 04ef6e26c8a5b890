package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/yaelah/internal/domain"
	"github.com/MrSnakeDoc/yaelah/internal/logger"
	"github.com/MrSnakeDoc/yaelah/internal/shortener"
	"github.com/MrSnakeDoc/yaelah/internal/sources/seed"
)

// Registrar is the part of the registration service the importer drives.
type Registrar interface {
	Register(ctx context.Context, req shortener.Request) (*domain.Mapping, error)
}

// ImportStats summarises one pass over the seed file.
type ImportStats struct {
	At        time.Time `json:"at"`
	Created   int       `json:"created"`
	Unchanged int       `json:"unchanged"`
	Conflicts int       `json:"conflicts"`
	Rejected  int       `json:"rejected"`
}

// SeedImporter registers the links of a seed file at boot, then again on
// every interval tick or manual trigger. Already registered aliases are left
// untouched: nothing is ever updated or deleted by an import.
type SeedImporter struct {
	loader        *seed.Loader
	mapper        *seed.Mapper
	registrar     Registrar
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}

	mu   sync.RWMutex
	last ImportStats
}

// NewSeedImporter creates a new seed importer
func NewSeedImporter(
	seedFile string,
	registrar Registrar,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *SeedImporter {
	return &SeedImporter{
		loader:        seed.NewLoader(seedFile),
		mapper:        seed.NewMapper(),
		registrar:     registrar,
		logger:        log.With(logger.String("seed_file", seedFile)),
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start imports immediately, then keeps importing in the background. A
// failed first pass is logged and retried on the next tick or trigger;
// seeding is optional and never keeps the service from starting.
func (si *SeedImporter) Start(ctx context.Context) {
	if _, err := si.Import(ctx); err != nil {
		si.logger.Error("initial seed import failed, will retry",
			logger.Duration("retry_in", si.interval),
			logger.Error(err))
	}

	ticker := time.NewTicker(si.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				si.importLogged(ctx)
			case <-si.manualTrigger:
				si.logger.Info("manual seed import triggered")
				si.importLogged(ctx)
			case <-si.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the background loop
func (si *SeedImporter) Stop() {
	close(si.stopCh)
}

// Last returns the stats of the most recent successful import
func (si *SeedImporter) Last() ImportStats {
	si.mu.RLock()
	defer si.mu.RUnlock()
	return si.last
}

func (si *SeedImporter) importLogged(ctx context.Context) {
	if _, err := si.Import(ctx); err != nil {
		si.logger.Error("failed to import seed file", logger.Error(err))
	}
}

// Import registers every valid link of the seed file that is not yet mapped.
// A store failure aborts the pass; per-link problems are logged and counted.
func (si *SeedImporter) Import(ctx context.Context) (ImportStats, error) {
	si.logger.Info("importing seed file", logger.String("path", si.loader.Path()))

	f, err := si.loader.Load()
	if err != nil {
		return ImportStats{}, fmt.Errorf("failed to load seed file: %w", err)
	}

	reqs, rejected := si.mapper.MapLinks(f)
	for _, rerr := range rejected {
		si.logger.Warn("skipping seed link", logger.Error(rerr))
	}

	stats := ImportStats{Rejected: len(rejected)}
	for _, req := range reqs {
		_, err := si.registrar.Register(ctx, req)
		if err == nil {
			stats.Created++
			continue
		}

		if taken, ok := domain.IsAliasTaken(err); ok {
			if taken.Existing != nil && taken.Existing.LongURL == req.LongURL {
				stats.Unchanged++
				continue
			}
			stats.Conflicts++
			existing := ""
			if taken.Existing != nil {
				existing = taken.Existing.LongURL
			}
			si.logger.Warn("seed alias already points elsewhere, keeping existing mapping",
				logger.String("alias", req.Alias),
				logger.String("seed_url", req.LongURL),
				logger.String("existing_url", existing))
			continue
		}

		if _, ok := domain.IsValidation(err); ok {
			stats.Rejected++
			si.logger.Warn("seed link rejected", logger.String("alias", req.Alias), logger.Error(err))
			continue
		}

		return stats, fmt.Errorf("failed to register %q: %w", req.Alias, err)
	}

	stats.At = time.Now()
	si.mu.Lock()
	si.last = stats
	si.mu.Unlock()

	si.logger.Info("seed import done",
		logger.Int("created", stats.Created),
		logger.Int("unchanged", stats.Unchanged),
		logger.Int("conflicts", stats.Conflicts),
		logger.Int("rejected", stats.Rejected))
	return stats, nil
}
