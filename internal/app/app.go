package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/yaelah/internal/config"
	"github.com/MrSnakeDoc/yaelah/internal/domain"
	"github.com/MrSnakeDoc/yaelah/internal/history"
	"github.com/MrSnakeDoc/yaelah/internal/httpserver"
	"github.com/MrSnakeDoc/yaelah/internal/httpserver/deps"
	"github.com/MrSnakeDoc/yaelah/internal/logger"
	"github.com/MrSnakeDoc/yaelah/internal/redis"
	"github.com/MrSnakeDoc/yaelah/internal/resolver"
	"github.com/MrSnakeDoc/yaelah/internal/scheduler"
	"github.com/MrSnakeDoc/yaelah/internal/shortener"
	redisstore "github.com/MrSnakeDoc/yaelah/internal/store/redis"
	sqlstore "github.com/MrSnakeDoc/yaelah/internal/store/sql"
	"github.com/MrSnakeDoc/yaelah/internal/utils"
	"github.com/MrSnakeDoc/yaelah/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	db          *sqlstore.Store
	redisClient *goredis.Client
	importer    *scheduler.SeedImporter
	collector   *scheduler.HistoryCollector
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// The database is mandatory - fail fast if unavailable
	bootCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	loggerClient.Info("Opening database", logger.String("driver", cfg.DBDriver))
	db, err := sqlstore.Open(bootCtx, sqlstore.Options{
		Driver:      cfg.DBDriver,
		DSN:         cfg.DBDSN,
		UniqueAlias: cfg.UniqueAlias,
		MaxOpenConn: cfg.DBMaxConns,
		ConnMaxIdle: 5 * time.Minute,
	}, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to open database: %v", err)
		os.Exit(1)
	}

	var (
		redisClient  *goredis.Client
		aliasCache   resolver.Cache
		cachePinger  deps.Pinger
		historyStore history.Store
		historyMode  = "memory"
		collector    *scheduler.HistoryCollector
	)
	if cfg.RedisEnabled() {
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		redisClient, err = redis.New(bootCtx, redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			loggerClient.Errorf("Failed to connect to Redis: %v", err)
			utils.CloseLogged(db, "database", loggerClient)
			os.Exit(1)
		}

		store := redisstore.NewStore(redisClient, cfg.CacheTTL, cfg.HistoryTTL)
		// Entries cached by a previous run may point at rows deleted since.
		if err := store.FlushCache(bootCtx); err != nil {
			loggerClient.Warn("failed to flush alias cache on startup", logger.Error(err))
		}
		aliasCache = store
		cachePinger = store
		historyStore = store
		historyMode = "redis"
		loggerClient.Info("Redis initialized successfully")
	} else {
		loggerClient.Info("redis not configured, alias cache disabled and history kept in memory")
		mem := history.NewMemoryStore()
		historyStore = mem
		collector = scheduler.NewHistoryCollector(mem, loggerClient, time.Hour, cfg.HistoryTTL)
	}

	res := resolver.New(db, aliasCache, loggerClient)
	svc := shortener.NewService(db, res, loggerClient, shortener.Options{
		BaseURL:       cfg.BaseURL,
		AliasAttempts: cfg.AliasAttempts,
		Generator:     domain.RandomAlias{Length: cfg.AliasLength},
	})

	d := deps.Deps{
		Logger:         loggerClient,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		AllowedCIDRS:   cfg.AllowedCIDRS,
		TrustProxy:     cfg.TrustProxy,
		Shortener:      svc,
		History:        history.NewCache(historyStore, cfg.HistoryLimit),
		HistoryBackend: historyMode,
		Database:       db,
		Cache:          cachePinger,
	}

	// Initialize seed importer (if a seed file is configured)
	var importer *scheduler.SeedImporter
	if cfg.SeedFile != "" {
		loggerClient.Info("seed file configured, initializing seed importer",
			logger.String("file", cfg.SeedFile))
		reloadTrigger := make(chan struct{}, 1)
		importer = scheduler.NewSeedImporter(cfg.SeedFile, svc, loggerClient, cfg.SeedInterval, reloadTrigger)
		d.Seed = importer
		d.ReloadTrigger = reloadTrigger
	} else {
		loggerClient.Info("seed file not configured, seeding disabled")
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      httpserver.New(cfg, loggerClient, d),
		db:          db,
		redisClient: redisClient,
		importer:    importer,
		collector:   collector,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Yaelah v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Yaelah %s", version.String())
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.importer != nil {
		a.importer.Start(ctx)
		a.logger.Info("seed importer started",
			logger.Duration("interval", a.cfg.SeedInterval))
	}

	if a.collector != nil {
		a.collector.Start(ctx)
		a.logger.Info("history collector started",
			logger.Duration("ttl", a.cfg.HistoryTTL))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	if a.importer != nil {
		a.importer.Stop()
	}
	if a.collector != nil {
		a.collector.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.logger.Info("✅ Yaelah stopped cleanly")
	return nil
}

func (a *App) close() {
	if a.redisClient != nil {
		utils.CloseLogged(a.redisClient, "redis", a.logger)
	}
	utils.CloseLogged(a.db, "database", a.logger)
	_ = a.logger.Sync()
}
