package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/yaelah/internal/logger"
)

// ConnectOptions defines the Redis client and its startup retry policy.
type ConnectOptions struct {
	Addr           string        // Redis address (ex: "localhost:6379")
	User           string        // Optional username
	Password       string        // Optional password
	RedisDB        int           // Redis DB number
	DialTimeout    time.Duration // Redis dial timeout
	ReadTimeout    time.Duration // Redis read timeout
	WriteTimeout   time.Duration // Redis write timeout
	PoolSize       int           // Redis connection pool size
	ConnectTimeout time.Duration // Total time allowed for connection attempts (ex: 30s)
	RetryInterval  time.Duration // Initial wait between retries, doubled after each failure
	MaxWait        time.Duration // Cap for the wait between retries (ex: 10s)
	PingTimeout    time.Duration // Timeout for each ping attempt (ex: 2s)
	WarnThreshold  int           // Attempts logged as warnings before escalating to errors
}

func (o ConnectOptions) validate() error {
	switch {
	case o.Addr == "":
		return fmt.Errorf("Addr must not be empty")
	case o.ConnectTimeout <= 0:
		return fmt.Errorf("ConnectTimeout must be > 0, got %v", o.ConnectTimeout)
	case o.RetryInterval <= 0:
		return fmt.Errorf("RetryInterval must be > 0, got %v", o.RetryInterval)
	case o.MaxWait <= 0:
		return fmt.Errorf("MaxWait must be > 0, got %v", o.MaxWait)
	case o.PingTimeout <= 0:
		return fmt.Errorf("PingTimeout must be > 0, got %v", o.PingTimeout)
	case o.WarnThreshold < 0:
		return fmt.Errorf("WarnThreshold must be >= 0, got %d", o.WarnThreshold)
	}
	return nil
}

// connector pings a freshly built client until it answers or time runs out.
type connector struct {
	client *redis.Client
	opts   ConnectOptions
	log    logger.Logger
}

// New creates a Redis client and blocks until it answers a PING, retrying
// with exponential backoff for at most opts.ConnectTimeout.
func New(ctx context.Context, opts ConnectOptions, log logger.Logger) (*redis.Client, error) {
	if err := opts.validate(); err != nil {
		log.Error("invalid redis connect options", logger.Error(err))
		return nil, err
	}

	c := &connector{
		client: redis.NewClient(&redis.Options{
			Addr:         opts.Addr,
			Username:     opts.User,
			Password:     opts.Password,
			DB:           opts.RedisDB,
			DialTimeout:  opts.DialTimeout,
			ReadTimeout:  opts.ReadTimeout,
			WriteTimeout: opts.WriteTimeout,
			PoolSize:     opts.PoolSize,
		}),
		opts: opts,
		log:  log.With(logger.String("addr", opts.Addr)),
	}

	if err := c.connect(ctx); err != nil {
		_ = c.client.Close()
		return nil, err
	}
	return c.client, nil
}

func (c *connector) connect(parent context.Context) error {
	ctx, cancel := context.WithTimeout(parent, c.opts.ConnectTimeout)
	defer cancel()

	c.log.Info("connecting to redis", logger.Duration("timeout", c.opts.ConnectTimeout))

	start := time.Now()
	wait := c.opts.RetryInterval
	for attempt := 1; ; attempt++ {
		err := c.ping(ctx)
		if err == nil {
			c.logConnected(attempt, time.Since(start))
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			c.log.Error("redis unavailable - giving up",
				logger.Int("attempts", attempt),
				logger.Duration("timeout", c.opts.ConnectTimeout),
				logger.Error(err))
			return fmt.Errorf("redis unavailable at %s after %d attempts (timeout: %v): %w",
				c.opts.Addr, attempt, c.opts.ConnectTimeout, err)
		case <-timer.C:
		}

		c.logRetry(attempt, timeLeft(ctx), wait, err)
		wait = min(wait*2, c.opts.MaxWait)
	}
}

func (c *connector) ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, c.opts.PingTimeout)
	defer cancel()
	return c.client.Ping(pingCtx).Err()
}

func (c *connector) logConnected(attempts int, elapsed time.Duration) {
	if attempts == 1 {
		c.log.Info("connected to redis")
		return
	}
	c.log.Warn("connected to redis after retry",
		logger.Int("attempts", attempts),
		logger.Duration("elapsed", elapsed))
}

func (c *connector) logRetry(attempt int, remaining, next time.Duration, err error) {
	fields := []any{attempt, next, err}
	switch {
	case remaining < 10*time.Second:
		c.log.Errorf("redis still down (attempt %d), retrying in %v before timeout: %v", fields...)
	case attempt <= c.opts.WarnThreshold:
		c.log.Warnf("redis connection failed (attempt %d), retrying in %v: %v", fields...)
	default:
		c.log.Errorf("redis still unavailable (attempt %d), retrying in %v: %v", fields...)
	}
}

// timeLeft returns the remaining time before the context deadline.
func timeLeft(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return 0
	}
	return time.Until(deadline)
}
