package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request handler timeout (ex: 5s)

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Shortener
	BaseURL       string // public prefix of short URLs, no trailing slash (ex: https://yae.la)
	AliasLength   int    // length of generated aliases (default: 6)
	AliasAttempts int    // generated aliases tried before giving up (default: 5)

	// Database
	DBDriver    string // "sqlite3" | "postgres"
	DBDSN       string // sqlite file path or postgres URL
	UniqueAlias bool   // UNIQUE index on url.alias (default: true)
	DBMaxConns  int    // postgres pool size (ignored for sqlite)

	// Seed file
	SeedFile     string        // optional YAML file of aliases registered at boot (empty = disabled)
	SeedInterval time.Duration // interval to re-import the seed file (default: 24h)

	// History
	HistoryLimit int           // entries kept per client (default: 50)
	HistoryTTL   time.Duration // idle lifetime of a client's history (default: 720h)
	CacheTTL     time.Duration // lifetime of a cached alias resolution (default: 1h)

	// Redis (optional, empty address = alias cache off and in-memory history)
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedCIDRS []string // optional, restrict /readyz and /reload to specific IPs (e.g. "1.2.3.4, 10.0.0.0/8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
}

// RedisEnabled reports whether a Redis address was configured.
func (c *Config) RedisEnabled() bool { return c.RedisAddr != "" }

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("YAELAH_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("YAELAH_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("YAELAH_REQUEST_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("YAELAH_LOG_LEVEL", "info"),
		PrettyLog: mustBool("YAELAH_PRETTY_LOG", true),

		// Shortener
		BaseURL:       requireBaseURL("YAELAH_BASE_URL"),
		AliasLength:   getenvInt("YAELAH_ALIAS_LENGTH", 6),
		AliasAttempts: getenvInt("YAELAH_ALIAS_ATTEMPTS", 5),

		// Database
		DBDriver:    getenv("YAELAH_DB_DRIVER", "sqlite3"),
		DBDSN:       getenv("YAELAH_DB_DSN", "./data/yaelah.db"),
		UniqueAlias: mustBool("YAELAH_UNIQUE_ALIAS", true),
		DBMaxConns:  getenvInt("YAELAH_DB_MAX_CONNS", 10),

		// Seed file
		SeedFile:     getenv("YAELAH_SEED_FILE", ""), // Optional, empty = no seeding
		SeedInterval: mustDuration("YAELAH_SEED_INTERVAL", 24*time.Hour),

		// History + cache
		HistoryLimit: getenvInt("YAELAH_HISTORY_LIMIT", 50),
		HistoryTTL:   mustDuration("YAELAH_HISTORY_TTL", 720*time.Hour),
		CacheTTL:     mustDuration("YAELAH_CACHE_TTL", time.Hour),

		// Redis settings
		RedisAddr:             getenv("YAELAH_REDIS_ADDR", ""), // Optional, empty = redis disabled
		RedisUser:             getenv("YAELAH_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("YAELAH_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("YAELAH_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("YAELAH_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedCIDRS: parseAllowedIPs(getenv("YAELAH_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("YAELAH_TRUST_PROXY", true),
	}

	switch cfg.DBDriver {
	case "sqlite3", "postgres":
	default:
		panic(fmt.Sprintf("❌ FATAL: YAELAH_DB_DRIVER must be sqlite3 or postgres, got %q", cfg.DBDriver))
	}

	// Validate Redis password configuration
	if cfg.RedisEnabled() && cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: YAELAH_REDIS_PASSWORD is required when YAELAH_REDIS_PASSWORD_REQUIRED=true")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		cfgCopy.DBDSN = redactDSN(cfg.DBDSN)
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

// requireBaseURL reads an absolute http(s) URL and strips trailing slashes.
func requireBaseURL(key string) string {
	v := strings.TrimRight(requireEnv(key), "/")
	u, err := url.Parse(v)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		panic(fmt.Sprintf("❌ FATAL: %s must be an absolute http(s) URL, got %q", key, v))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

// redactDSN hides the password of URL-style DSNs.
// Example: postgres://app:secret@db:5432/yaelah -> postgres://app:xxxxx@db:5432/yaelah
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	return u.Redacted()
}
