package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration derived from environment variables.
type Config struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	ServiceName  string

	// Ad platform API
	AdManagerBaseURL string
	AdManagerToken   string
	AdManagerTimeout time.Duration

	// Operations journal
	PostgresDSN    string
	JournalEnabled bool

	// Targeting resolver cache
	RedisAddr        string
	ResolverCacheTTL time.Duration

	// Operation analytics
	ClickHouseDSN    string
	AnalyticsEnabled bool

	// Database connection pooling
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	// Tracing
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64
}

// Load parses environment variables and returns a Config populated with
// defaults when variables are absent.
func Load() Config {
	cfg := Config{}

	cfg.Port = getenv("PORT", "8080")
	cfg.ReadTimeout = envDuration("READ_TIMEOUT", 5*time.Second)
	cfg.WriteTimeout = envDuration("WRITE_TIMEOUT", 30*time.Second)
	cfg.ServiceName = getenv("SERVICE_NAME", "dfp-query-tool")

	cfg.AdManagerBaseURL = getenv("ADMANAGER_BASE_URL", "http://localhost:9400/v1/networks/0")
	cfg.AdManagerToken = getenv("ADMANAGER_TOKEN", "")
	cfg.AdManagerTimeout = envDuration("ADMANAGER_TIMEOUT", 30*time.Second)

	cfg.PostgresDSN = getenv("POSTGRES_DSN", "postgres://postgres@127.0.0.1:5432/postgres?sslmode=disable")
	cfg.JournalEnabled = envBool("JOURNAL_ENABLED", true)

	cfg.RedisAddr = getenv("REDIS_ADDR", "localhost:6379")
	cfg.ResolverCacheTTL = envDuration("RESOLVER_CACHE_TTL", 12*time.Hour)

	cfg.ClickHouseDSN = getenv("CLICKHOUSE_DSN", "clickhouse://default:@localhost:9000/default?async_insert=1&wait_for_async_insert=1")
	cfg.AnalyticsEnabled = envBool("ANALYTICS_ENABLED", false)

	cfg.DBMaxOpenConns = envInt("DB_MAX_OPEN_CONNS", 10)
	cfg.DBMaxIdleConns = envInt("DB_MAX_IDLE_CONNS", 5)
	cfg.DBConnMaxLifetime = envDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)

	cfg.TracingEnabled = envBool("TRACING_ENABLED", false)
	cfg.OTLPEndpoint = getenv("OTLP_ENDPOINT", "localhost:4317")
	cfg.TracingSampleRate = envFloat("TRACING_SAMPLE_RATE", 1.0)

	return cfg
}

// getenv returns the value of the environment variable if set, otherwise def.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envDuration parses an environment variable into a time.Duration.
// The value can be a duration string (e.g. "5s") or a number of seconds.
// If the variable is unset or invalid, def is returned.
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

// envBool parses a boolean environment variable. Accepted values are those
// supported by strconv.ParseBool. When unset or invalid, def is returned.
func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return def
}

// envInt parses an integer environment variable. When unset or invalid, def is returned.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if i, err := strconv.Atoi(v); err == nil {
		return i
	}
	return def
}

// envFloat parses a float64 environment variable. When unset or invalid, def is returned.
func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return def
}
