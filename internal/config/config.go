package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env string // "development", "production", etc.

	// Server
	ServerAddr string

	// Database
	DatabaseURL string

	// Redis (optional; backs the per-IP HTTP limiter when set)
	RedisURL string

	// Upstream trends source
	TrendsBaseURL string
	Geo           string
	FetchTimeout  time.Duration
	FetchPause    time.Duration // pause between fetcher attempts in the chain
	ScoreMin      int           // keywords at or below this score are discarded

	// Memory cache
	CacheTTL             time.Duration
	CacheCleanupInterval time.Duration

	// Database cache tier
	DBCacheMaxAge time.Duration
	DBCacheLimit  int

	// Upstream rate limiting
	MinRequestInterval time.Duration
	MaxRequestsPerHour int

	// Durable retention
	DBCleanupInterval time.Duration
	DBRetentionDays   int

	// Persisted schema toggles
	ExtendedFields bool // topic_cluster, intent, keyword_hash columns
	DayBucket      bool // day_bucket column and response field

	// Transport protection (per-IP, distinct from upstream quota)
	HTTPRateLimit int // requests per minute per IP
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Env:         getEnv("ENV", "development"),
		ServerAddr:  getEnv("SERVER_ADDR", ":3000"),
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/trendpulse?sslmode=disable"),
		RedisURL:    getEnv("REDIS_URL", ""),

		TrendsBaseURL: getEnv("TRENDS_BASE_URL", "https://trends.google.com"),
		Geo:           getEnv("GEO", "ID"),
		FetchTimeout:  getEnvSeconds("FETCH_TIMEOUT", 10),
		FetchPause:    getEnvSeconds("FETCH_PAUSE", 1),
		ScoreMin:      getEnvInt("SCORE_MIN", 20),

		CacheTTL:             getEnvSeconds("CACHE_DURATION", 3600),
		CacheCleanupInterval: getEnvSeconds("CACHE_CLEANUP_INTERVAL", 7200),

		DBCacheMaxAge: getEnvSeconds("DB_CACHE_MAX_AGE", 7200),
		DBCacheLimit:  getEnvInt("DB_CACHE_LIMIT", 10),

		MinRequestInterval: getEnvSeconds("MIN_REQUEST_INTERVAL", 10),
		MaxRequestsPerHour: getEnvInt("MAX_REQUESTS_PER_HOUR", 100),

		DBCleanupInterval: getEnvSeconds("DATABASE_CLEANUP_INTERVAL", 43200),
		DBRetentionDays:   getEnvInt("DB_RETENTION_DAYS", 30),

		ExtendedFields: getEnvBool("ENABLE_EXTENDED_FIELDS", true),
		DayBucket:      getEnvBool("ENABLE_DAY_BUCKET", true),

		HTTPRateLimit: getEnvInt("HTTP_RATE_LIMIT", 100),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

// getEnvSeconds reads an integer number of seconds.
func getEnvSeconds(key string, fallback int) time.Duration {
	return time.Duration(getEnvInt(key, fallback)) * time.Second
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	switch value {
	case "false", "0", "no":
		return false
	}
	return true
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}
