package models

import (
	"time"

	"github.com/google/uuid"
)

// Intent classifies what a searcher is likely after.
const (
	IntentCommercial    = "commercial"
	IntentCreative      = "creative"
	IntentInformational = "informational"
)

// Source tags identifying where a set of keywords came from.
const (
	SourceFallback      = "fallback"
	SourceDatabaseCache = "database_cache"
)

// Cache tier hit markers on a Response.
const (
	CacheHitMemory   = "memory"
	CacheHitDatabase = "database"
	CacheHitFresh    = "fresh"
)

// RawTrend is a keyword/score pair as returned by a fetcher, before enrichment.
type RawTrend struct {
	Keyword string `json:"keyword"`
	Score   int    `json:"score"`
}

// KeywordRecord is a single enriched trending keyword. Immutable once built;
// its identity for deduplication is (topic, keyword, day_bucket).
type KeywordRecord struct {
	ID           uuid.UUID `json:"id,omitempty"`
	Keyword      string    `json:"keyword"`
	Score        int       `json:"score"`
	Topic        string    `json:"topic"`
	TopicCluster string    `json:"topic_cluster,omitempty"`
	Intent       string    `json:"intent,omitempty"`
	Source       string    `json:"source"`
	KeywordHash  string    `json:"keyword_hash,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	DayBucket    string    `json:"day_bucket,omitempty"` // ISO date (YYYY-MM-DD)
}

// Response is the payload served for a trends request. It is cached in
// memory as-is but never persisted whole; records are persisted one by one.
type Response struct {
	Source        string          `json:"source"`
	Topic         string          `json:"topic"`
	TopicCluster  string          `json:"topic_cluster,omitempty"`
	TrendKeywords []KeywordRecord `json:"trend_keywords"`
	CacheHit      string          `json:"cache_hit"`
	Timestamp     time.Time       `json:"timestamp"`
}

// CacheStats summarizes memory cache occupancy for the status endpoint.
type CacheStats struct {
	TotalEntries       int     `json:"total_entries"`
	FreshEntries       int     `json:"fresh_entries"`
	ExpiredEntries     int     `json:"expired_entries"`
	CacheDurationHours float64 `json:"cache_duration_hours"`
}

// RateLimitStats mirrors the upstream limiter counters.
type RateLimitStats struct {
	RequestsThisHour          int     `json:"requests_this_hour"`
	MaxRequestsPerHour        int     `json:"max_requests_per_hour"`
	MinRequestIntervalSeconds float64 `json:"min_request_interval_seconds"`
	LastRequestTime           *string `json:"last_request_time"`
}

// SystemInfo carries uptime and janitor bookkeeping.
type SystemInfo struct {
	UptimeHours  float64  `json:"uptime_hours"`
	LastCleanup  string   `json:"last_cleanup"`
	CachedTopics []string `json:"cached_topics"`
}

// StatusReport is the /cache-status payload.
type StatusReport struct {
	CacheStats   CacheStats     `json:"cache_stats"`
	RateLimiting RateLimitStats `json:"rate_limiting"`
	SystemInfo   SystemInfo     `json:"system_info"`
}
