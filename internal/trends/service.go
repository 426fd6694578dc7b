package trends

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"trendpulse/internal/cache"
	"trendpulse/internal/config"
	"trendpulse/internal/metrics"
	"trendpulse/internal/models"
	"trendpulse/internal/ratelimit"
	"trendpulse/internal/topics"
)

// Repository is the durable store as the service sees it. Every method may
// fail independently; failures never crash the request path.
type Repository interface {
	// RecentKeywords returns rows for topic newer than since, newest
	// first, capped at limit.
	RecentKeywords(ctx context.Context, topic string, since time.Time, limit int) ([]models.KeywordRecord, error)

	// InsertKeywords writes records and reports how many rows landed.
	InsertKeywords(ctx context.Context, records []models.KeywordRecord) (int, error)

	// UpsertKeywords writes records, updating on dedup-key conflicts.
	UpsertKeywords(ctx context.Context, records []models.KeywordRecord) (int, error)

	// DeleteKeywordsBefore removes rows older than cutoff.
	DeleteKeywordsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Service orchestrates a trend request through the cache tiers: janitor
// sweeps, rate limiting, topic selection, memory cache, database cache,
// then the fetch chain with write-through and best-effort persistence.
type Service struct {
	cfg     *config.Config
	repo    Repository
	cache   *cache.TopicCache
	limiter *ratelimit.Limiter
	chain   *Chain
	log     *slog.Logger

	now       func() time.Time
	pickTopic func(cluster string) (string, string)

	mu           sync.Mutex
	startTime    time.Time
	lastMemSweep time.Time
	lastDBSweep  time.Time
}

// NewService wires the cache tiers and fetch chain for the given fetchers.
func NewService(cfg *config.Config, repo Repository, fetchers []Fetcher, log *slog.Logger) *Service {
	limiter := ratelimit.New(cfg.MinRequestInterval, cfg.MaxRequestsPerHour)
	s := &Service{
		cfg:       cfg,
		repo:      repo,
		cache:     cache.New(),
		limiter:   limiter,
		chain:     NewChain(fetchers, limiter, cfg.FetchPause, cfg.FetchTimeout, cfg.Geo, log),
		log:       log,
		now:       time.Now,
		pickTopic: topics.Pick,
	}
	s.startTime = s.now()
	s.lastMemSweep = s.startTime
	s.lastDBSweep = s.startTime
	return s
}

// Cache exposes the memory tier for metrics registration.
func (s *Service) Cache() *cache.TopicCache {
	return s.cache
}

// Trends serves one request. The only error it returns is *RateLimitError;
// upstream and persistence failures degrade to a tagged 200-equivalent
// response.
func (s *Service) Trends(ctx context.Context, cluster string) (models.Response, error) {
	s.runDueSweeps(ctx)

	if d := s.limiter.Admit(); !d.Allowed {
		metrics.RecordRequest("rate_limited")
		return models.Response{}, &RateLimitError{RetryAfter: d.RetryAfter, Message: d.Reason}
	}

	topic, clusterName := s.pickTopic(cluster)
	s.log.Info("topic selected", "topic", topic, "cluster", clusterName)

	if resp, ok := s.cache.Get(topic, s.cfg.CacheTTL); ok {
		s.log.Info("serving from memory cache", "topic", topic)
		resp.CacheHit = models.CacheHitMemory
		metrics.RecordRequest(models.CacheHitMemory)
		return resp, nil
	}

	if resp, ok := s.readDurable(ctx, topic, clusterName); ok {
		s.log.Info("serving from database cache", "topic", topic)
		s.cache.Put(topic, resp)
		metrics.RecordRequest(models.CacheHitDatabase)
		return resp, nil
	}

	s.log.Info("fetching fresh data", "topic", topic)
	now := s.now()
	raw, source := s.chain.Resolve(ctx, topic)
	records := Enrich(topic, clusterName, raw, source, now, s.cfg.DayBucket)

	resp := models.Response{
		Source:        source,
		Topic:         topic,
		TopicCluster:  clusterName,
		TrendKeywords: records,
		CacheHit:      models.CacheHitFresh,
		Timestamp:     now.UTC(),
	}
	s.cache.Put(topic, resp)
	s.persist(ctx, records)
	metrics.RecordRequest(models.CacheHitFresh)
	return resp, nil
}

// readDurable consults the repository as a second-tier cache. Errors are
// absorbed; this tier is best effort.
func (s *Service) readDurable(ctx context.Context, topic, cluster string) (models.Response, bool) {
	since := s.now().Add(-s.cfg.DBCacheMaxAge)
	rows, err := s.repo.RecentKeywords(ctx, topic, since, s.cfg.DBCacheLimit)
	if err != nil {
		s.log.Warn("database cache read failed", "topic", topic, "error", err)
		return models.Response{}, false
	}
	if len(rows) == 0 {
		return models.Response{}, false
	}
	return models.Response{
		Source:        models.SourceDatabaseCache,
		Topic:         topic,
		TopicCluster:  cluster,
		TrendKeywords: rows,
		CacheHit:      models.CacheHitDatabase,
		Timestamp:     s.now().UTC(),
	}, true
}

// persist writes records through insert, retrying once as an upsert keyed
// on the dedup columns. Both failing abandons the write; the response path
// is unaffected. Detached from the request context so a disconnect does
// not lose an otherwise good write.
func (s *Service) persist(ctx context.Context, records []models.KeywordRecord) {
	if len(records) == 0 {
		return
	}
	pctx := context.WithoutCancel(ctx)

	n, err := s.repo.InsertKeywords(pctx, records)
	if err == nil {
		s.log.Info("persisted keywords", "rows", n)
		metrics.RecordPersist("insert", n)
		return
	}
	s.log.Warn("insert failed, retrying as upsert", "error", err)

	n, err = s.repo.UpsertKeywords(pctx, records)
	if err != nil {
		s.log.Error("persistence abandoned", "error", err)
		return
	}
	s.log.Info("upsert fallback succeeded", "rows", n)
	metrics.RecordPersist("upsert", n)
}

// runDueSweeps triggers the time-gated janitor passes. Timestamps advance
// whether or not a sweep succeeds, so failures don't cause retry storms.
func (s *Service) runDueSweeps(ctx context.Context) {
	now := s.now()

	s.mu.Lock()
	memDue := now.Sub(s.lastMemSweep) > s.cfg.CacheCleanupInterval
	if memDue {
		s.lastMemSweep = now
	}
	dbDue := s.cfg.DBCleanupInterval > 0 && now.Sub(s.lastDBSweep) > s.cfg.DBCleanupInterval
	if dbDue {
		s.lastDBSweep = now
	}
	s.mu.Unlock()

	if memDue {
		removed := s.cache.Sweep(s.cfg.CacheTTL)
		s.log.Info("cache cleanup", "removed", removed)
		metrics.RecordSweep("memory", removed)
	}
	if dbDue {
		s.CleanupDatabase(ctx, s.cfg.DBRetentionDays)
	}
}

// CleanupDatabase deletes rows older than the retention window and returns
// the deleted count. Disabled when retentionDays <= 0. Failures are logged
// and absorbed; the sweep timestamp advances regardless.
func (s *Service) CleanupDatabase(ctx context.Context, retentionDays int) int64 {
	defer func() {
		s.mu.Lock()
		s.lastDBSweep = s.now()
		s.mu.Unlock()
	}()

	if retentionDays <= 0 {
		return 0
	}

	cutoff := s.now().Add(-time.Duration(retentionDays) * 24 * time.Hour)
	deleted, err := s.repo.DeleteKeywordsBefore(ctx, cutoff)
	if err != nil {
		s.log.Warn("database cleanup failed", "error", err)
		return 0
	}
	s.log.Info("database cleanup", "removed", deleted, "retention_days", retentionDays)
	metrics.RecordSweep("database", int(deleted))
	return deleted
}

// Status assembles the /cache-status payload.
func (s *Service) Status() models.StatusReport {
	now := s.now()
	total, fresh := s.cache.Stats(s.cfg.CacheTTL)
	snap := s.limiter.Snapshot()

	var lastRequest *string
	if !snap.LastRequest.IsZero() {
		v := snap.LastRequest.UTC().Format(time.RFC3339)
		lastRequest = &v
	}

	s.mu.Lock()
	start := s.startTime
	lastSweep := s.lastMemSweep
	s.mu.Unlock()

	return models.StatusReport{
		CacheStats: models.CacheStats{
			TotalEntries:       total,
			FreshEntries:       fresh,
			ExpiredEntries:     total - fresh,
			CacheDurationHours: s.cfg.CacheTTL.Hours(),
		},
		RateLimiting: models.RateLimitStats{
			RequestsThisHour:          snap.RequestsThisHour,
			MaxRequestsPerHour:        snap.MaxPerHour,
			MinRequestIntervalSeconds: snap.MinInterval.Seconds(),
			LastRequestTime:           lastRequest,
		},
		SystemInfo: models.SystemInfo{
			UptimeHours:  now.Sub(start).Hours(),
			LastCleanup:  lastSweep.UTC().Format(time.RFC3339),
			CachedTopics: s.cache.Keys(),
		},
	}
}
