package trends

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"trendpulse/internal/config"
	"trendpulse/internal/models"
)

// fakeRepo implements Repository with canned data and call counters.
type fakeRepo struct {
	rows      []models.KeywordRecord
	recentErr error
	insertErr error
	upsertErr error
	deleteErr error

	recentCalls int
	insertCalls int
	upsertCalls int
	deleteCalls int

	inserted []models.KeywordRecord
	upserted []models.KeywordRecord
}

func (r *fakeRepo) RecentKeywords(ctx context.Context, topic string, since time.Time, limit int) ([]models.KeywordRecord, error) {
	r.recentCalls++
	return r.rows, r.recentErr
}

func (r *fakeRepo) InsertKeywords(ctx context.Context, records []models.KeywordRecord) (int, error) {
	r.insertCalls++
	if r.insertErr != nil {
		return 0, r.insertErr
	}
	r.inserted = append(r.inserted, records...)
	return len(records), nil
}

func (r *fakeRepo) UpsertKeywords(ctx context.Context, records []models.KeywordRecord) (int, error) {
	r.upsertCalls++
	if r.upsertErr != nil {
		return 0, r.upsertErr
	}
	r.upserted = append(r.upserted, records...)
	return len(records), nil
}

func (r *fakeRepo) DeleteKeywordsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.deleteCalls++
	if r.deleteErr != nil {
		return 0, r.deleteErr
	}
	return 7, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Geo:                  "ID",
		CacheTTL:             time.Hour,
		CacheCleanupInterval: 24 * time.Hour,
		DBCacheMaxAge:        2 * time.Hour,
		DBCacheLimit:         10,
		MinRequestInterval:   0,
		MaxRequestsPerHour:   100,
		DBCleanupInterval:    24 * time.Hour,
		DBRetentionDays:      30,
		FetchTimeout:         time.Second,
		DayBucket:            true,
		ExtendedFields:       true,
	}
}

func newTestService(cfg *config.Config, repo Repository, fetchers ...Fetcher) *Service {
	s := NewService(cfg, repo, fetchers, slog.Default())
	s.chain.sleep = func(context.Context, time.Duration) {}
	s.pickTopic = func(string) (string, string) { return "poster design", "poster_design" }
	return s
}

func TestFreshServed(t *testing.T) {
	repo := &fakeRepo{}
	primary := &stubFetcher{name: "google_trends", raw: []models.RawTrend{{Keyword: "poster trend", Score: 45}}}
	s := newTestService(testConfig(), repo, primary)

	resp, err := s.Trends(context.Background(), "")
	if err != nil {
		t.Fatalf("Trends() error = %v", err)
	}

	if resp.Source != "google_trends" || resp.CacheHit != models.CacheHitFresh {
		t.Errorf("source/cache_hit = %q/%q, want google_trends/fresh", resp.Source, resp.CacheHit)
	}
	if len(resp.TrendKeywords) != 1 {
		t.Fatalf("got %d records, want 1", len(resp.TrendKeywords))
	}
	rec := resp.TrendKeywords[0]
	if rec.Keyword != "poster trend" || rec.Score != 45 {
		t.Errorf("record = %+v", rec)
	}
	if rec.Intent != models.IntentCreative {
		t.Errorf("intent = %q, want creative (poster token)", rec.Intent)
	}
	if rec.KeywordHash == "" || rec.DayBucket == "" {
		t.Errorf("record missing enrichment: %+v", rec)
	}
	if repo.insertCalls != 1 {
		t.Errorf("insert calls = %d, want persistence attempted once", repo.insertCalls)
	}
}

func TestMemoryServedSecondRequest(t *testing.T) {
	repo := &fakeRepo{}
	primary := &stubFetcher{name: "google_trends", raw: []models.RawTrend{{Keyword: "poster trend", Score: 45}}}
	s := newTestService(testConfig(), repo, primary)

	if _, err := s.Trends(context.Background(), ""); err != nil {
		t.Fatalf("first Trends() error = %v", err)
	}

	resp, err := s.Trends(context.Background(), "")
	if err != nil {
		t.Fatalf("second Trends() error = %v", err)
	}
	if resp.CacheHit != models.CacheHitMemory {
		t.Errorf("cache_hit = %q, want memory", resp.CacheHit)
	}
	if resp.Source != "google_trends" {
		t.Errorf("source = %q, want original fetcher tag preserved", resp.Source)
	}
	if primary.calls != 1 {
		t.Errorf("fetcher called %d times, want 1", primary.calls)
	}
	if repo.recentCalls != 1 {
		t.Errorf("repository consulted %d times, want 1", repo.recentCalls)
	}
}

func TestDatabaseServedPopulatesMemory(t *testing.T) {
	repo := &fakeRepo{rows: []models.KeywordRecord{
		{Keyword: "stored kw", Score: 40, Topic: "poster design", Source: "google_trends"},
	}}
	primary := &stubFetcher{name: "google_trends"}
	s := newTestService(testConfig(), repo, primary)

	resp, err := s.Trends(context.Background(), "")
	if err != nil {
		t.Fatalf("Trends() error = %v", err)
	}
	if resp.CacheHit != models.CacheHitDatabase || resp.Source != models.SourceDatabaseCache {
		t.Errorf("cache_hit/source = %q/%q, want database/database_cache", resp.CacheHit, resp.Source)
	}
	if primary.calls != 0 {
		t.Error("fetcher called despite database hit")
	}

	// Memory tier was populated by the database hit.
	resp2, err := s.Trends(context.Background(), "")
	if err != nil {
		t.Fatalf("second Trends() error = %v", err)
	}
	if resp2.CacheHit != models.CacheHitMemory {
		t.Errorf("second cache_hit = %q, want memory", resp2.CacheHit)
	}
	if repo.recentCalls != 1 {
		t.Errorf("repository consulted %d times, want 1", repo.recentCalls)
	}
}

func TestDatabaseErrorDegradesToFetch(t *testing.T) {
	repo := &fakeRepo{recentErr: errors.New("connection refused")}
	primary := &stubFetcher{name: "google_trends", raw: []models.RawTrend{{Keyword: "kw", Score: 30}}}
	s := newTestService(testConfig(), repo, primary)

	resp, err := s.Trends(context.Background(), "")
	if err != nil {
		t.Fatalf("Trends() error = %v, repository errors must not surface", err)
	}
	if resp.CacheHit != models.CacheHitFresh {
		t.Errorf("cache_hit = %q, want fresh after db error", resp.CacheHit)
	}
}

func TestRateLimitedTouchesNothing(t *testing.T) {
	cfg := testConfig()
	cfg.MinRequestInterval = 10 * time.Second
	repo := &fakeRepo{}
	primary := &stubFetcher{name: "google_trends"}
	s := newTestService(cfg, repo, primary)

	s.limiter.MarkRequest()

	_, err := s.Trends(context.Background(), "")
	var rle *RateLimitError
	if !errors.As(err, &rle) {
		t.Fatalf("Trends() error = %v, want *RateLimitError", err)
	}
	if rle.RetryAfter <= 0 {
		t.Errorf("RetryAfter = %v, want positive", rle.RetryAfter)
	}
	if primary.calls != 0 || repo.recentCalls != 0 || repo.insertCalls != 0 {
		t.Error("rate-limited request touched fetchers or repository")
	}
	if keys := s.cache.Keys(); len(keys) != 0 {
		t.Errorf("rate-limited request populated cache: %v", keys)
	}
}

func TestFallbackRecordsArePersisted(t *testing.T) {
	repo := &fakeRepo{}
	primary := &stubFetcher{name: "google_trends", err: errors.New("down")}
	secondary := &stubFetcher{name: "google_trends_rising"}
	s := newTestService(testConfig(), repo, primary, secondary)

	resp, err := s.Trends(context.Background(), "")
	if err != nil {
		t.Fatalf("Trends() error = %v", err)
	}
	if resp.Source != models.SourceFallback {
		t.Fatalf("source = %q, want fallback", resp.Source)
	}
	scores := []int{30, 25, 22}
	if len(resp.TrendKeywords) != 3 {
		t.Fatalf("got %d records, want 3", len(resp.TrendKeywords))
	}
	for i, rec := range resp.TrendKeywords {
		if rec.Score != scores[i] {
			t.Errorf("record[%d] score = %d, want %d", i, rec.Score, scores[i])
		}
		if rec.Source != models.SourceFallback {
			t.Errorf("record[%d] source = %q", i, rec.Source)
		}
	}
	if repo.insertCalls != 1 {
		t.Errorf("insert calls = %d, fallback records must be persisted", repo.insertCalls)
	}
}

func TestPersistRetriesAsUpsert(t *testing.T) {
	repo := &fakeRepo{insertErr: errors.New("duplicate key value violates unique constraint")}
	primary := &stubFetcher{name: "google_trends", raw: []models.RawTrend{{Keyword: "kw", Score: 30}}}
	s := newTestService(testConfig(), repo, primary)

	resp, err := s.Trends(context.Background(), "")
	if err != nil {
		t.Fatalf("Trends() error = %v", err)
	}
	if resp.CacheHit != models.CacheHitFresh {
		t.Errorf("cache_hit = %q", resp.CacheHit)
	}
	if repo.insertCalls != 1 || repo.upsertCalls != 1 {
		t.Errorf("insert/upsert calls = %d/%d, want 1/1", repo.insertCalls, repo.upsertCalls)
	}
	if len(repo.upserted) != 1 {
		t.Errorf("upserted %d records, want 1", len(repo.upserted))
	}
}

func TestPersistBothPathsFailIsAbsorbed(t *testing.T) {
	repo := &fakeRepo{
		insertErr: errors.New("insert failed"),
		upsertErr: errors.New("upsert failed"),
	}
	primary := &stubFetcher{name: "google_trends", raw: []models.RawTrend{{Keyword: "kw", Score: 30}}}
	s := newTestService(testConfig(), repo, primary)

	resp, err := s.Trends(context.Background(), "")
	if err != nil {
		t.Fatalf("Trends() error = %v, persistence failures must not surface", err)
	}
	if len(resp.TrendKeywords) != 1 {
		t.Errorf("response affected by persistence failure: %+v", resp)
	}
}

func TestJanitorSweepsWhenDue(t *testing.T) {
	cfg := testConfig()
	cfg.CacheCleanupInterval = time.Hour
	cfg.DBCleanupInterval = 2 * time.Hour
	repo := &fakeRepo{}
	primary := &stubFetcher{name: "google_trends", raw: []models.RawTrend{{Keyword: "kw", Score: 30}}}
	s := newTestService(cfg, repo, primary)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	s.startTime = now
	s.lastMemSweep = now
	s.lastDBSweep = now

	// Within both intervals: nothing due.
	s.runDueSweeps(context.Background())
	if repo.deleteCalls != 0 {
		t.Error("durable sweep ran before its interval elapsed")
	}

	// Past the memory interval only.
	now = now.Add(90 * time.Minute)
	s.runDueSweeps(context.Background())
	if repo.deleteCalls != 0 {
		t.Error("durable sweep ran with only memory sweep due")
	}

	// Past the database interval.
	now = now.Add(time.Hour)
	s.runDueSweeps(context.Background())
	if repo.deleteCalls != 1 {
		t.Errorf("delete calls = %d, want 1", repo.deleteCalls)
	}
}

func TestCleanupDatabaseDisabledByRetention(t *testing.T) {
	repo := &fakeRepo{}
	s := newTestService(testConfig(), repo, &stubFetcher{name: "google_trends"})

	if got := s.CleanupDatabase(context.Background(), 0); got != 0 {
		t.Errorf("CleanupDatabase(0) = %d, want 0", got)
	}
	if repo.deleteCalls != 0 {
		t.Error("delete issued despite retention <= 0")
	}
}

func TestCleanupDatabaseAbsorbsErrors(t *testing.T) {
	repo := &fakeRepo{deleteErr: errors.New("timeout")}
	s := newTestService(testConfig(), repo, &stubFetcher{name: "google_trends"})

	before := s.lastDBSweep
	time.Sleep(time.Millisecond)
	if got := s.CleanupDatabase(context.Background(), 30); got != 0 {
		t.Errorf("CleanupDatabase() = %d on failure, want 0", got)
	}
	if !s.lastDBSweep.After(before) {
		t.Error("sweep timestamp did not advance on failure")
	}
}

func TestStatusReport(t *testing.T) {
	repo := &fakeRepo{}
	primary := &stubFetcher{name: "google_trends", raw: []models.RawTrend{{Keyword: "kw", Score: 30}}}
	s := newTestService(testConfig(), repo, primary)

	if _, err := s.Trends(context.Background(), ""); err != nil {
		t.Fatalf("Trends() error = %v", err)
	}

	report := s.Status()
	if report.CacheStats.TotalEntries != 1 || report.CacheStats.FreshEntries != 1 {
		t.Errorf("cache stats = %+v, want one fresh entry", report.CacheStats)
	}
	if report.RateLimiting.RequestsThisHour != 1 {
		t.Errorf("requests this hour = %d, want 1", report.RateLimiting.RequestsThisHour)
	}
	if report.RateLimiting.LastRequestTime == nil {
		t.Error("last request time missing after a fetch")
	}
	if len(report.SystemInfo.CachedTopics) != 1 || report.SystemInfo.CachedTopics[0] != "poster design" {
		t.Errorf("cached topics = %v", report.SystemInfo.CachedTopics)
	}
}
