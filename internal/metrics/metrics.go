// Package metrics exports Prometheus instrumentation for the trend service.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"trendpulse/internal/cache"
)

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trendpulse_requests_total",
		Help: "Trend requests by serving outcome (memory, database, fresh, rate_limited)",
	}, []string{"outcome"})

	fetchAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trendpulse_fetch_attempts_total",
		Help: "Upstream fetch attempts by fetcher and outcome",
	}, []string{"fetcher", "outcome"})

	persistedRows = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trendpulse_persisted_rows_total",
		Help: "Keyword rows written to the durable store by write path",
	}, []string{"path"})

	sweepRemoved = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trendpulse_sweep_removed_total",
		Help: "Entries removed by janitor sweeps per cache tier",
	}, []string{"tier"})
)

var cacheEntriesDesc = prometheus.NewDesc(
	"trendpulse_cache_entries",
	"Memory cache occupancy by freshness",
	[]string{"state"},
	nil,
)

// CacheCollector reads memory-cache occupancy on each scrape.
type CacheCollector struct {
	cache *cache.TopicCache
	ttl   time.Duration
}

// Describe sends the metric descriptor to the channel.
func (c *CacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- cacheEntriesDesc
}

// Collect emits fresh and expired entry counts.
func (c *CacheCollector) Collect(ch chan<- prometheus.Metric) {
	total, fresh := c.cache.Stats(c.ttl)
	ch <- prometheus.MustNewConstMetric(cacheEntriesDesc, prometheus.GaugeValue, float64(fresh), "fresh")
	ch <- prometheus.MustNewConstMetric(cacheEntriesDesc, prometheus.GaugeValue, float64(total-fresh), "expired")
}

var initOnce sync.Once

// Init registers all collectors. Must be called once at startup; the
// Record helpers are safe to call before (or without) registration.
func Init(c *cache.TopicCache, ttl time.Duration) {
	initOnce.Do(func() {
		prometheus.MustRegister(requestsTotal, fetchAttempts, persistedRows, sweepRemoved)
		prometheus.MustRegister(&CacheCollector{cache: c, ttl: ttl})
	})
}

// RecordRequest counts a request by its serving outcome.
func RecordRequest(outcome string) {
	requestsTotal.WithLabelValues(outcome).Inc()
}

// RecordFetch counts an upstream fetch attempt.
func RecordFetch(fetcher, outcome string) {
	fetchAttempts.WithLabelValues(fetcher, outcome).Inc()
}

// RecordPersist counts rows written through a given path (insert, upsert).
func RecordPersist(path string, rows int) {
	persistedRows.WithLabelValues(path).Add(float64(rows))
}

// RecordSweep counts entries removed by a janitor sweep.
func RecordSweep(tier string, removed int) {
	sweepRemoved.WithLabelValues(tier).Add(float64(removed))
}
