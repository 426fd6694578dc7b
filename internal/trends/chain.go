package trends

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"trendpulse/internal/metrics"
	"trendpulse/internal/models"
	"trendpulse/internal/ratelimit"
)

// Chain tries fetchers in priority order until one returns usable keywords.
// It never fails: when every fetcher comes back empty or erroring it
// synthesizes placeholder records.
type Chain struct {
	fetchers []Fetcher
	limiter  *ratelimit.Limiter
	pause    time.Duration
	timeout  time.Duration
	geo      string
	log      *slog.Logger

	sleep func(ctx context.Context, d time.Duration)
}

// NewChain builds a fetch chain. The limiter's bookkeeping is updated once
// per fetch attempt, successful or not.
func NewChain(fetchers []Fetcher, limiter *ratelimit.Limiter, pause, timeout time.Duration, geo string, log *slog.Logger) *Chain {
	return &Chain{
		fetchers: fetchers,
		limiter:  limiter,
		pause:    pause,
		timeout:  timeout,
		geo:      geo,
		log:      log,
		sleep:    sleepCtx,
	}
}

// sleepCtx pauses the current request without stalling anything else, and
// gives up early when the caller is gone.
func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// Resolve returns keywords for topic and the tag of the source that
// produced them. In-flight fetches outlive a disconnecting caller so their
// result can still be cached; only the per-attempt timeout bounds them.
func (c *Chain) Resolve(ctx context.Context, topic string) ([]models.RawTrend, string) {
	for i, f := range c.fetchers {
		if i > 0 {
			// Deliberate pause so consecutive fetchers don't hammer the
			// same rate-limited upstream back to back.
			c.sleep(ctx, c.pause)
		}

		c.limiter.MarkRequest()

		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		raw, err := f.Fetch(fctx, topic, c.geo)
		cancel()

		if err != nil {
			c.log.Warn("fetcher failed", "fetcher", f.Name(), "topic", topic, "error", err)
			metrics.RecordFetch(f.Name(), "error")
			continue
		}
		if len(raw) == 0 {
			c.log.Info("fetcher returned no keywords", "fetcher", f.Name(), "topic", topic)
			metrics.RecordFetch(f.Name(), "empty")
			continue
		}

		metrics.RecordFetch(f.Name(), "ok")
		return raw, f.Name()
	}

	c.log.Info("all fetchers exhausted, synthesizing fallback", "topic", topic)
	metrics.RecordFetch(models.SourceFallback, "ok")
	return FallbackTrends(topic), models.SourceFallback
}

// FallbackTrends synthesizes the three placeholder records served when
// every upstream source fails.
func FallbackTrends(topic string) []models.RawTrend {
	return []models.RawTrend{
		{Keyword: fmt.Sprintf("%s inspiration", topic), Score: 30},
		{Keyword: fmt.Sprintf("%s ideas", topic), Score: 25},
		{Keyword: fmt.Sprintf("%s aesthetic", topic), Score: 22},
	}
}
