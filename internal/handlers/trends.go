package handlers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"trendpulse/internal/config"
	"trendpulse/internal/topics"
	"trendpulse/internal/trends"
)

// TrendHandler serves trend requests and maintenance endpoints.
type TrendHandler struct {
	svc *trends.Service
	cfg *config.Config
}

// NewTrendHandler creates a new trend handler.
func NewTrendHandler(svc *trends.Service, cfg *config.Config) *TrendHandler {
	return &TrendHandler{svc: svc, cfg: cfg}
}

// Trends serves GET /: trending keywords for a random topic, or a topic
// from the cluster named in the optional ?cluster= parameter.
func (h *TrendHandler) Trends(c fiber.Ctx) error {
	resp, err := h.svc.Trends(c.Context(), c.Query("cluster"))
	if err != nil {
		var rle *trends.RateLimitError
		if errors.As(err, &rle) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Rate limited",
				"message":     rle.Message,
				"retry_after": rle.RetryAfter.Seconds(),
			})
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to resolve trends")
	}

	return c.JSON(resp)
}

// CacheStatus serves GET /cache-status: cache occupancy, limiter counters
// and uptime.
func (h *TrendHandler) CacheStatus(c fiber.Ctx) error {
	return c.JSON(h.svc.Status())
}

// DBCleanup serves POST /maintenance/db-cleanup: forces a durable sweep
// with retention from the ?days= parameter, defaulting to the configured
// retention window.
func (h *TrendHandler) DBCleanup(c fiber.Ctx) error {
	retentionDays := h.cfg.DBRetentionDays
	if daysParam := c.Query("days"); daysParam != "" {
		n, err := strconv.Atoi(daysParam)
		if err != nil {
			return jsonError(c, fiber.StatusBadRequest, "Invalid days parameter")
		}
		retentionDays = n
	}

	deleted := h.svc.CleanupDatabase(c.Context(), retentionDays)
	return c.JSON(fiber.Map{
		"message":        "Database cleanup executed",
		"retention_days": retentionDays,
		"deleted_rows":   deleted,
		"last_cleanup":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Dashboard serves GET /dashboard: an HTML view over the status report.
func (h *TrendHandler) Dashboard(c fiber.Ctx) error {
	report := h.svc.Status()
	return c.Render("dashboard", fiber.Map{
		"Cache":        report.CacheStats,
		"RateLimiting": report.RateLimiting,
		"System":       report.SystemInfo,
		"Clusters":     strings.Join(topics.Names(), ", "),
	})
}
