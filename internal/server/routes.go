package server

import (
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trendpulse/internal/db"
	"trendpulse/internal/handlers"
	"trendpulse/internal/trends"
)

// RegisterRoutes registers all application routes.
func (s *Server) RegisterRoutes(svc *trends.Service, database *db.DB) {
	trendHandler := handlers.NewTrendHandler(svc, s.Cfg)
	healthHandler := handlers.NewHealthHandler(database)

	s.App.Get("/", trendHandler.Trends)
	s.App.Get("/cache-status", trendHandler.CacheStatus)
	s.App.Get("/dashboard", trendHandler.Dashboard)
	s.App.Post("/maintenance/db-cleanup", trendHandler.DBCleanup)

	s.App.Get("/healthz", healthHandler.Healthz)
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}
