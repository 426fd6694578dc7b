package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"trendpulse/internal/config"
	"trendpulse/internal/db"
	"trendpulse/internal/metrics"
	"trendpulse/internal/server"
	"trendpulse/internal/trends"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	// Initialize database
	database, err := db.New(ctx, cfg.DatabaseURL, db.Schema{
		ExtendedFields: cfg.ExtendedFields,
		DayBucket:      cfg.DayBucket,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations completed successfully")

	// Upstream fetchers in priority order
	fetchers := []trends.Fetcher{
		trends.NewTopSearchesFetcher(cfg.TrendsBaseURL, cfg.FetchTimeout, cfg.ScoreMin),
		trends.NewRisingSearchesFetcher(cfg.TrendsBaseURL, cfg.FetchTimeout, cfg.ScoreMin),
	}

	svc := trends.NewService(cfg, database, fetchers, slog.Default())
	metrics.Init(svc.Cache(), cfg.CacheTTL)

	srv := server.New(cfg)
	srv.RegisterRoutes(svc, database)

	// Graceful shutdown
	go func() {
		if err := srv.Start(); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := srv.Shutdown(); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}
