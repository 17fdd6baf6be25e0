// Command api is the Progol Data API server. It runs the refresh scheduler,
// the notification dispatch worker, and the HTTP API in one process.
//
// Usage:
//
//	progol-api
//	API_PORT=8080 progol-api

// @title Progol Data API
// @version 1.0.0
// @description Football results tracker for Progol quinielas: periodic SofaScore ingestion, result change detection, quiniela evaluation, and notifications.
// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
// @contact.name Progol Data
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/quinielago/progol-data/internal/api"
	"github.com/quinielago/progol-data/internal/config"
	"github.com/quinielago/progol-data/internal/db"
	"github.com/quinielago/progol-data/internal/match"
	"github.com/quinielago/progol-data/internal/metrics"
	"github.com/quinielago/progol-data/internal/notify"
	"github.com/quinielago/progol-data/internal/provider/sofascore"
	"github.com/quinielago/progol-data/internal/quiniela"
	"github.com/quinielago/progol-data/internal/refresh"
	"github.com/quinielago/progol-data/internal/scheduler"

	_ "github.com/quinielago/progol-data/docs" // swagger docs
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	recorder := metrics.NewRecorder()

	// Refresh pipeline: fetcher -> engine -> evaluator -> deliverer
	client := sofascore.NewClient("", cfg.FetchTimeout, cfg.FetchPerMinute, logger)
	fetcher := sofascore.NewFetcher(client)
	matchStore := match.NewStore(pool.Pool)
	quinielaStore := quiniela.NewStore(pool.Pool, cfg.MaxQuinielas)
	engine := refresh.New(fetcher, matchStore, cfg.Leagues, cfg.CurrentSeason, logger)
	evaluator := quiniela.NewEvaluator(quinielaStore, quiniela.Mode(cfg.EvaluationMode), logger)

	publisher, err := notify.NewStreamPublisher(cfg.RedisURL, logger)
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	if publisher != nil {
		defer publisher.Close()
	}
	deliverer := notify.NewDeliverer(pool.Pool, publisher, logger)

	sched := scheduler.New(engine, evaluator, deliverer, cfg.UpdateInterval, recorder, logger)
	go sched.Run(ctx)

	// Notification dispatch worker (if Telegram is configured)
	sender := notify.NewTelegramSender(cfg.TelegramBotToken, cfg.TelegramChatID, logger)
	if sender != nil {
		go notify.StartWorker(ctx, pool.Pool, sender, recorder, logger)
	} else {
		logger.Info("Notification dispatch worker disabled (no TELEGRAM_BOT_TOKEN)")
	}

	// Create router
	router := api.NewRouter(pool, cfg, sched, recorder)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Progol Data API",
			"addr", addr,
			"environment", cfg.Environment,
			"update_interval", cfg.UpdateInterval,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
