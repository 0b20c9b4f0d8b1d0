package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Moustapha1997/paytech-webhook-server/internal/api/router"
	appconfig "github.com/Moustapha1997/paytech-webhook-server/internal/config"
	"github.com/Moustapha1997/paytech-webhook-server/internal/observability/metrics"
	"github.com/Moustapha1997/paytech-webhook-server/internal/paytech"
	"github.com/Moustapha1997/paytech-webhook-server/internal/reservations"
	"github.com/Moustapha1997/paytech-webhook-server/internal/webhook"
	"github.com/Moustapha1997/paytech-webhook-server/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting paytech-webhook-server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Error("database unreachable", "error", err)
		os.Exit(1)
	}

	// Initialize repositories and services
	repo := reservations.NewRepository(pool)
	confirmer := reservations.NewConfirmer(repo, logger)
	auth := paytech.NewAuthenticator(cfg.PayTechAPIKey, cfg.PayTechAPISecret)
	webhookMetrics := metrics.NewWebhookMetrics(nil)

	// Initialize handlers
	webhookHandler := webhook.NewHandler(auth, confirmer, webhookMetrics, logger)

	// Setup router
	r := router.New(&router.Config{
		Logger:             logger,
		WebhookHandler:     webhookHandler,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
