package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"medexpense/internal/backend"
	"medexpense/internal/cache"
	"medexpense/internal/config"
	apphttp "medexpense/internal/http"
	applog "medexpense/internal/log"
	"medexpense/internal/metrics"
	"medexpense/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	logger := applog.Setup(cfg.LogFormat, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Starting medexpense server",
		"port", cfg.Port, "backend", cfg.DataBackend)

	backends, err := backend.Build(cfg)
	if err != nil {
		logger.Error("Failed to initialize backends", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	thumbs := cache.NewLRUCache[[]byte](cfg.ThumbnailCacheSize, cfg.ThumbnailCacheTTL)
	cacheManager := cache.NewManager()
	cacheManager.Register(thumbs)
	cacheManager.StartCleanup(cfg.ThumbnailCacheTTL)
	defer cacheManager.Stop()

	expenseSvc := services.NewExpenseService(backends.Store, backends.Events, collector)
	employeeSvc := services.NewEmployeeService(backends.Store, backends.Events, collector)
	imageSvc := services.NewImageService(backends.Store, thumbs, collector)

	srv := apphttp.NewServer(cfg.PortNumber(), expenseSvc, employeeSvc, imageSvc, collector, registry)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}

	if err := expenseSvc.Close(); err != nil {
		logger.Error("Close error", "error", err)
	}
	logger.Info("Server stopped gracefully")
}
