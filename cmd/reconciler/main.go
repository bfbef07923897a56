package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"medexpense/internal/backend"
	"medexpense/internal/config"
	applog "medexpense/internal/log"
	"medexpense/internal/metrics"
	"medexpense/internal/worker"
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
	if cfg.DataBackend != "sqlite" {
		logger.Error("Reconciler requires the sqlite backend", "backend", cfg.DataBackend)
		os.Exit(1)
	}

	logger.Info("Starting reconciler", "interval", cfg.ReconcileInterval.String())

	backends, err := backend.Build(cfg)
	if err != nil {
		logger.Error("Failed to initialize backends", "error", err)
		os.Exit(1)
	}
	defer backends.Store.Close()
	if backends.Events != nil {
		defer backends.Events.Close()
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := worker.NewReconcileWorker(backends.Store, backends.Events, collector, cfg.ReconcileInterval)
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Reconciler error", "error", err)
		os.Exit(1)
	}

	logger.Info("Reconciler stopped gracefully")
}
