// Package backend constructs the storage and eventing stack selected by
// configuration, so binaries share one wiring path.
package backend

import (
	"fmt"
	"log/slog"

	"medexpense/internal/amqp"
	"medexpense/internal/config"
	"medexpense/internal/storage"
)

// Result bundles the configured backends. Events is nil when no AMQP URL is
// configured.
type Result struct {
	Store  storage.Store
	Events *amqp.Client
}

// Build creates the store named by cfg.DataBackend and, when configured, the
// AMQP client. Opening the sqlite backend applies pending migrations.
func Build(cfg *config.Config) (*Result, error) {
	store, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}

	var events *amqp.Client
	if cfg.AMQPURL != "" {
		events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("initialize amqp client: %w", err)
		}
		slog.Info("AMQP eventing enabled", "exchange", cfg.AMQPExchange)
	} else {
		slog.Info("AMQP eventing disabled - no AMQP_URL provided")
	}

	return &Result{Store: store, Events: events}, nil
}

func buildStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.DataBackend {
	case "sqlite":
		store, err := storage.NewSQLiteStore(cfg.SQLiteDBPath, cfg.StorageSpillToDisk)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		slog.Info("Initialized sqlite backend", "path", cfg.SQLiteDBPath)
		return store, nil
	case "memory":
		slog.Info("Initialized memory backend")
		return storage.NewMemStore(), nil
	}
	return nil, fmt.Errorf("unsupported data backend %q", cfg.DataBackend)
}
