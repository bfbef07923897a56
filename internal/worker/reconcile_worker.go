// Package worker runs the background reconciler that cleans up expenses left
// behind by interrupted employee removals.
package worker

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"medexpense/internal/amqp"
	"medexpense/internal/metrics"
	"medexpense/internal/storage"
)

// ReconcileWorker periodically scans for expenses whose employee no longer
// exists and deletes them. It also reacts to employee_removed events flagged
// partial, reclaiming the orphans without waiting for the next scan.
type ReconcileWorker struct {
	store    storage.Store
	events   *amqp.Client // nil runs scan-only
	metrics  *metrics.Collector
	interval time.Duration
}

func NewReconcileWorker(store storage.Store, events *amqp.Client, collector *metrics.Collector, interval time.Duration) *ReconcileWorker {
	return &ReconcileWorker{
		store:    store,
		events:   events,
		metrics:  collector,
		interval: interval,
	}
}

// Run blocks until ctx is cancelled, driving the scan loop and, when an event
// client is configured, the partial-cascade consumer.
func (w *ReconcileWorker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return w.scanLoop(ctx)
	})

	if w.events != nil {
		g.Go(func() error {
			return w.events.ConsumeEmployeeRemoved(ctx, func(msg *amqp.EmployeeRemovedMessage) error {
				if !msg.Partial {
					return nil
				}
				_, err := w.reclaim(ctx, msg.EmployeeID)
				return err
			})
		})
	}

	return g.Wait()
}

func (w *ReconcileWorker) scanLoop(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// One pass up front so a restart does not wait a full interval to fix
	// orphans left by a crash.
	if err := w.Scan(ctx); err != nil {
		slog.ErrorContext(ctx, "Orphan scan failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Scan(ctx); err != nil {
				slog.ErrorContext(ctx, "Orphan scan failed", "error", err)
			}
		}
	}
}

// Scan runs a single reconciliation pass over the whole store.
func (w *ReconcileWorker) Scan(ctx context.Context) error {
	ids, err := w.store.ListOrphanEmployeeIDs(ctx)
	if err != nil {
		return err
	}

	for _, id := range ids {
		if _, err := w.reclaim(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (w *ReconcileWorker) reclaim(ctx context.Context, employeeID int64) (int64, error) {
	deleted, err := w.store.DeleteExpensesByEmployee(ctx, employeeID)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		w.metrics.RecordOrphansReclaimed(deleted)
		slog.InfoContext(ctx, "Reclaimed orphan expenses",
			"employee_id", employeeID, "count", deleted)
	}
	return deleted, nil
}
