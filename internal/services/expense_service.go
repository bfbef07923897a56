package services

import (
	"context"
	"fmt"
	"log/slog"

	"medexpense/internal/amqp"
	"medexpense/internal/core"
	"medexpense/internal/metrics"
	"medexpense/internal/storage"
)

// DefaultDashboardLimit caps the dashboard view when no period is selected.
const DefaultDashboardLimit = 10

// ExpenseService implements period queries and the approval workflow.
type ExpenseService struct {
	store   storage.Store
	events  *amqp.Client // nil when AMQP is not configured
	metrics *metrics.Collector
}

func NewExpenseService(store storage.Store, events *amqp.Client, collector *metrics.Collector) *ExpenseService {
	return &ExpenseService{
		store:   store,
		events:  events,
		metrics: collector,
	}
}

// Query returns the expenses whose creation calendar fields match period,
// narrowed by filter, newest first. limit <= 0 returns all matches.
func (s *ExpenseService) Query(ctx context.Context, period core.Period, filter core.StatusFilter, limit int) ([]core.Expense, error) {
	if filter == "" {
		filter = core.FilterAll
	}
	if !filter.Valid() {
		return nil, fmt.Errorf("%w: filter %q", core.ErrInvalidStatus, filter)
	}
	return s.store.ListExpenses(ctx, period, filter, limit)
}

// Recent returns the default dashboard view: the newest expenses of the
// current month, capped at DefaultDashboardLimit.
func (s *ExpenseService) Recent(ctx context.Context) ([]core.Expense, error) {
	return s.store.ListExpenses(ctx, core.CurrentPeriod(), core.FilterAll, DefaultDashboardLimit)
}

// Decide applies an approval decision to an expense and returns the updated
// record. Only approved and rejected are accepted; there is no path back to
// pending. Re-applying the same decision succeeds as a no-op.
func (s *ExpenseService) Decide(ctx context.Context, expenseID int64, status core.Status) (core.Expense, error) {
	if status != core.StatusApproved && status != core.StatusRejected {
		return core.Expense{}, fmt.Errorf("%w: %q is not a decision", core.ErrInvalidStatus, status)
	}

	updated, err := s.store.UpdateExpenseStatus(ctx, expenseID, status)
	if err != nil {
		return core.Expense{}, fmt.Errorf("set expense status: %w", err)
	}

	s.metrics.RecordStatusTransition(string(status))

	slog.InfoContext(ctx, "Expense status updated",
		"expense_id", expenseID,
		"status", string(status))

	// The event is a courtesy to the notification layer; the decision is
	// already committed, so publish failures must not fail the request.
	if s.events != nil {
		if err := s.events.PublishStatusChanged(ctx, expenseID, string(status)); err != nil {
			slog.ErrorContext(ctx, "Failed to publish status changed event",
				"expense_id", expenseID, "error", err)
		}
	}

	return updated, nil
}

// Close releases the storage and event connections.
func (s *ExpenseService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.events != nil {
		if err := s.events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %v", errs)
	}
	return nil
}
