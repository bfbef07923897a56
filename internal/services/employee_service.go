package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"medexpense/internal/amqp"
	"medexpense/internal/core"
	"medexpense/internal/metrics"
	"medexpense/internal/storage"
)

// EmployeeService implements employee lifecycle management and the
// per-employee expense breakdown views.
type EmployeeService struct {
	store   storage.Store
	events  *amqp.Client // nil when AMQP is not configured
	metrics *metrics.Collector
}

func NewEmployeeService(store storage.Store, events *amqp.Client, collector *metrics.Collector) *EmployeeService {
	return &EmployeeService{
		store:   store,
		events:  events,
		metrics: collector,
	}
}

// CascadeResult reports a completed employee removal.
type CascadeResult struct {
	EmployeeID      int64
	ExpensesDeleted int64
}

// Breakdown groups one employee's expenses by approval state.
type Breakdown struct {
	Employee core.Employee
	Approved []core.Expense
	Rejected []core.Expense
	Pending  []core.Expense
}

// Remove deletes the employee and every expense referencing it as one unit of
// work. When the store supports transactions both deletions commit atomically;
// otherwise they run sequentially and a failure after the employee deletion
// surfaces core.ErrPartialCascade. A partial cascade is completable by calling
// CompleteCascade with the same id.
func (s *EmployeeService) Remove(ctx context.Context, employeeID int64) (CascadeResult, error) {
	if _, err := s.store.GetEmployee(ctx, employeeID); err != nil {
		return CascadeResult{}, err
	}

	var deleted int64
	err := s.store.RunInTx(ctx, func(tx storage.Store) error {
		if err := tx.DeleteEmployee(ctx, employeeID); err != nil {
			return err
		}
		n, err := tx.DeleteExpensesByEmployee(ctx, employeeID)
		if err != nil {
			return err
		}
		deleted = n
		return nil
	})

	if errors.Is(err, storage.ErrTxUnsupported) {
		deleted, err = s.removeSequential(ctx, employeeID)
	}
	if err != nil {
		return CascadeResult{}, err
	}

	s.metrics.RecordCascadeDelete(false)
	slog.InfoContext(ctx, "Employee removed",
		"employee_id", employeeID,
		"expenses_deleted", deleted)

	s.publishRemoved(ctx, employeeID, deleted, false)

	return CascadeResult{EmployeeID: employeeID, ExpensesDeleted: deleted}, nil
}

// removeSequential is the fallback for stores without multi-record
// transactions. The employee goes first: a crash or failure in between leaves
// orphan expenses (never a dangling employee), which the reconciler can
// idempotently clean up.
func (s *EmployeeService) removeSequential(ctx context.Context, employeeID int64) (int64, error) {
	if err := s.store.DeleteEmployee(ctx, employeeID); err != nil {
		return 0, err
	}

	deleted, err := s.store.DeleteExpensesByEmployee(ctx, employeeID)
	if err != nil {
		s.metrics.RecordCascadeDelete(true)
		slog.ErrorContext(ctx, "Cascade left orphan expenses",
			"employee_id", employeeID, "error", err)
		s.publishRemoved(ctx, employeeID, 0, true)
		return 0, fmt.Errorf("employee %d removed but expenses remain: %w: %w", employeeID, core.ErrPartialCascade, err)
	}
	return deleted, nil
}

// CompleteCascade retries the expense half of a partial cascade. It deletes
// whatever expenses still reference employeeID; deleting zero is success, so
// the call is safe to repeat.
func (s *EmployeeService) CompleteCascade(ctx context.Context, employeeID int64) (int64, error) {
	deleted, err := s.store.DeleteExpensesByEmployee(ctx, employeeID)
	if err != nil {
		return 0, fmt.Errorf("complete cascade for employee %d: %w", employeeID, err)
	}
	if deleted > 0 {
		s.metrics.RecordOrphansReclaimed(deleted)
		slog.InfoContext(ctx, "Reclaimed orphan expenses",
			"employee_id", employeeID, "count", deleted)
	}
	return deleted, nil
}

func (s *EmployeeService) publishRemoved(ctx context.Context, employeeID, deleted int64, partial bool) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishEmployeeRemoved(ctx, employeeID, deleted, partial); err != nil {
		slog.ErrorContext(ctx, "Failed to publish employee removed event",
			"employee_id", employeeID, "error", err)
	}
}

// ListWithBreakdown returns every employee with their period expenses grouped
// by approval state. Employees with no expenses in the period appear with
// empty groups.
func (s *EmployeeService) ListWithBreakdown(ctx context.Context, period core.Period) ([]Breakdown, error) {
	employees, err := s.store.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}

	expenses, err := s.store.ListExpenses(ctx, period, core.FilterAll, 0)
	if err != nil {
		return nil, err
	}

	byEmployee := make(map[int64][]core.Expense)
	for _, e := range expenses {
		byEmployee[e.EmployeeID] = append(byEmployee[e.EmployeeID], e)
	}

	breakdowns := make([]Breakdown, 0, len(employees))
	for _, emp := range employees {
		breakdowns = append(breakdowns, groupByStatus(emp, byEmployee[emp.ID]))
	}
	return breakdowns, nil
}

// BreakdownFor returns one employee's expenses across all periods, grouped by
// approval state.
func (s *EmployeeService) BreakdownFor(ctx context.Context, employeeID int64) (Breakdown, error) {
	emp, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return Breakdown{}, err
	}

	expenses, err := s.store.ListExpensesByEmployee(ctx, employeeID)
	if err != nil {
		return Breakdown{}, err
	}

	return groupByStatus(emp, expenses), nil
}

func groupByStatus(emp core.Employee, expenses []core.Expense) Breakdown {
	b := Breakdown{Employee: emp}
	for _, e := range expenses {
		switch e.Status {
		case core.StatusApproved:
			b.Approved = append(b.Approved, e)
		case core.StatusRejected:
			b.Rejected = append(b.Rejected, e)
		default:
			b.Pending = append(b.Pending, e)
		}
	}
	return b
}
