// Package storage provides the persistence contract for employees and
// expenses, with SQLite and in-memory implementations.
package storage

import (
	"context"
	"errors"

	"medexpense/internal/core"
)

// ErrTxUnsupported is returned by RunInTx when the store cannot provide
// multi-record transactions. Callers must fall back to sequential operations
// and reconcile partial completion themselves.
var ErrTxUnsupported = errors.New("store does not support transactions")

// Store is the shared contract all components use to reach the data store.
// Implementations must not cache results across calls: every call reflects
// the latest committed state.
//
// Listing and lookup methods never populate the Avatar and BillImage blobs;
// those are served by the dedicated image lookups.
type Store interface {
	CreateEmployee(ctx context.Context, e *core.Employee) error
	GetEmployee(ctx context.Context, id int64) (core.Employee, error)
	ListEmployees(ctx context.Context) ([]core.Employee, error)
	DeleteEmployee(ctx context.Context, id int64) error

	CreateExpense(ctx context.Context, e *core.Expense) error
	GetExpense(ctx context.Context, id int64) (core.Expense, error)

	// ListExpenses returns expenses whose CreatedAt calendar fields equal the
	// period's, narrowed by filter, ordered by CreatedAt descending with ties
	// broken by insertion order. limit <= 0 means all matches.
	ListExpenses(ctx context.Context, period core.Period, filter core.StatusFilter, limit int) ([]core.Expense, error)
	ListExpensesByEmployee(ctx context.Context, employeeID int64) ([]core.Expense, error)

	// UpdateExpenseStatus overwrites only the status column and returns the
	// updated record. Re-applying the same status succeeds as a no-op.
	UpdateExpenseStatus(ctx context.Context, id int64, status core.Status) (core.Expense, error)

	// GetBillImage returns the stored receipt bytes for the expense matching
	// both ids. A mismatch on either id is core.ErrNotFound.
	GetBillImage(ctx context.Context, expenseID, employeeID int64) ([]byte, error)

	// GetAvatar returns the stored avatar bytes. A missing employee or an
	// empty avatar blob is core.ErrNotFound.
	GetAvatar(ctx context.Context, employeeID int64) ([]byte, error)

	// DeleteExpensesByEmployee removes every expense referencing employeeID
	// and reports how many were removed. Deleting zero rows is not an error;
	// the operation is idempotent.
	DeleteExpensesByEmployee(ctx context.Context, employeeID int64) (int64, error)

	// ListOrphanEmployeeIDs returns employee ids that are referenced by at
	// least one expense but no longer exist. Used by reconciliation tooling.
	ListOrphanEmployeeIDs(ctx context.Context) ([]int64, error)

	// RunInTx executes fn against a transactional view of the store and
	// commits if fn returns nil. Returns ErrTxUnsupported when the backend
	// has no multi-record transactions.
	RunInTx(ctx context.Context, fn func(Store) error) error

	Close() error
}
