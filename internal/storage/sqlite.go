package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"medexpense/internal/core"

	_ "modernc.org/sqlite"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so the same query methods
// serve regular calls and RunInTx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStore implements Store on a SQLite database.
//
// CreatedAt is persisted as unix nanoseconds alongside created_year and
// created_month columns derived from the timestamp's own calendar fields at
// insert time. Period queries compare those columns by equality, which keeps
// matching insensitive to time of day and offset.
type SQLiteStore struct {
	db *sql.DB // nil when the store wraps a transaction
	q  dbtx
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the database at dbPath and runs
// migrations. spillToDisk controls whether large sorts and aggregations may
// use temporary disk storage instead of memory.
func NewSQLiteStore(dbPath string, spillToDisk bool) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	tempStore := "MEMORY"
	if spillToDisk {
		tempStore = "FILE"
	}
	if _, err := db.Exec("PRAGMA temp_store = " + tempStore); err != nil {
		db.Close()
		return nil, fmt.Errorf("set temp_store: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db, q: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) CreateEmployee(ctx context.Context, e *core.Employee) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	res, err := s.q.ExecContext(ctx,
		`INSERT INTO employees (name, email, phone, avatar, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.Name, e.Email, e.Phone, e.Avatar, e.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("create employee: %w: %w", core.ErrStorage, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create employee id: %w: %w", core.ErrStorage, err)
	}
	e.ID = id
	return nil
}

func (s *SQLiteStore) GetEmployee(ctx context.Context, id int64) (core.Employee, error) {
	var (
		e    core.Employee
		nano int64
	)
	err := s.q.QueryRowContext(ctx,
		`SELECT id, name, email, phone, created_at FROM employees WHERE id = ?`, id,
	).Scan(&e.ID, &e.Name, &e.Email, &e.Phone, &nano)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Employee{}, fmt.Errorf("employee %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Employee{}, fmt.Errorf("get employee: %w: %w", core.ErrStorage, err)
	}
	e.CreatedAt = time.Unix(0, nano).UTC()
	return e, nil
}

func (s *SQLiteStore) ListEmployees(ctx context.Context) ([]core.Employee, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, name, email, phone, created_at FROM employees ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w: %w", core.ErrStorage, err)
	}
	defer rows.Close()

	var employees []core.Employee
	for rows.Next() {
		var (
			e    core.Employee
			nano int64
		)
		if err := rows.Scan(&e.ID, &e.Name, &e.Email, &e.Phone, &nano); err != nil {
			return nil, fmt.Errorf("scan employee: %w: %w", core.ErrStorage, err)
		}
		e.CreatedAt = time.Unix(0, nano).UTC()
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list employees: %w: %w", core.ErrStorage, err)
	}
	return employees, nil
}

func (s *SQLiteStore) DeleteEmployee(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM employees WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete employee: %w: %w", core.ErrStorage, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete employee: %w: %w", core.ErrStorage, err)
	}
	if n == 0 {
		return fmt.Errorf("employee %d: %w", id, core.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) CreateExpense(ctx context.Context, e *core.Expense) error {
	if e.Status == "" {
		e.Status = core.StatusPending
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	res, err := s.q.ExecContext(ctx,
		`INSERT INTO expenses (employee_id, description, amount_cents, bill_image, status, created_at, created_year, created_month)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.EmployeeID, e.Description, e.Amount.Cents, e.BillImage, string(e.Status),
		e.CreatedAt.UnixNano(), e.CreatedAt.Year(), int(e.CreatedAt.Month()),
	)
	if err != nil {
		return fmt.Errorf("create expense: %w: %w", core.ErrStorage, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create expense id: %w: %w", core.ErrStorage, err)
	}
	e.ID = id
	return nil
}

const expenseColumns = `id, employee_id, description, amount_cents, status, created_at`

func scanExpense(scan func(dest ...any) error) (core.Expense, error) {
	var (
		e      core.Expense
		status string
		nano   int64
	)
	if err := scan(&e.ID, &e.EmployeeID, &e.Description, &e.Amount.Cents, &status, &nano); err != nil {
		return core.Expense{}, err
	}
	e.Status = core.Status(status)
	e.CreatedAt = time.Unix(0, nano).UTC()
	return e, nil
}

func (s *SQLiteStore) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w: %w", core.ErrStorage, err)
	}
	return e, nil
}

func (s *SQLiteStore) ListExpenses(ctx context.Context, period core.Period, filter core.StatusFilter, limit int) ([]core.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE created_year = ?`
	args := []any{period.Year}

	if period.Kind == core.PeriodMonth {
		query += ` AND created_month = ?`
		args = append(args, period.Month)
	}
	if filter != core.FilterAll && filter != "" {
		query += ` AND status = ?`
		args = append(args, string(filter))
	}

	query += ` ORDER BY created_at DESC, id ASC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	return s.queryExpenses(ctx, query, args...)
}

func (s *SQLiteStore) ListExpensesByEmployee(ctx context.Context, employeeID int64) ([]core.Expense, error) {
	return s.queryExpenses(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE employee_id = ? ORDER BY created_at DESC, id ASC`,
		employeeID)
}

func (s *SQLiteStore) queryExpenses(ctx context.Context, query string, args ...any) ([]core.Expense, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w: %w", core.ErrStorage, err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w: %w", core.ErrStorage, err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query expenses: %w: %w", core.ErrStorage, err)
	}
	return expenses, nil
}

func (s *SQLiteStore) UpdateExpenseStatus(ctx context.Context, id int64, status core.Status) (core.Expense, error) {
	res, err := s.q.ExecContext(ctx,
		`UPDATE expenses SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense status: %w: %w", core.ErrStorage, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense status: %w: %w", core.ErrStorage, err)
	}
	if n == 0 {
		return core.Expense{}, fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
	}
	return s.GetExpense(ctx, id)
}

func (s *SQLiteStore) GetBillImage(ctx context.Context, expenseID, employeeID int64) ([]byte, error) {
	var bill []byte
	err := s.q.QueryRowContext(ctx,
		`SELECT bill_image FROM expenses WHERE id = ? AND employee_id = ?`,
		expenseID, employeeID,
	).Scan(&bill)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("bill for expense %d employee %d: %w", expenseID, employeeID, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get bill image: %w: %w", core.ErrStorage, err)
	}
	return bill, nil
}

func (s *SQLiteStore) GetAvatar(ctx context.Context, employeeID int64) ([]byte, error) {
	var avatar []byte
	err := s.q.QueryRowContext(ctx,
		`SELECT avatar FROM employees WHERE id = ?`, employeeID,
	).Scan(&avatar)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("employee %d: %w", employeeID, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get avatar: %w: %w", core.ErrStorage, err)
	}
	if len(avatar) == 0 {
		return nil, fmt.Errorf("employee %d has no avatar: %w", employeeID, core.ErrNotFound)
	}
	return avatar, nil
}

func (s *SQLiteStore) DeleteExpensesByEmployee(ctx context.Context, employeeID int64) (int64, error) {
	res, err := s.q.ExecContext(ctx, `DELETE FROM expenses WHERE employee_id = ?`, employeeID)
	if err != nil {
		return 0, fmt.Errorf("delete expenses by employee: %w: %w", core.ErrStorage, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expenses by employee: %w: %w", core.ErrStorage, err)
	}
	return n, nil
}

func (s *SQLiteStore) ListOrphanEmployeeIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT DISTINCT employee_id FROM expenses e
		 WHERE NOT EXISTS (SELECT 1 FROM employees emp WHERE emp.id = e.employee_id)
		 ORDER BY employee_id`)
	if err != nil {
		return nil, fmt.Errorf("list orphan employee ids: %w: %w", core.ErrStorage, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan orphan employee id: %w: %w", core.ErrStorage, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orphan employee ids: %w: %w", core.ErrStorage, err)
	}
	return ids, nil
}

func (s *SQLiteStore) RunInTx(ctx context.Context, fn func(Store) error) error {
	if s.db == nil {
		// Nested transactions are not supported.
		return ErrTxUnsupported
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w: %w", core.ErrStorage, err)
	}
	defer tx.Rollback()

	if err := fn(&SQLiteStore{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w: %w", core.ErrStorage, err)
	}
	return nil
}
