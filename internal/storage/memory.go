package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"medexpense/internal/core"
)

// MemStore is an in-memory Store for tests and the "memory" backend. It keeps
// expenses in insertion order so descending-createdAt queries break ties the
// same way the SQLite store does.
//
// MemStore has no multi-record transactions: RunInTx returns ErrTxUnsupported,
// which exercises the sequential cascade fallback in the service layer.
type MemStore struct {
	mu             sync.Mutex
	employees      map[int64]core.Employee
	expenses       []core.Expense
	nextEmployeeID int64
	nextExpenseID  int64

	// FailDeleteExpenses, when set, makes DeleteExpensesByEmployee fail with
	// the given error. Test hook for partial-cascade scenarios.
	FailDeleteExpenses error
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		employees:      make(map[int64]core.Employee),
		nextEmployeeID: 1,
		nextExpenseID:  1,
	}
}

func (s *MemStore) Close() error { return nil }

func (s *MemStore) CreateEmployee(ctx context.Context, e *core.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.ID = s.nextEmployeeID
	s.nextEmployeeID++
	s.employees[e.ID] = *e
	return nil
}

func (s *MemStore) GetEmployee(ctx context.Context, id int64) (core.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.employees[id]
	if !ok {
		return core.Employee{}, fmt.Errorf("employee %d: %w", id, core.ErrNotFound)
	}
	e.Avatar = nil
	return e, nil
}

func (s *MemStore) ListEmployees(ctx context.Context) ([]core.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	employees := make([]core.Employee, 0, len(s.employees))
	for _, e := range s.employees {
		e.Avatar = nil
		employees = append(employees, e)
	}
	sort.Slice(employees, func(i, j int) bool { return employees[i].ID < employees[j].ID })
	return employees, nil
}

func (s *MemStore) DeleteEmployee(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.employees[id]; !ok {
		return fmt.Errorf("employee %d: %w", id, core.ErrNotFound)
	}
	delete(s.employees, id)
	return nil
}

func (s *MemStore) CreateExpense(ctx context.Context, e *core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.Status == "" {
		e.Status = core.StatusPending
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.ID = s.nextExpenseID
	s.nextExpenseID++
	s.expenses = append(s.expenses, *e)
	return nil
}

func (s *MemStore) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.expenses {
		if e.ID == id {
			e.BillImage = nil
			return e, nil
		}
	}
	return core.Expense{}, fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
}

func (s *MemStore) ListExpenses(ctx context.Context, period core.Period, filter core.StatusFilter, limit int) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []core.Expense
	for _, e := range s.expenses {
		if !period.Contains(e.CreatedAt) {
			continue
		}
		if !filter.Matches(e.Status) && filter != "" {
			continue
		}
		e.BillImage = nil
		matches = append(matches, e)
	}

	// Stable sort keeps insertion order for equal timestamps.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (s *MemStore) ListExpensesByEmployee(ctx context.Context, employeeID int64) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []core.Expense
	for _, e := range s.expenses {
		if e.EmployeeID != employeeID {
			continue
		}
		e.BillImage = nil
		matches = append(matches, e)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

func (s *MemStore) UpdateExpenseStatus(ctx context.Context, id int64, status core.Status) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.expenses {
		if s.expenses[i].ID == id {
			s.expenses[i].Status = status
			e := s.expenses[i]
			e.BillImage = nil
			return e, nil
		}
	}
	return core.Expense{}, fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
}

func (s *MemStore) GetBillImage(ctx context.Context, expenseID, employeeID int64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.expenses {
		if e.ID == expenseID && e.EmployeeID == employeeID {
			return e.BillImage, nil
		}
	}
	return nil, fmt.Errorf("bill for expense %d employee %d: %w", expenseID, employeeID, core.ErrNotFound)
}

func (s *MemStore) GetAvatar(ctx context.Context, employeeID int64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.employees[employeeID]
	if !ok {
		return nil, fmt.Errorf("employee %d: %w", employeeID, core.ErrNotFound)
	}
	if len(e.Avatar) == 0 {
		return nil, fmt.Errorf("employee %d has no avatar: %w", employeeID, core.ErrNotFound)
	}
	return e.Avatar, nil
}

func (s *MemStore) DeleteExpensesByEmployee(ctx context.Context, employeeID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailDeleteExpenses != nil {
		return 0, s.FailDeleteExpenses
	}

	var kept []core.Expense
	var deleted int64
	for _, e := range s.expenses {
		if e.EmployeeID == employeeID {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	s.expenses = kept
	return deleted, nil
}

func (s *MemStore) ListOrphanEmployeeIDs(ctx context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[int64]bool)
	var ids []int64
	for _, e := range s.expenses {
		if _, ok := s.employees[e.EmployeeID]; ok {
			continue
		}
		if seen[e.EmployeeID] {
			continue
		}
		seen[e.EmployeeID] = true
		ids = append(ids, e.EmployeeID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *MemStore) RunInTx(ctx context.Context, fn func(Store) error) error {
	return ErrTxUnsupported
}
