package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"medexpense/internal/core"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "medexpense-test-*")
	if err != nil {
		t.Fatalf("create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := NewSQLiteStore(filepath.Join(tempDir, "test.db"), false)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func seedEmployee(t *testing.T, store Store, name string, avatar []byte) core.Employee {
	t.Helper()
	e := core.Employee{Name: name, Email: name + "@example.com", Avatar: avatar}
	if err := store.CreateEmployee(context.Background(), &e); err != nil {
		t.Fatalf("seed employee: %v", err)
	}
	return e
}

func seedExpense(t *testing.T, store Store, employeeID int64, desc string, createdAt time.Time) core.Expense {
	t.Helper()
	e := core.Expense{
		EmployeeID:  employeeID,
		Description: desc,
		Amount:      core.Money{Cents: 1500},
		BillImage:   []byte("bill-bytes-" + desc),
		CreatedAt:   createdAt,
	}
	if err := store.CreateExpense(context.Background(), &e); err != nil {
		t.Fatalf("seed expense: %v", err)
	}
	return e
}

func TestSQLiteStore_ListExpensesByPeriod(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	emp := seedEmployee(t, store, "alice", nil)
	a := seedExpense(t, store, emp.ID, "A", time.Date(2023, 3, 5, 10, 0, 0, 0, time.UTC))
	b := seedExpense(t, store, emp.ID, "B", time.Date(2023, 3, 20, 8, 0, 0, 0, time.UTC))
	seedExpense(t, store, emp.ID, "april", time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC))
	seedExpense(t, store, emp.ID, "other year", time.Date(2022, 3, 10, 0, 0, 0, 0, time.UTC))

	t.Run("month period returns only that month, descending", func(t *testing.T) {
		got, err := store.ListExpenses(ctx, core.Period{Kind: core.PeriodMonth, Month: 3, Year: 2023}, core.FilterAll, 0)
		if err != nil {
			t.Fatalf("ListExpenses: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("got %d expenses, want 2", len(got))
		}
		if got[0].ID != b.ID || got[1].ID != a.ID {
			t.Fatalf("order = [%d, %d], want [%d, %d]", got[0].ID, got[1].ID, b.ID, a.ID)
		}
	})

	t.Run("year period matches whole year", func(t *testing.T) {
		got, err := store.ListExpenses(ctx, core.Period{Kind: core.PeriodYear, Year: 2023}, core.FilterAll, 0)
		if err != nil {
			t.Fatalf("ListExpenses: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("got %d expenses, want 3", len(got))
		}
	})

	t.Run("limit caps results after ordering", func(t *testing.T) {
		got, err := store.ListExpenses(ctx, core.Period{Kind: core.PeriodYear, Year: 2023}, core.FilterAll, 1)
		if err != nil {
			t.Fatalf("ListExpenses: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("got %d expenses, want 1", len(got))
		}
		if got[0].Description != "april" {
			t.Fatalf("got %q, want most recent expense first", got[0].Description)
		}
	})

	t.Run("listing never carries blobs", func(t *testing.T) {
		got, err := store.ListExpenses(ctx, core.Period{Kind: core.PeriodYear, Year: 2023}, core.FilterAll, 0)
		if err != nil {
			t.Fatalf("ListExpenses: %v", err)
		}
		for _, e := range got {
			if len(e.BillImage) != 0 {
				t.Fatalf("expense %d carries bill bytes in a listing", e.ID)
			}
		}
	})
}

func TestSQLiteStore_ListExpensesTieBreak(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	emp := seedEmployee(t, store, "bob", nil)
	same := time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC)
	first := seedExpense(t, store, emp.ID, "first", same)
	second := seedExpense(t, store, emp.ID, "second", same)

	got, err := store.ListExpenses(ctx, core.Period{Kind: core.PeriodMonth, Month: 6, Year: 2023}, core.FilterAll, 0)
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d expenses, want 2", len(got))
	}
	if got[0].ID != first.ID || got[1].ID != second.ID {
		t.Fatalf("tie break by insertion order violated: [%d, %d]", got[0].ID, got[1].ID)
	}
}

func TestSQLiteStore_StatusFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	emp := seedEmployee(t, store, "carol", nil)
	created := time.Date(2023, 5, 10, 0, 0, 0, 0, time.UTC)
	approved := seedExpense(t, store, emp.ID, "approved one", created)
	rejected := seedExpense(t, store, emp.ID, "rejected one", created)
	pending := seedExpense(t, store, emp.ID, "pending one", created)

	if _, err := store.UpdateExpenseStatus(ctx, approved.ID, core.StatusApproved); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := store.UpdateExpenseStatus(ctx, rejected.ID, core.StatusRejected); err != nil {
		t.Fatalf("reject: %v", err)
	}

	period := core.Period{Kind: core.PeriodMonth, Month: 5, Year: 2023}
	cases := []struct {
		filter core.StatusFilter
		wantID int64
	}{
		{core.FilterApproved, approved.ID},
		{core.FilterRejected, rejected.ID},
		{core.FilterPending, pending.ID},
	}
	for _, tc := range cases {
		got, err := store.ListExpenses(ctx, period, tc.filter, 0)
		if err != nil {
			t.Fatalf("ListExpenses(%s): %v", tc.filter, err)
		}
		if len(got) != 1 || got[0].ID != tc.wantID {
			t.Fatalf("filter %s returned %v, want single expense %d", tc.filter, got, tc.wantID)
		}
	}
}

func TestSQLiteStore_UpdateExpenseStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	emp := seedEmployee(t, store, "dave", nil)
	exp := seedExpense(t, store, emp.ID, "lunch", time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC))

	updated, err := store.UpdateExpenseStatus(ctx, exp.ID, core.StatusApproved)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != core.StatusApproved {
		t.Fatalf("status = %q, want approved", updated.Status)
	}
	if !updated.CreatedAt.Equal(exp.CreatedAt) {
		t.Fatalf("createdAt changed: %v != %v", updated.CreatedAt, exp.CreatedAt)
	}

	// Idempotent: the second identical update succeeds and changes nothing.
	again, err := store.UpdateExpenseStatus(ctx, exp.ID, core.StatusApproved)
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if again.Status != core.StatusApproved {
		t.Fatalf("status after repeat = %q", again.Status)
	}

	if _, err := store.UpdateExpenseStatus(ctx, 9999, core.StatusApproved); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing expense, got %v", err)
	}
}

func TestSQLiteStore_Images(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	avatar := []byte("avatar-bytes")
	withAvatar := seedEmployee(t, store, "erin", avatar)
	noAvatar := seedEmployee(t, store, "frank", nil)
	exp := seedExpense(t, store, withAvatar.ID, "bill", time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC))

	t.Run("bill requires both ids to match", func(t *testing.T) {
		got, err := store.GetBillImage(ctx, exp.ID, withAvatar.ID)
		if err != nil {
			t.Fatalf("GetBillImage: %v", err)
		}
		if string(got) != "bill-bytes-bill" {
			t.Fatalf("bill bytes = %q", got)
		}

		if _, err := store.GetBillImage(ctx, exp.ID, noAvatar.ID); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("expected ErrNotFound on employee mismatch, got %v", err)
		}
	})

	t.Run("avatar returns stored bytes", func(t *testing.T) {
		got, err := store.GetAvatar(ctx, withAvatar.ID)
		if err != nil {
			t.Fatalf("GetAvatar: %v", err)
		}
		if string(got) != string(avatar) {
			t.Fatalf("avatar bytes = %q", got)
		}
	})

	t.Run("empty avatar is not found", func(t *testing.T) {
		if _, err := store.GetAvatar(ctx, noAvatar.ID); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("expected ErrNotFound for empty avatar, got %v", err)
		}
	})

	t.Run("missing employee is not found", func(t *testing.T) {
		if _, err := store.GetAvatar(ctx, 9999); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestSQLiteStore_CascadeInTx(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	emp := seedEmployee(t, store, "grace", nil)
	seedExpense(t, store, emp.ID, "e1", time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC))
	seedExpense(t, store, emp.ID, "e2", time.Date(2023, 8, 1, 0, 0, 0, 0, time.UTC))
	keep := seedEmployee(t, store, "heidi", nil)
	kept := seedExpense(t, store, keep.ID, "keep", time.Date(2023, 7, 2, 0, 0, 0, 0, time.UTC))

	err := store.RunInTx(ctx, func(tx Store) error {
		if err := tx.DeleteEmployee(ctx, emp.ID); err != nil {
			return err
		}
		n, err := tx.DeleteExpensesByEmployee(ctx, emp.ID)
		if err != nil {
			return err
		}
		if n != 2 {
			t.Fatalf("deleted %d expenses in tx, want 2", n)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RunInTx: %v", err)
	}

	if _, err := store.GetEmployee(ctx, emp.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("employee still present: %v", err)
	}
	got, err := store.ListExpenses(ctx, core.Period{Kind: core.PeriodYear, Year: 2023}, core.FilterAll, 0)
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(got) != 1 || got[0].ID != kept.ID {
		t.Fatalf("cascade removed the wrong rows: %v", got)
	}

	orphans, err := store.ListOrphanEmployeeIDs(ctx)
	if err != nil {
		t.Fatalf("ListOrphanEmployeeIDs: %v", err)
	}
	if len(orphans) != 0 {
		t.Fatalf("expected zero orphans after cascade, got %v", orphans)
	}
}

func TestSQLiteStore_TxRollback(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	emp := seedEmployee(t, store, "ivan", nil)
	seedExpense(t, store, emp.ID, "e1", time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC))

	sentinel := errors.New("boom")
	err := store.RunInTx(ctx, func(tx Store) error {
		if err := tx.DeleteEmployee(ctx, emp.ID); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("RunInTx error = %v, want sentinel", err)
	}

	// Rolled back: the employee survives.
	if _, err := store.GetEmployee(ctx, emp.ID); err != nil {
		t.Fatalf("employee lost after rollback: %v", err)
	}
}

func TestSQLiteStore_OrphanDetection(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	emp := seedEmployee(t, store, "judy", nil)
	seedExpense(t, store, emp.ID, "e1", time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC))

	// Simulate a crashed cascade: employee gone, expenses left behind.
	if err := store.DeleteEmployee(ctx, emp.ID); err != nil {
		t.Fatalf("DeleteEmployee: %v", err)
	}

	orphans, err := store.ListOrphanEmployeeIDs(ctx)
	if err != nil {
		t.Fatalf("ListOrphanEmployeeIDs: %v", err)
	}
	if len(orphans) != 1 || orphans[0] != emp.ID {
		t.Fatalf("orphans = %v, want [%d]", orphans, emp.ID)
	}

	n, err := store.DeleteExpensesByEmployee(ctx, emp.ID)
	if err != nil {
		t.Fatalf("DeleteExpensesByEmployee: %v", err)
	}
	if n != 1 {
		t.Fatalf("reclaimed %d expenses, want 1", n)
	}

	// Idempotent completion: running again deletes nothing and does not fail.
	n, err = store.DeleteExpensesByEmployee(ctx, emp.ID)
	if err != nil || n != 0 {
		t.Fatalf("second reclaim: n=%d err=%v", n, err)
	}
}
