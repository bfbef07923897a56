package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"medexpense/internal/core"
	"medexpense/internal/storage"
)

func seedExpense(t *testing.T, store *storage.MemStore, employeeID int64, status core.Status, createdAt time.Time) core.Expense {
	t.Helper()
	e := core.Expense{
		EmployeeID:  employeeID,
		Description: "taxi",
		Amount:      core.Money{Cents: 1250},
		BillImage:   []byte{0x89, 0x50},
		Status:      status,
		CreatedAt:   createdAt,
	}
	if err := store.CreateExpense(context.Background(), &e); err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	return e
}

func TestExpenseServiceDecide(t *testing.T) {
	store := storage.NewMemStore()
	svc := NewExpenseService(store, nil, nil)
	exp := seedExpense(t, store, 1, core.StatusPending, time.Now())

	updated, err := svc.Decide(context.Background(), exp.ID, core.StatusApproved)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if updated.Status != core.StatusApproved {
		t.Fatalf("status = %q, want approved", updated.Status)
	}

	// Re-applying the same decision is a no-op, not an error.
	again, err := svc.Decide(context.Background(), exp.ID, core.StatusApproved)
	if err != nil {
		t.Fatalf("repeat Decide: %v", err)
	}
	if again.Status != core.StatusApproved {
		t.Fatalf("repeat status = %q, want approved", again.Status)
	}
}

func TestExpenseServiceDecideRejectsNonDecisions(t *testing.T) {
	store := storage.NewMemStore()
	svc := NewExpenseService(store, nil, nil)
	exp := seedExpense(t, store, 1, core.StatusApproved, time.Now())

	for _, status := range []core.Status{core.StatusPending, "maybe", ""} {
		if _, err := svc.Decide(context.Background(), exp.ID, status); !errors.Is(err, core.ErrInvalidStatus) {
			t.Errorf("Decide(%q) error = %v, want ErrInvalidStatus", status, err)
		}
	}

	// The invalid decision must not have touched the record.
	got, err := store.GetExpense(context.Background(), exp.ID)
	if err != nil {
		t.Fatalf("GetExpense: %v", err)
	}
	if got.Status != core.StatusApproved {
		t.Fatalf("status = %q, want approved untouched", got.Status)
	}
}

func TestExpenseServiceDecideNotFound(t *testing.T) {
	svc := NewExpenseService(storage.NewMemStore(), nil, nil)

	if _, err := svc.Decide(context.Background(), 42, core.StatusRejected); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestExpenseServiceQuery(t *testing.T) {
	store := storage.NewMemStore()
	svc := NewExpenseService(store, nil, nil)

	march := time.Date(2023, time.March, 10, 9, 0, 0, 0, time.UTC)
	april := time.Date(2023, time.April, 2, 9, 0, 0, 0, time.UTC)
	seedExpense(t, store, 1, core.StatusApproved, march)
	seedExpense(t, store, 1, core.StatusRejected, march.Add(time.Hour))
	seedExpense(t, store, 2, core.StatusPending, april)

	period, err := core.ResolvePeriod("month", 3, 2023)
	if err != nil {
		t.Fatalf("ResolvePeriod: %v", err)
	}

	all, err := svc.Query(context.Background(), period, core.FilterAll, 0)
	if err != nil {
		t.Fatalf("Query all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len(all) = %d, want 2", len(all))
	}

	approved, err := svc.Query(context.Background(), period, core.FilterApproved, 0)
	if err != nil {
		t.Fatalf("Query approved: %v", err)
	}
	if len(approved) != 1 || approved[0].Status != core.StatusApproved {
		t.Fatalf("approved = %+v, want one approved expense", approved)
	}

	// Empty filter defaults to all.
	defaulted, err := svc.Query(context.Background(), period, "", 0)
	if err != nil {
		t.Fatalf("Query with empty filter: %v", err)
	}
	if len(defaulted) != 2 {
		t.Fatalf("len(defaulted) = %d, want 2", len(defaulted))
	}

	if _, err := svc.Query(context.Background(), period, "bogus", 0); !errors.Is(err, core.ErrInvalidStatus) {
		t.Fatalf("invalid filter error = %v, want ErrInvalidStatus", err)
	}
}

func TestExpenseServiceRecentCapsAtDefaultLimit(t *testing.T) {
	store := storage.NewMemStore()
	svc := NewExpenseService(store, nil, nil)

	// Anchor mid-month so adding minutes cannot roll into the next period.
	now := time.Now()
	anchor := time.Date(now.Year(), now.Month(), 15, 12, 0, 0, 0, time.UTC)
	for i := 0; i < DefaultDashboardLimit+5; i++ {
		seedExpense(t, store, 1, core.StatusPending, anchor.Add(time.Duration(i)*time.Minute))
	}

	recent, err := svc.Recent(context.Background())
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != DefaultDashboardLimit {
		t.Fatalf("len(recent) = %d, want %d", len(recent), DefaultDashboardLimit)
	}
	// Newest first.
	for i := 1; i < len(recent); i++ {
		if recent[i].CreatedAt.After(recent[i-1].CreatedAt) {
			t.Fatalf("result not ordered newest first at index %d", i)
		}
	}
}
