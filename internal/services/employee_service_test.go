package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"medexpense/internal/core"
	"medexpense/internal/storage"
)

func seedEmployee(t *testing.T, store *storage.MemStore, name string) core.Employee {
	t.Helper()
	e := core.Employee{
		Name:  name,
		Email: name + "@clinic.example",
		Phone: "555-0100",
	}
	if err := store.CreateEmployee(context.Background(), &e); err != nil {
		t.Fatalf("CreateEmployee: %v", err)
	}
	return e
}

func TestEmployeeServiceRemoveCascades(t *testing.T) {
	store := storage.NewMemStore()
	svc := NewEmployeeService(store, nil, nil)

	emp := seedEmployee(t, store, "ada")
	other := seedEmployee(t, store, "grace")
	seedExpense(t, store, emp.ID, core.StatusPending, time.Now())
	seedExpense(t, store, emp.ID, core.StatusApproved, time.Now())
	kept := seedExpense(t, store, other.ID, core.StatusPending, time.Now())

	res, err := svc.Remove(context.Background(), emp.ID)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if res.ExpensesDeleted != 2 {
		t.Fatalf("ExpensesDeleted = %d, want 2", res.ExpensesDeleted)
	}

	if _, err := store.GetEmployee(context.Background(), emp.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("employee still present after removal: %v", err)
	}
	if _, err := store.GetExpense(context.Background(), kept.ID); err != nil {
		t.Fatalf("unrelated expense was deleted: %v", err)
	}

	orphans, err := store.ListOrphanEmployeeIDs(context.Background())
	if err != nil {
		t.Fatalf("ListOrphanEmployeeIDs: %v", err)
	}
	if len(orphans) != 0 {
		t.Fatalf("orphans = %v, want none", orphans)
	}
}

func TestEmployeeServiceRemoveNotFound(t *testing.T) {
	svc := NewEmployeeService(storage.NewMemStore(), nil, nil)

	if _, err := svc.Remove(context.Background(), 99); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestEmployeeServicePartialCascade(t *testing.T) {
	store := storage.NewMemStore()
	svc := NewEmployeeService(store, nil, nil)

	emp := seedEmployee(t, store, "ada")
	seedExpense(t, store, emp.ID, core.StatusPending, time.Now())

	store.FailDeleteExpenses = errors.New("disk full")
	_, err := svc.Remove(context.Background(), emp.ID)
	if !errors.Is(err, core.ErrPartialCascade) {
		t.Fatalf("error = %v, want ErrPartialCascade", err)
	}

	// The employee half already committed; its expenses are now orphans.
	if _, err := store.GetEmployee(context.Background(), emp.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("employee should be gone after partial cascade: %v", err)
	}
	orphans, err := store.ListOrphanEmployeeIDs(context.Background())
	if err != nil {
		t.Fatalf("ListOrphanEmployeeIDs: %v", err)
	}
	if len(orphans) != 1 || orphans[0] != emp.ID {
		t.Fatalf("orphans = %v, want [%d]", orphans, emp.ID)
	}

	// The retry path reclaims the orphans once the store recovers.
	store.FailDeleteExpenses = nil
	deleted, err := svc.CompleteCascade(context.Background(), emp.ID)
	if err != nil {
		t.Fatalf("CompleteCascade: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}

	// Repeating the retry deletes nothing and still succeeds.
	deleted, err = svc.CompleteCascade(context.Background(), emp.ID)
	if err != nil {
		t.Fatalf("repeat CompleteCascade: %v", err)
	}
	if deleted != 0 {
		t.Fatalf("repeat deleted = %d, want 0", deleted)
	}
}

func TestEmployeeServiceListWithBreakdown(t *testing.T) {
	store := storage.NewMemStore()
	svc := NewEmployeeService(store, nil, nil)

	ada := seedEmployee(t, store, "ada")
	grace := seedEmployee(t, store, "grace")

	march := time.Date(2023, time.March, 10, 9, 0, 0, 0, time.UTC)
	seedExpense(t, store, ada.ID, core.StatusApproved, march)
	seedExpense(t, store, ada.ID, core.StatusPending, march.Add(time.Hour))
	seedExpense(t, store, ada.ID, core.StatusRejected, march.Add(2*time.Hour))
	// Outside the queried period, must not appear.
	seedExpense(t, store, ada.ID, core.StatusApproved, march.AddDate(0, 1, 0))

	period, err := core.ResolvePeriod("month", 3, 2023)
	if err != nil {
		t.Fatalf("ResolvePeriod: %v", err)
	}

	breakdowns, err := svc.ListWithBreakdown(context.Background(), period)
	if err != nil {
		t.Fatalf("ListWithBreakdown: %v", err)
	}
	if len(breakdowns) != 2 {
		t.Fatalf("len(breakdowns) = %d, want 2", len(breakdowns))
	}

	var adaB, graceB *Breakdown
	for i := range breakdowns {
		switch breakdowns[i].Employee.ID {
		case ada.ID:
			adaB = &breakdowns[i]
		case grace.ID:
			graceB = &breakdowns[i]
		}
	}
	if adaB == nil || graceB == nil {
		t.Fatalf("missing employee in breakdowns: %+v", breakdowns)
	}

	if len(adaB.Approved) != 1 || len(adaB.Pending) != 1 || len(adaB.Rejected) != 1 {
		t.Fatalf("ada groups = %d/%d/%d, want 1/1/1",
			len(adaB.Approved), len(adaB.Pending), len(adaB.Rejected))
	}
	if len(graceB.Approved)+len(graceB.Pending)+len(graceB.Rejected) != 0 {
		t.Fatalf("grace should have empty groups, got %+v", graceB)
	}
}

func TestEmployeeServiceBreakdownFor(t *testing.T) {
	store := storage.NewMemStore()
	svc := NewEmployeeService(store, nil, nil)

	ada := seedEmployee(t, store, "ada")
	// Two different months: the per-employee view spans all periods.
	seedExpense(t, store, ada.ID, core.StatusApproved, time.Date(2023, time.January, 5, 0, 0, 0, 0, time.UTC))
	seedExpense(t, store, ada.ID, core.StatusPending, time.Date(2023, time.June, 5, 0, 0, 0, 0, time.UTC))

	b, err := svc.BreakdownFor(context.Background(), ada.ID)
	if err != nil {
		t.Fatalf("BreakdownFor: %v", err)
	}
	if len(b.Approved) != 1 || len(b.Pending) != 1 {
		t.Fatalf("groups = %d approved / %d pending, want 1/1", len(b.Approved), len(b.Pending))
	}

	if _, err := svc.BreakdownFor(context.Background(), 99); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}
