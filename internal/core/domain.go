package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the approval state of an expense. An expense starts out pending
// and is moved to approved or rejected by an administrator. There is no
// transition back to pending.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

var ErrInvalidStatus = errors.New("invalid status")

// Valid reports whether s is one of the three known states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// ParseDecision parses an administrator decision. Only approved and rejected
// are decisions; pending is the initial state and cannot be set explicitly.
func ParseDecision(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusApproved:
		return StatusApproved, nil
	case StatusRejected:
		return StatusRejected, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// StatusFilter narrows an expense query to a single approval state.
type StatusFilter string

const (
	FilterAll      StatusFilter = "all"
	FilterApproved StatusFilter = "approved"
	FilterRejected StatusFilter = "rejected"
	FilterPending  StatusFilter = "pending"
)

// Valid reports whether f is a known filter.
func (f StatusFilter) Valid() bool {
	switch f {
	case FilterAll, FilterApproved, FilterRejected, FilterPending:
		return true
	}
	return false
}

// Matches reports whether an expense with the given status passes the filter.
func (f StatusFilter) Matches(s Status) bool {
	switch f {
	case FilterAll:
		return true
	case FilterApproved:
		return s == StatusApproved
	case FilterRejected:
		return s == StatusRejected
	case FilterPending:
		return s == StatusPending
	}
	return false
}

type (
	Money struct {
		Cents int64
	}

	// Employee is a registered claimant. Avatar holds raw image bytes and is
	// only populated by avatar-specific lookups, never by record listings.
	Employee struct {
		ID        int64
		Name      string
		Email     string
		Phone     string
		Avatar    []byte
		CreatedAt time.Time
	}

	// Expense is a submitted claim. EmployeeID references an Employee; the
	// reference is maintained by application logic, not a database constraint.
	// BillImage holds raw receipt bytes and is only populated by bill-specific
	// lookups. CreatedAt is immutable after creation and is the sharding key
	// for period queries.
	Expense struct {
		ID          int64
		EmployeeID  int64
		Description string
		Amount      Money
		BillImage   []byte
		Status      Status
		CreatedAt   time.Time
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
)

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Units returns the major currency unit value for display purposes.
// Use cents for calculations to avoid floating-point precision issues.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

func (e Expense) Validate() error {
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if !e.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, e.Status)
	}
	return nil
}
