package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// StatusChangedMessage announces an approval decision on an expense.
type StatusChangedMessage struct {
	EventID   string    `json:"event_id"`
	ExpenseID int64     `json:"expense_id"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func NewStatusChangedMessage(expenseID int64, status string) *StatusChangedMessage {
	return &StatusChangedMessage{
		EventID:   uuid.NewString(),
		ExpenseID: expenseID,
		Status:    status,
		Timestamp: time.Now(),
	}
}

func (m *StatusChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EmployeeRemovedMessage announces a cascade deletion. Partial marks cascades
// that deleted the employee but failed to delete the dependent expenses.
type EmployeeRemovedMessage struct {
	EventID         string    `json:"event_id"`
	EmployeeID      int64     `json:"employee_id"`
	ExpensesDeleted int64     `json:"expenses_deleted"`
	Partial         bool      `json:"partial"`
	Timestamp       time.Time `json:"timestamp"`
}

func NewEmployeeRemovedMessage(employeeID, expensesDeleted int64, partial bool) *EmployeeRemovedMessage {
	return &EmployeeRemovedMessage{
		EventID:         uuid.NewString(),
		EmployeeID:      employeeID,
		ExpensesDeleted: expensesDeleted,
		Partial:         partial,
		Timestamp:       time.Now(),
	}
}

func (m *EmployeeRemovedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func EmployeeRemovedMessageFromJSON(data []byte) (*EmployeeRemovedMessage, error) {
	var msg EmployeeRemovedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
