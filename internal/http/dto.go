package http

import (
	"time"

	"medexpense/internal/core"
	"medexpense/internal/services"
)

type expenseJSON struct {
	ID          int64  `json:"id"`
	EmployeeID  int64  `json:"employee_id"`
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

type employeeJSON struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	CreatedAt string `json:"created_at"`
}

type breakdownJSON struct {
	Employee employeeJSON  `json:"employee"`
	Approved []expenseJSON `json:"approved"`
	Rejected []expenseJSON `json:"rejected"`
	Pending  []expenseJSON `json:"pending"`
}

func toExpenseJSON(e core.Expense) expenseJSON {
	return expenseJSON{
		ID:          e.ID,
		EmployeeID:  e.EmployeeID,
		Description: e.Description,
		AmountCents: e.Amount.Cents,
		Status:      string(e.Status),
		CreatedAt:   e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toExpenseListJSON(expenses []core.Expense) []expenseJSON {
	out := make([]expenseJSON, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, toExpenseJSON(e))
	}
	return out
}

func toEmployeeJSON(e core.Employee) employeeJSON {
	return employeeJSON{
		ID:        e.ID,
		Name:      e.Name,
		Email:     e.Email,
		Phone:     e.Phone,
		CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toBreakdownJSON(b services.Breakdown) breakdownJSON {
	return breakdownJSON{
		Employee: toEmployeeJSON(b.Employee),
		Approved: toExpenseListJSON(b.Approved),
		Rejected: toExpenseListJSON(b.Rejected),
		Pending:  toExpenseListJSON(b.Pending),
	}
}
