package http

import (
	"net/http"

	"medexpense/internal/core"
)

type employeeListResponse struct {
	Period    string          `json:"period"`
	Employees []breakdownJSON `json:"employees"`
}

type deleteResponse struct {
	EmployeeID      int64 `json:"employee_id"`
	ExpensesDeleted int64 `json:"expenses_deleted"`
}

// handleListEmployees returns every employee with their current-month
// expenses grouped by approval state. An optional period selector narrows a
// different month or year, degrading like the dashboard does.
func (s *Server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	period, _, selected := parsePeriodQuery(q.Get("view"), q.Get("month"), q.Get("year"))
	if !selected {
		period = core.CurrentPeriod()
	}

	breakdowns, err := s.employees.ListWithBreakdown(r.Context(), period)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]breakdownJSON, 0, len(breakdowns))
	for _, b := range breakdowns {
		out = append(out, toBreakdownJSON(b))
	}
	writeJSON(w, http.StatusOK, employeeListResponse{
		Period:    period.String(),
		Employees: out,
	})
}

// handleGetEmployee returns one employee's expenses across all periods.
func (s *Server) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid employee id"})
		return
	}

	breakdown, err := s.employees.BreakdownFor(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toBreakdownJSON(breakdown))
}

func (s *Server) handleAvatar(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid employee id"})
		return
	}

	avatar, err := s.images.Avatar(r.Context(), id, r.URL.Query().Get("size"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeImage(w, avatar)
}

func (s *Server) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid employee id"})
		return
	}

	res, err := s.employees.Remove(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, deleteResponse{
		EmployeeID:      res.EmployeeID,
		ExpensesDeleted: res.ExpensesDeleted,
	})
}
