package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"medexpense/internal/core"
)

type dashboardResponse struct {
	Period   string        `json:"period"`
	Notice   string        `json:"notice,omitempty"`
	Count    int           `json:"count"`
	Expenses []expenseJSON `json:"expenses"`
}

// handleDashboard serves the expense overview. Without a selector it shows
// the newest expenses of the current month. A period selector that fails
// validation never turns into a client error: the response falls back to the
// default view and carries a notice explaining what happened.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	period, notice, selected := parsePeriodQuery(q.Get("view"), q.Get("month"), q.Get("year"))

	filter := core.StatusFilter(strings.ToLower(strings.TrimSpace(q.Get("status"))))
	if filter != "" && !filter.Valid() {
		notice = "unknown status filter " + strconv.Quote(string(filter)) + ", showing all"
		filter = core.FilterAll
	}

	limit := 0
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	var (
		expenses []core.Expense
		err      error
	)
	if !selected && filter == "" && limit == 0 {
		expenses, err = s.expenses.Recent(r.Context())
	} else {
		if filter == "" {
			filter = core.FilterAll
		}
		expenses, err = s.expenses.Query(r.Context(), period, filter, limit)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dashboardResponse{
		Period:   period.String(),
		Notice:   notice,
		Count:    len(expenses),
		Expenses: toExpenseListJSON(expenses),
	})
}

// parsePeriodQuery resolves the view/month/year selector. selected reports
// whether the client asked for a specific period at all; an invalid selector
// degrades to the current month and sets notice.
func parsePeriodQuery(view, monthStr, yearStr string) (period core.Period, notice string, selected bool) {
	if view == "" && monthStr == "" && yearStr == "" {
		return core.CurrentPeriod(), "", false
	}

	now := time.Now()
	if view == "" {
		view = string(core.PeriodMonth)
	}
	month := int(now.Month())
	if monthStr != "" {
		m, err := strconv.Atoi(monthStr)
		if err != nil {
			return core.CurrentPeriod(), "invalid month, showing current month", true
		}
		month = m
	}
	year := now.Year()
	if yearStr != "" {
		y, err := strconv.Atoi(yearStr)
		if err != nil {
			return core.CurrentPeriod(), "invalid year, showing current month", true
		}
		year = y
	}

	period, err := core.ResolvePeriod(view, month, year)
	if err != nil {
		return core.CurrentPeriod(), "invalid period selection, showing current month", true
	}
	return period, "", true
}
