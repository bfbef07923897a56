package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"medexpense/internal/core"
)

type statusRequest struct {
	Status string `json:"status"`
}

type statusResponse struct {
	Expense expenseJSON `json:"expense"`
}

func (s *Server) handleExpenseStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid expense id"})
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	status, err := core.ParseDecision(req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := s.expenses.Decide(r.Context(), id, status)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{Expense: toExpenseJSON(updated)})
}

// handleBillImage serves the raw receipt. Both the expense id and the
// employee query parameter must match the stored record.
func (s *Server) handleBillImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid expense id"})
		return
	}

	employeeID, err := strconv.ParseInt(r.URL.Query().Get("employee"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing or invalid employee parameter"})
		return
	}

	bill, err := s.images.BillImage(r.Context(), id, employeeID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeImage(w, bill)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// writeImage sniffs the content type from the bytes; stored blobs carry no
// format metadata.
func writeImage(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
