// Package api exposes the ledger services over a thin JSON HTTP surface.
// Handlers only decode, delegate to the services, and encode; every
// business rule lives below them.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/groupledger/groupledger/internal/service"
)

// Server routes HTTP requests to the expense and group services.
type Server struct {
	expenses *service.ExpenseService
	groups   *service.GroupService
}

// NewServer creates an API server over the given services.
func NewServer(expenses *service.ExpenseService, groups *service.GroupService) *Server {
	return &Server{expenses: expenses, groups: groups}
}

// Register attaches all routes to the mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/groups", s.handleCreateGroup)
	mux.HandleFunc("GET /v1/groups", s.handleListGroups)
	mux.HandleFunc("GET /v1/groups/{id}", s.handleGetGroup)
	mux.HandleFunc("DELETE /v1/groups/{id}", s.handleDeleteGroup)
	mux.HandleFunc("POST /v1/groups/{id}/members", s.handleAddMember)
	mux.HandleFunc("GET /v1/groups/{id}/expenses", s.handleListExpenses)
	mux.HandleFunc("GET /v1/members/{id}", s.handleGetMember)

	mux.HandleFunc("POST /v1/expenses", s.handleCreateExpense)
	mux.HandleFunc("GET /v1/expenses/{id}", s.handleGetExpense)
	mux.HandleFunc("PATCH /v1/expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /v1/expenses/{id}", s.handleDeleteExpense)
}

// writeJSON encodes a response body with the given status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps service errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch service.KindOf(err) {
	case service.KindNotFound:
		status = http.StatusNotFound
	case service.KindInvalidInput:
		status = http.StatusBadRequest
	}

	message := err.Error()
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		message = svcErr.Message
	}
	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "error", err)
		message = "internal error"
	}
	writeJSON(w, status, map[string]string{"error": message})
}

// decodeBody strictly decodes a JSON request body.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
