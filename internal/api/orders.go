package api

import (
	"net/http"
	"strconv"

	"github.com/safar/bookstore/internal/database"
)

const (
	defaultOrderPageSize = 20
	maxOrderPageSize     = 100
)

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		s.writeError(w, r, err, "Failed to fetch orders")
		return
	}

	limit := defaultOrderPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxOrderPageSize {
			s.writeError(w, r, database.NewValidationError("limit", "Limit must be between 1 and 100"), "Failed to fetch orders")
			return
		}
		limit = n
	}

	page, err := s.orders.ListOrders(r.Context(), user.ID, r.URL.Query().Get("cursor"), limit)
	if err != nil {
		s.writeError(w, r, err, "Failed to fetch orders")
		return
	}
	s.writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		s.writeError(w, r, err, "Failed to fetch order")
		return
	}

	orderID, err := pathID(r, "id", database.ErrOrderNotFound)
	if err != nil {
		s.writeError(w, r, err, "Failed to fetch order")
		return
	}

	order, err := s.orders.GetOrder(r.Context(), user.ID, orderID)
	if err != nil {
		s.writeError(w, r, err, "Failed to fetch order")
		return
	}
	s.writeJSON(w, http.StatusOK, order)
}
