package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/safar/bookstore/internal/database"
	"github.com/safar/bookstore/internal/events"
	"github.com/safar/bookstore/internal/store"
	"github.com/safar/bookstore/internal/telemetry"
)

const publishTimeout = 5 * time.Second

type createOrderRequest struct {
	ShippingName    string `json:"shippingName"`
	ShippingAddress string `json:"shippingAddress"`
	ShippingCity    string `json:"shippingCity"`
	ShippingState   string `json:"shippingState"`
	ShippingZip     string `json:"shippingZip"`
	CardNumber      string `json:"cardNumber"`
}

type createOrderResponse struct {
	Message string `json:"message"`
	OrderID int64  `json:"orderId"`
	Total   string `json:"total"`
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		s.writeError(w, r, err, "Failed to create order")
		return
	}

	var req createOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err, "Failed to create order")
		return
	}

	start := time.Now()
	order, err := s.orders.PlaceOrder(r.Context(), user.ID, store.PlaceOrderRequest{
		ShippingName:    req.ShippingName,
		ShippingAddress: req.ShippingAddress,
		ShippingCity:    req.ShippingCity,
		ShippingState:   req.ShippingState,
		ShippingZip:     req.ShippingZip,
		CardNumber:      req.CardNumber,
	})
	s.metrics.Record(r.Context(), checkoutOutcome(err), time.Since(start))
	if err != nil {
		s.writeError(w, r, err, "Failed to create order")
		return
	}
	s.metrics.AddRevenue(r.Context(), order.TotalAmount.InexactFloat64())

	s.logger.Info("order placed",
		"order_id", order.ID,
		"user_id", user.ID,
		"total", order.TotalAmount.StringFixed(2),
		"lines", len(order.Items),
		"request_id", middleware.GetReqID(r.Context()),
	)

	// The order is committed at this point; a lost event must not turn
	// into a failed checkout.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), publishTimeout)
	defer cancel()
	if err := s.publisher.PublishOrderPlaced(ctx, events.NewOrderPlaced(order)); err != nil {
		s.logger.Warn("failed to publish order event", "order_id", order.ID, "error", err)
	}

	s.writeJSON(w, http.StatusOK, createOrderResponse{
		Message: "Order created successfully",
		OrderID: order.ID,
		Total:   order.TotalAmount.StringFixed(2),
	})
}

func checkoutOutcome(err error) string {
	switch {
	case err == nil:
		return telemetry.OutcomePlaced
	case errors.Is(err, database.ErrEmptyCart):
		return telemetry.OutcomeEmptyCart
	case database.IsValidation(err):
		return telemetry.OutcomeInvalid
	default:
		return telemetry.OutcomeFailed
	}
}
