package api

import (
	"net/http"

	"github.com/safar/bookstore/internal/models"
)

type addToCartRequest struct {
	BookID   int64 `json:"bookId"`
	Quantity int   `json:"quantity"`
}

type updateCartRequest struct {
	Quantity int `json:"quantity"`
}

type cartResponse struct {
	CartItems []models.CartItem `json:"cartItems"`
}

type addToCartResponse struct {
	Message string `json:"message"`
	CartID  int64  `json:"cartId"`
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		s.writeError(w, r, err, "Failed to fetch cart")
		return
	}

	items, err := s.carts.ListCart(r.Context(), user.ID)
	if err != nil {
		s.writeError(w, r, err, "Failed to fetch cart")
		return
	}
	s.writeJSON(w, http.StatusOK, cartResponse{CartItems: items})
}

func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		s.writeError(w, r, err, "Failed to add to cart")
		return
	}

	var req addToCartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err, "Failed to add to cart")
		return
	}
	// An omitted quantity means one copy.
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	cartID, created, err := s.carts.AddToCart(r.Context(), user.ID, req.BookID, req.Quantity)
	if err != nil {
		s.writeError(w, r, err, "Failed to add to cart")
		return
	}

	message := "Cart updated"
	if created {
		message = "Added to cart"
	}
	s.writeJSON(w, http.StatusOK, addToCartResponse{Message: message, CartID: cartID})
}

func (s *Server) handleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		s.writeError(w, r, err, "Failed to update cart")
		return
	}

	cartID, err := pathID(r, "cartId", nil)
	if err != nil {
		s.writeError(w, r, err, "Failed to update cart")
		return
	}

	var req updateCartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err, "Failed to update cart")
		return
	}

	// Lines owned by other users are left untouched and still answered with
	// success, so cart ids of other users cannot be discovered.
	if _, err := s.carts.UpdateQuantity(r.Context(), user.ID, cartID, req.Quantity); err != nil {
		s.writeError(w, r, err, "Failed to update cart")
		return
	}
	s.writeMessage(w, http.StatusOK, "Cart updated")
}

func (s *Server) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		s.writeError(w, r, err, "Failed to remove item")
		return
	}

	cartID, err := pathID(r, "cartId", nil)
	if err != nil {
		s.writeError(w, r, err, "Failed to remove item")
		return
	}

	if _, err := s.carts.RemoveLine(r.Context(), user.ID, cartID); err != nil {
		s.writeError(w, r, err, "Failed to remove item")
		return
	}
	s.writeMessage(w, http.StatusOK, "Item removed")
}
