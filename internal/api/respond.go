package api

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/safar/bookstore/internal/auth"
	"github.com/safar/bookstore/internal/database"
)

const maxBodyBytes = 1 << 20

type messageResponse struct {
	Message string `json:"message"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeMessage(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, messageResponse{Message: message})
}

func (s *Server) writeErrorMessage(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// writeError maps domain errors onto status codes. Anything unrecognised is
// logged and reported to the client as fallback with a 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var ve *database.ValidationError
	switch {
	case errors.As(err, &ve):
		s.writeErrorMessage(w, http.StatusBadRequest, ve.Message)
	case errors.Is(err, auth.ErrUnauthorized):
		s.writeErrorMessage(w, http.StatusUnauthorized, "Please login")
	case errors.Is(err, database.ErrBookNotFound):
		s.writeErrorMessage(w, http.StatusNotFound, "Book not found")
	case errors.Is(err, database.ErrOrderNotFound):
		s.writeErrorMessage(w, http.StatusNotFound, "Order not found")
	case errors.Is(err, database.ErrUserNotFound):
		s.writeErrorMessage(w, http.StatusNotFound, "User not found")
	case errors.Is(err, database.ErrEmptyCart):
		s.writeErrorMessage(w, http.StatusBadRequest, "Cart is empty")
	case errors.Is(err, database.ErrDuplicateUser):
		s.writeErrorMessage(w, http.StatusBadRequest, "Username or email already exists")
	case errors.Is(err, database.ErrInvalidCredentials):
		s.writeErrorMessage(w, http.StatusBadRequest, "Invalid credentials")
	default:
		s.logger.Error(fallback, "error", err, "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()))
		s.writeErrorMessage(w, http.StatusInternalServerError, fallback)
	}
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst zeroed so
// the handler's own field checks report what is missing.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return database.NewValidationError("", "Invalid request body")
	}
	return nil
}

// pathID parses a positive id path parameter. Numbers past the INTEGER key
// range cannot name a row: they yield missing, or a validation error when
// missing is nil.
func pathID(r *http.Request, name string, missing error) (int64, error) {
	raw := chi.URLParam(r, name)
	invalid := database.NewValidationError(name, "Invalid "+name)

	id, err := strconv.ParseInt(raw, 10, 64)
	if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(raw, "-") {
		id, err = math.MaxInt64, nil
	}
	if err != nil || id <= 0 {
		return 0, invalid
	}
	if id > math.MaxInt32 {
		if missing != nil {
			return 0, missing
		}
		return 0, invalid
	}
	return id, nil
}

// currentUser is only called behind auth.RequireUser.
func currentUser(r *http.Request) (auth.User, error) {
	u, ok := auth.UserFrom(r.Context())
	if !ok {
		return auth.User{}, auth.ErrUnauthorized
	}
	return u, nil
}
