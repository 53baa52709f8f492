package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/safar/bookstore/internal/auth"
	"github.com/safar/bookstore/internal/database"
	"github.com/safar/bookstore/internal/models"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type userResponse struct {
	Message string     `json:"message"`
	User    *auth.User `json:"user"`
}

type currentUserResponse struct {
	User *auth.User `json:"user"`
}

func sessionUser(u *models.User) auth.User {
	return auth.User{ID: u.ID, Username: u.Username, Email: u.Email}
}

func validatePassword(field, password string) error {
	if len(password) < auth.MinPasswordLength {
		return database.NewValidationError(field, fmt.Sprintf("Password must be at least %d characters", auth.MinPasswordLength))
	}
	if len(password) > auth.MaxPasswordLength {
		return database.NewValidationError(field, fmt.Sprintf("Password must be at most %d characters", auth.MaxPasswordLength))
	}
	return nil
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err, "Registration failed")
		return
	}

	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if username == "" || email == "" || req.Password == "" {
		s.writeError(w, r, database.NewValidationError("", "All fields required"), "Registration failed")
		return
	}
	if err := validatePassword("password", req.Password); err != nil {
		s.writeError(w, r, err, "Registration failed")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.writeError(w, r, err, "Registration failed")
		return
	}

	user, err := s.users.CreateUser(r.Context(), username, email, hash)
	if err != nil {
		s.writeError(w, r, err, "Registration failed")
		return
	}

	identity := sessionUser(user)
	if err := s.sessions.Login(w, r, identity); err != nil {
		s.writeError(w, r, err, "Registration failed")
		return
	}

	s.logger.Info("user registered", "user_id", user.ID)
	s.writeJSON(w, http.StatusOK, userResponse{Message: "Registered successfully", User: &identity})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err, "Login failed")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		s.writeError(w, r, database.NewValidationError("", "All fields required"), "Login failed")
		return
	}

	user, err := s.users.GetUserByEmail(r.Context(), email)
	if errors.Is(err, database.ErrUserNotFound) {
		s.writeError(w, r, database.ErrInvalidCredentials, "Login failed")
		return
	}
	if err != nil {
		s.writeError(w, r, err, "Login failed")
		return
	}

	ok, err := auth.CheckPassword(user.PasswordHash, req.Password)
	if err != nil {
		s.writeError(w, r, err, "Login failed")
		return
	}
	if !ok {
		s.writeError(w, r, database.ErrInvalidCredentials, "Login failed")
		return
	}

	identity := sessionUser(user)
	if err := s.sessions.Login(w, r, identity); err != nil {
		s.writeError(w, r, err, "Login failed")
		return
	}
	s.writeJSON(w, http.StatusOK, userResponse{Message: "Logged in successfully", User: &identity})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Logout(w, r); err != nil {
		s.writeError(w, r, err, "Logout failed")
		return
	}
	s.writeMessage(w, http.StatusOK, "Logged out")
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	var resp currentUserResponse
	if u, ok := auth.UserFrom(r.Context()); ok {
		resp.User = &u
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, err := currentUser(r)
	if err != nil {
		s.writeError(w, r, err, "Failed to change password")
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err, "Failed to change password")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		s.writeError(w, r, database.NewValidationError("", "All fields required"), "Failed to change password")
		return
	}
	if err := validatePassword("newPassword", req.NewPassword); err != nil {
		s.writeError(w, r, err, "Failed to change password")
		return
	}

	user, err := s.users.GetUserByID(r.Context(), identity.ID)
	if err != nil {
		s.writeError(w, r, err, "Failed to change password")
		return
	}

	ok, err := auth.CheckPassword(user.PasswordHash, req.CurrentPassword)
	if err != nil {
		s.writeError(w, r, err, "Failed to change password")
		return
	}
	if !ok {
		s.writeError(w, r, database.NewValidationError("currentPassword", "Current password is incorrect"), "Failed to change password")
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		s.writeError(w, r, err, "Failed to change password")
		return
	}
	if err := s.users.UpdatePasswordHash(r.Context(), user.ID, hash); err != nil {
		s.writeError(w, r, err, "Failed to change password")
		return
	}

	s.writeMessage(w, http.StatusOK, "Password updated successfully")
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	identity, err := currentUser(r)
	if err != nil {
		s.writeError(w, r, err, "Failed to delete account")
		return
	}

	deleteErr := s.users.DeleteUser(r.Context(), identity.ID)
	if deleteErr != nil && !errors.Is(deleteErr, database.ErrUserNotFound) {
		s.writeError(w, r, deleteErr, "Failed to delete account")
		return
	}

	// The session points at a user that no longer exists either way.
	if err := s.sessions.Logout(w, r); err != nil {
		s.logger.Warn("failed to clear session", "user_id", identity.ID, "error", err)
	}
	if deleteErr != nil {
		s.writeError(w, r, deleteErr, "Failed to delete account")
		return
	}

	s.logger.Info("account deleted", "user_id", identity.ID)
	s.writeMessage(w, http.StatusOK, "Account deleted successfully")
}
