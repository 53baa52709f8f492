// Package auth resolves the logged-in user of a request from its session
// cookie and carries that identity in the request context.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

var ErrUnauthorized = errors.New("unauthorized")

// User is the identity stored in a session.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type userKey struct{}

func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFrom returns the request's identity; ok is false for anonymous requests.
func UserFrom(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userKey{}).(User)
	return u, ok && u.ID > 0
}

// RequireUser rejects anonymous requests with 401 before they reach next.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFrom(r.Context()); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Please login"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
