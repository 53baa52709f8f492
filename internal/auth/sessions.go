package auth

import (
	"crypto/sha256"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
)

const (
	sessionName = "bookstore_session"

	keyUserID   = "user_id"
	keyUsername = "username"
	keyEmail    = "email"
)

type SessionOptions struct {
	Secret string
	MaxAge time.Duration
	Secure bool
}

// Sessions keeps the logged-in user in a signed and encrypted cookie.
type Sessions struct {
	store  *sessions.CookieStore
	logger *slog.Logger
}

func NewSessions(opts SessionOptions, logger *slog.Logger) *Sessions {
	hashKey := sha256.Sum256([]byte("auth:" + opts.Secret))
	encKey := sha256.Sum256([]byte("enc:" + opts.Secret))

	store := sessions.NewCookieStore(hashKey[:], encKey[:])
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(opts.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	return &Sessions{store: store, logger: logger}
}

// Current reads the identity from the request cookie. Missing, expired or
// tampered cookies all read as anonymous.
func (s *Sessions) Current(r *http.Request) (User, bool) {
	session, err := s.store.Get(r, sessionName)
	if err != nil {
		s.logger.Debug("discarding unreadable session", "error", err)
		return User{}, false
	}

	id, ok := session.Values[keyUserID].(int64)
	if !ok || id <= 0 {
		return User{}, false
	}
	username, _ := session.Values[keyUsername].(string)
	email, _ := session.Values[keyEmail].(string)

	return User{ID: id, Username: username, Email: email}, true
}

func (s *Sessions) Login(w http.ResponseWriter, r *http.Request, u User) error {
	session, _ := s.store.Get(r, sessionName)
	session.Values[keyUserID] = u.ID
	session.Values[keyUsername] = u.Username
	session.Values[keyEmail] = u.Email
	session.Options.MaxAge = s.store.Options.MaxAge

	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *Sessions) Logout(w http.ResponseWriter, r *http.Request) error {
	session, _ := s.store.Get(r, sessionName)
	session.Values = map[any]any{}
	session.Options.MaxAge = -1

	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Middleware resolves the session once and stores the identity in the
// request context for RequireUser and the handlers.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, ok := s.Current(r); ok {
			r = r.WithContext(WithUser(r.Context(), u))
		}
		next.ServeHTTP(w, r)
	})
}
