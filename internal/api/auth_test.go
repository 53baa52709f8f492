package api

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func register(t *testing.T, env *testEnv, username, email, password string) []*http.Cookie {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/auth/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return rec.Result().Cookies()
}

func TestRegisterLogsIn(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})

	rec := env.do(t, http.MethodPost, "/auth/register", map[string]string{
		"username": "alice",
		"email":    " Alice@Example.com ",
		"password": "secret123",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "Registered successfully", body["message"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "alice@example.com", user["email"])
	assert.NotContains(t, rec.Body.String(), "secret123")

	rec = env.do(t, http.MethodGet, "/auth/current-user", nil, rec.Result().Cookies())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", decodeBody(t, rec)["user"].(map[string]any)["username"])
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})
	register(t, env, "alice", "alice@example.com", "secret123")

	tests := []struct {
		name    string
		body    map[string]string
		message string
	}{
		{"missing fields", map[string]string{"username": "bob"}, "All fields required"},
		{"short password", map[string]string{"username": "bob", "email": "bob@example.com", "password": "123"}, "Password must be at least 6 characters"},
		{"duplicate username", map[string]string{"username": "alice", "email": "other@example.com", "password": "secret123"}, "Username or email already exists"},
		{"duplicate email", map[string]string{"username": "bob", "email": "alice@example.com", "password": "secret123"}, "Username or email already exists"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/auth/register", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.message, decodeBody(t, rec)["error"])
		})
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})
	register(t, env, "alice", "alice@example.com", "secret123")

	rec := env.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "alice@example.com", "password": "wrong-password"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid credentials", decodeBody(t, rec)["error"])

	rec = env.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "nobody@example.com", "password": "secret123"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid credentials", decodeBody(t, rec)["error"])

	rec = env.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "alice@example.com", "password": "secret123"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logged in successfully", decodeBody(t, rec)["message"])

	rec = env.do(t, http.MethodGet, "/cart", nil, rec.Result().Cookies())
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogoutAndAnonymousCurrentUser(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})

	rec := env.do(t, http.MethodGet, "/auth/current-user", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":null}`, rec.Body.String())

	cookies := register(t, env, "alice", "alice@example.com", "secret123")
	rec = env.do(t, http.MethodPost, "/auth/logout", nil, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logged out", decodeBody(t, rec)["message"])

	cleared := rec.Result().Cookies()
	require.NotEmpty(t, cleared)
	assert.Less(t, cleared[0].MaxAge, 0)
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})
	cookies := register(t, env, "alice", "alice@example.com", "secret123")

	rec := env.do(t, http.MethodPost, "/auth/change-password", map[string]string{"currentPassword": "nope-nope", "newPassword": "newsecret"}, cookies)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Current password is incorrect", decodeBody(t, rec)["error"])

	rec = env.do(t, http.MethodPost, "/auth/change-password", map[string]string{"currentPassword": "secret123"}, cookies)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/change-password", map[string]string{"currentPassword": "secret123", "newPassword": "newsecret"}, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Password updated successfully", decodeBody(t, rec)["message"])

	rec = env.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "alice@example.com", "password": "newsecret"}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChangePassword_UserGone(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})

	rec := env.do(t, http.MethodPost, "/auth/change-password",
		map[string]string{"currentPassword": "secret123", "newPassword": "newsecret"}, env.loginAs(t, alice))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", decodeBody(t, rec)["error"])
}

func TestDeleteAccount(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})
	cookies := register(t, env, "alice", "alice@example.com", "secret123")

	rec := env.do(t, http.MethodDelete, "/auth/delete-account", nil, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Account deleted successfully", decodeBody(t, rec)["message"])

	_, err := env.users.GetUserByID(t.Context(), 1)
	assert.Error(t, err)

	rec = env.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "alice@example.com", "password": "secret123"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
