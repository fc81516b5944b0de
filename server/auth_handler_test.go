package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterSuccess(t *testing.T) {
	f := newHandlerFixture(t)

	rec := httptest.NewRecorder()
	f.handler.RegisterHandler(rec, jsonRequest(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Dana", "email": "dana@example.com", "password": "hunter2!",
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User registered successfully", decodeBody(t, rec)["message"])

	stored, err := f.users.GetUserByEmail("dana@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotEqual(t, "hunter2!", stored.PasswordHash)
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$2"))
}

func TestRegisterMissingFields(t *testing.T) {
	f := newHandlerFixture(t)

	for _, body := range []map[string]string{
		{"email": "a@b.c", "password": "x"},
		{"name": "A", "password": "x"},
		{"name": "A", "email": "a@b.c"},
	} {
		rec := httptest.NewRecorder()
		f.handler.RegisterHandler(rec, jsonRequest(t, http.MethodPost, "/api/auth/register", body))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Missing fields", decodeBody(t, rec)["error"])
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newHandlerFixture(t)
	f.registerAndLogin(t, "Dana", "dana@example.com", "hunter2!")

	rec := httptest.NewRecorder()
	f.handler.RegisterHandler(rec, jsonRequest(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Other", "email": "dana@example.com", "password": "different",
	}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email already exists", decodeBody(t, rec)["error"])
}

func TestLoginReturnsTokenAndProfile(t *testing.T) {
	f := newHandlerFixture(t)
	f.registerAndLogin(t, "Dana", "dana@example.com", "hunter2!")

	rec := httptest.NewRecorder()
	f.handler.LoginHandler(rec, jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "dana@example.com", "password": "hunter2!",
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["token"])

	user, ok := body["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Dana", user["name"])
	assert.Equal(t, "dana@example.com", user["email"])
	assert.NotContains(t, user, "passwordHash")
}

func TestLoginRejectsBadCredentialsUniformly(t *testing.T) {
	f := newHandlerFixture(t)
	f.registerAndLogin(t, "Dana", "dana@example.com", "hunter2!")

	// Unknown email and wrong password must be indistinguishable.
	for _, body := range []map[string]string{
		{"email": "nobody@example.com", "password": "hunter2!"},
		{"email": "dana@example.com", "password": "wrong"},
	} {
		rec := httptest.NewRecorder()
		f.handler.LoginHandler(rec, jsonRequest(t, http.MethodPost, "/api/auth/login", body))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid credentials", decodeBody(t, rec)["error"])
	}
}

func TestLoginFailsWithoutConfiguredSecret(t *testing.T) {
	f := newHandlerFixture(t)
	f.registerAndLogin(t, "Dana", "dana@example.com", "hunter2!")
	f.cfg.JWTSecret = ""

	rec := httptest.NewRecorder()
	f.handler.LoginHandler(rec, jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "dana@example.com", "password": "hunter2!",
	}))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "JWT_SECRET is missing in .env", decodeBody(t, rec)["error"])
}

func TestMeReturnsAuthenticatedProfile(t *testing.T) {
	f := newHandlerFixture(t)
	token := f.registerAndLogin(t, "Dana", "dana@example.com", "hunter2!")

	rec := f.do(t, f.handler.MeHandler, httptest.NewRequest(http.MethodGet, "/api/me", nil), token)

	require.Equal(t, http.StatusOK, rec.Code)
	user, ok := decodeBody(t, rec)["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "dana@example.com", user["email"])
}

func TestAuthMiddlewareRejections(t *testing.T) {
	f := newHandlerFixture(t)

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"missing header", "", "Missing Authorization header"},
		{"not bearer", "Token abc", "Invalid Authorization format"},
		{"bare token", "abc", "Invalid Authorization format"},
		{"garbage token", "Bearer not.a.token", "Invalid or expired token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			f.handler.AuthMiddleware(f.handler.MeHandler)(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tt.want, decodeBody(t, rec)["error"])
		})
	}
}

func TestAuthMiddlewareRejectsTokenFromOtherSecret(t *testing.T) {
	f := newHandlerFixture(t)
	token := f.registerAndLogin(t, "Dana", "dana@example.com", "hunter2!")

	f.cfg.JWTSecret = "rotated-secret"
	rec := f.do(t, f.handler.MeHandler, httptest.NewRequest(http.MethodGet, "/api/me", nil), token)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid or expired token", decodeBody(t, rec)["error"])
}
