// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package web

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chargeshare/chargeshare/internal/auth"
)

func TestRegister(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    "Ada@Example.com",
		"password": "correct horse",
		"name":     "Ada",
		"role":     "host",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decode[AuthResponse](t, rec)
	assert.Equal(t, "ada@example.com", resp.Identity.Email)
	assert.Equal(t, "host", resp.Identity.Role)
	assert.NotEmpty(t, resp.Token)
	assert.NotContains(t, rec.Body.String(), "password")

	cookie := sessionCookie(rec, auth.DefaultCookieName)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.NotEqual(t, resp.Token, cookie.Value, "cookie carries the sealed token")

	me := f.do(t, http.MethodGet, "/api/auth/me", nil, withCookie(cookie))
	require.Equal(t, http.StatusOK, me.Code)
	assert.Equal(t, resp.Identity.ID, decode[IdentityView](t, me).ID)
}

func TestRegister_Errors(t *testing.T) {
	f := newAPIFixture(t)
	f.Register(t, "taken@example.com", "correct horse", auth.RoleDriver)

	tests := []struct {
		name   string
		body   string
		status int
		error  string
	}{
		{name: "malformed json", body: `{"email":`, status: http.StatusBadRequest, error: "invalid request body"},
		{name: "unknown field", body: `{"email":"a@example.com","password":"x","admin":true}`, status: http.StatusBadRequest, error: "invalid request body"},
		{name: "bad email", body: `{"email":"nope","password":"correct horse"}`, status: http.StatusBadRequest, error: "invalid email"},
		{name: "empty password", body: `{"email":"a@example.com","password":""}`, status: http.StatusBadRequest, error: "invalid password"},
		{name: "unknown role", body: `{"email":"a@example.com","password":"correct horse","role":"admin"}`, status: http.StatusBadRequest, error: "invalid role"},
		{name: "duplicate email", body: `{"email":"TAKEN@example.com","password":"correct horse"}`, status: http.StatusConflict, error: "email already registered"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := strings.NewReader(tt.body)
			rec := f.doRaw(t, http.MethodPost, "/api/auth/register", req)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.error, decode[ErrorBody](t, rec).Error)
			assert.Nil(t, sessionCookie(rec, auth.DefaultCookieName))
		})
	}
}

func TestLogin(t *testing.T) {
	f := newAPIFixture(t)
	identity, _ := f.Register(t, "ada@example.com", "correct horse", auth.RoleDriver)

	rec := f.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "ada@example.com", "password": "correct horse",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[AuthResponse](t, rec)
	assert.Equal(t, identity.ID.String(), resp.Identity.ID)
	assert.NotNil(t, sessionCookie(rec, auth.DefaultCookieName))
}

func TestLogin_FailuresLookAlike(t *testing.T) {
	f := newAPIFixture(t)
	f.Register(t, "ada@example.com", "correct horse", auth.RoleDriver)

	wrongPassword := f.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "ada@example.com", "password": "wrong",
	})
	unknownEmail := f.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "nobody@example.com", "password": "wrong",
	})

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, wrongPassword.Code, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
}

func TestLogin_Lockout(t *testing.T) {
	f := newAPIFixture(t)
	f.Register(t, "ada@example.com", "correct horse", auth.RoleDriver)

	for range auth.LockoutThreshold {
		rec := f.do(t, http.MethodPost, "/api/auth/login", map[string]string{
			"email": "ada@example.com", "password": "wrong",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := f.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "ada@example.com", "password": "correct horse",
	})
	assert.Equal(t, http.StatusLocked, rec.Code)
	assert.Equal(t, "account temporarily locked", decode[ErrorBody](t, rec).Error)
	assert.Equal(t, "900", rec.Header().Get("Retry-After"))

	f.Clock.Advance(14 * time.Minute)
	rec = f.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "ada@example.com", "password": "correct horse",
	})
	assert.Equal(t, http.StatusLocked, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestLogout(t *testing.T) {
	f := newAPIFixture(t)
	_, token := f.Register(t, "ada@example.com", "correct horse", auth.RoleDriver)
	cookie, err := f.Cookies.SessionCookie(token)
	require.NoError(t, err)

	rec := f.do(t, http.MethodPost, "/api/auth/logout", nil, withCookie(cookie))
	require.Equal(t, http.StatusNoContent, rec.Code)
	cleared := sessionCookie(rec, auth.DefaultCookieName)
	require.NotNil(t, cleared)
	assert.Negative(t, cleared.MaxAge)

	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/api/auth/me", nil, withCookie(cookie)).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/api/auth/me", nil, withBearer(token)).Code)
}

func TestLogoutAll(t *testing.T) {
	f := newAPIFixture(t)
	_, first := f.Register(t, "ada@example.com", "correct horse", auth.RoleDriver)
	login := f.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "ada@example.com", "password": "correct horse",
	})
	second := decode[AuthResponse](t, login).Token
	_, bob := f.Register(t, "bob@example.com", "battery staple", auth.RoleDriver)

	rec := f.do(t, http.MethodPost, "/api/auth/logout-all", nil, withBearer(first))
	require.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/api/auth/me", nil, withBearer(first)).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/api/auth/me", nil, withBearer(second)).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/auth/me", nil, withBearer(bob)).Code)
}

func TestSessions(t *testing.T) {
	f := newAPIFixture(t)
	_, first := f.Register(t, "ada@example.com", "correct horse", auth.RoleDriver)
	f.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "ada@example.com", "password": "correct horse",
	})

	rec := f.do(t, http.MethodGet, "/api/auth/sessions", nil, withBearer(first))
	require.Equal(t, http.StatusOK, rec.Code)

	views := decode[[]SessionView](t, rec)
	require.Len(t, views, 2)
	current := 0
	for _, v := range views {
		if v.Current {
			current++
		}
	}
	assert.Equal(t, 1, current)
}

func TestSessions_PersistenceFailure(t *testing.T) {
	f := newAPIFixture(t)
	identity, _ := f.Register(t, "ada@example.com", "correct horse", auth.RoleDriver)

	handlers := NewAuthHandlers(f.Service, nil, f.Cookies, nil)
	f.Sessions.FailWith(errors.New("boom"))

	rec := newRecorder()
	handlers.Sessions(rec, newRequest(t, http.MethodGet, "/api/auth/sessions"), &auth.Principal{Identity: identity})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
