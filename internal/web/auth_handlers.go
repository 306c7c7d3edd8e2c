// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package web

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"

	"github.com/samber/oops"

	"github.com/chargeshare/chargeshare/internal/auth"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 64 << 10

// AuthHandlers serves the account endpoints.
type AuthHandlers struct {
	service *auth.Service
	gate    *Gate
	cookies *auth.CookieSealer
	logger  *slog.Logger
}

// NewAuthHandlers creates AuthHandlers.
func NewAuthHandlers(service *auth.Service, gate *Gate, cookies *auth.CookieSealer, logger *slog.Logger) *AuthHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandlers{service: service, gate: gate, cookies: cookies, logger: logger}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return oops.Code("REQUEST_BODY_INVALID").With("cause", err.Error()).Wrap(errBadRequest)
	}
	return nil
}

func deviceFrom(r *http.Request) auth.Device {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return auth.Device{UserAgent: r.UserAgent(), IPAddress: ip}
}

func (h *AuthHandlers) startSession(w http.ResponseWriter, r *http.Request, status int, identity *auth.Identity, token string) {
	cookie, err := h.cookies.SessionCookie(token)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	http.SetCookie(w, cookie)
	writeJSON(w, status, AuthResponse{Identity: identityView(identity), Token: token})
}

// Register handles POST /api/auth/register.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	identity, token, err := h.service.Register(r.Context(), auth.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     role,
	}, deviceFrom(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.startSession(w, r, http.StatusCreated, identity, token)
}

// Login handles POST /api/auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	identity, token, err := h.service.Login(r.Context(), req.Email, req.Password, deviceFrom(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.startSession(w, r, http.StatusOK, identity, token)
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request, _ *auth.Principal) {
	token, err := h.gate.credential(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.service.Logout(r.Context(), token); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	http.SetCookie(w, h.cookies.ClearCookie())
	w.WriteHeader(http.StatusNoContent)
}

// LogoutAll handles POST /api/auth/logout-all.
func (h *AuthHandlers) LogoutAll(w http.ResponseWriter, r *http.Request, p *auth.Principal) {
	if err := h.service.LogoutAll(r.Context(), p.Identity.ID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	http.SetCookie(w, h.cookies.ClearCookie())
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/auth/me.
func (h *AuthHandlers) Me(w http.ResponseWriter, _ *http.Request, p *auth.Principal) {
	writeJSON(w, http.StatusOK, identityView(p.Identity))
}

// Sessions handles GET /api/auth/sessions.
func (h *AuthHandlers) Sessions(w http.ResponseWriter, r *http.Request, p *auth.Principal) {
	sessions, err := h.service.Sessions(r.Context(), p.Identity.ID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionViews(sessions, p.Session))
}
