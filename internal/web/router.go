// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/samber/oops"

	"github.com/chargeshare/chargeshare/internal/auth"
	"github.com/chargeshare/chargeshare/internal/broadcast"
	"github.com/chargeshare/chargeshare/internal/charger"
)

// Deps holds everything the router needs.
type Deps struct {
	Service   *auth.Service
	Sessions  SessionValidator
	Cookies   *auth.CookieSealer
	Chargers  charger.Repository
	Publisher broadcast.Publisher
	// Broadcast serves /ws. Optional.
	Broadcast http.Handler

	Logger           *slog.Logger
	RequestMetrics   RequestMetrics
	RejectionMetrics RejectionMetrics
	Now              func() time.Time
}

// NewRouter builds the HTTP API.
func NewRouter(deps Deps) (http.Handler, error) {
	if deps.Service == nil {
		return nil, oops.Errorf("auth service is required")
	}
	if deps.Chargers == nil {
		return nil, oops.Errorf("charger repository is required")
	}
	if deps.Publisher == nil {
		return nil, oops.Errorf("publisher is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reqMetrics := deps.RequestMetrics
	if reqMetrics == nil {
		reqMetrics = noopRequestMetrics{}
	}

	gateOpts := []GateOption{WithGateLogger(logger)}
	if deps.RejectionMetrics != nil {
		gateOpts = append(gateOpts, WithGateMetrics(deps.RejectionMetrics))
	}
	gate, err := NewGate(deps.Sessions, deps.Cookies, gateOpts...)
	if err != nil {
		return nil, err
	}

	authH := NewAuthHandlers(deps.Service, gate, deps.Cookies, logger)
	chargerH := NewChargerHandlers(deps.Chargers, deps.Publisher, deps.Now, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(tracing())
	r.Use(requestLog(logger, reqMetrics))
	r.Use(middleware.Recoverer)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authH.Register)
		r.Post("/login", authH.Login)
		r.Method(http.MethodPost, "/logout", gate.Protect(authH.Logout))
		r.Method(http.MethodPost, "/logout-all", gate.Protect(authH.LogoutAll))
		r.Method(http.MethodGet, "/me", gate.Protect(authH.Me))
		r.Method(http.MethodGet, "/sessions", gate.Protect(authH.Sessions))
	})

	r.Route("/api/chargers", func(r chi.Router) {
		r.Get("/", chargerH.List)
		r.Method(http.MethodPost, "/", gate.Protect(chargerH.Create))
		r.Method(http.MethodPatch, "/{id}/availability", gate.Protect(chargerH.Owned(chargerH.SetAvailability)))
		r.Method(http.MethodDelete, "/{id}", gate.Protect(chargerH.Owned(chargerH.Delete)))
	})

	if deps.Broadcast != nil {
		r.Method(http.MethodGet, "/ws", deps.Broadcast)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, ErrorBody{Error: msgNotFound})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, ErrorBody{Error: "method not allowed"})
	})

	return r, nil
}
