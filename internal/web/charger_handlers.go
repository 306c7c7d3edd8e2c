// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package web

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/chargeshare/chargeshare/internal/access"
	"github.com/chargeshare/chargeshare/internal/auth"
	"github.com/chargeshare/chargeshare/internal/broadcast"
	"github.com/chargeshare/chargeshare/internal/charger"
)

var isChargerNotFound = access.MatchNotFound(charger.ErrNotFound)

// ChargerHandlers serves the charger endpoints and announces changes.
type ChargerHandlers struct {
	repo      charger.Repository
	publisher broadcast.Publisher
	now       func() time.Time
	logger    *slog.Logger
}

// NewChargerHandlers creates ChargerHandlers. A nil now uses time.Now.
func NewChargerHandlers(repo charger.Repository, publisher broadcast.Publisher, now func() time.Time, logger *slog.Logger) *ChargerHandlers {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChargerHandlers{repo: repo, publisher: publisher, now: now, logger: logger}
}

type availabilityRequest struct {
	Available *bool `json:"available"`
}

// List handles GET /api/chargers.
func (h *ChargerHandlers) List(w http.ResponseWriter, r *http.Request) {
	filter := charger.ListFilter{}
	if v := r.URL.Query().Get("available"); v != "" {
		available, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, r, h.logger, oops.Code("QUERY_INVALID").With("available", v).Wrap(errBadRequest))
			return
		}
		filter.AvailableOnly = available
	}
	if v := r.URL.Query().Get("host_id"); v != "" {
		hostID, err := ulid.Parse(v)
		if err != nil {
			writeError(w, r, h.logger, oops.Code("QUERY_INVALID").With("host_id", v).Wrap(errBadRequest))
			return
		}
		filter.HostID = hostID
	}

	chargers, err := h.repo.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, chargers)
}

// Create handles POST /api/chargers. Only hosts may list chargers.
func (h *ChargerHandlers) Create(w http.ResponseWriter, r *http.Request, p *auth.Principal) {
	if p.Identity.Role != auth.RoleHost {
		writeError(w, r, h.logger, oops.Code("HOST_ROLE_REQUIRED").
			With("identity_id", p.Identity.ID.String()).
			With("role", string(p.Identity.Role)).
			Wrap(errHostRoleRequired))
		return
	}

	var in charger.Input
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	now := h.now()
	c, err := charger.New(p.Identity.ID, in, now)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.repo.Create(r.Context(), c); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.publisher.Publish(r.Context(), broadcast.TopicResourceUpdates,
		broadcast.ResourceAdded(c.ID, c.HostID, c, now))
	writeJSON(w, http.StatusCreated, c)
}

// SetAvailability handles PATCH /api/chargers/{id}/availability. It runs
// behind Owned, which has already attached the charger.
func (h *ChargerHandlers) SetAvailability(w http.ResponseWriter, r *http.Request, _ *auth.Principal) {
	c, ok := h.ownedCharger(w, r)
	if !ok {
		return
	}

	var req availabilityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if req.Available == nil {
		writeError(w, r, h.logger, &charger.ValidationError{Field: "available", Message: "is required"})
		return
	}

	now := h.now()
	updated, err := h.repo.SetAvailability(r.Context(), c.ID, *req.Available, now)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.publisher.Publish(r.Context(), broadcast.TopicResourceUpdates,
		broadcast.ResourceAvailabilityChanged(updated.ID, updated.Available, updated.HostID, now))
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/chargers/{id}. It runs behind Owned.
func (h *ChargerHandlers) Delete(w http.ResponseWriter, r *http.Request, _ *auth.Principal) {
	c, ok := h.ownedCharger(w, r)
	if !ok {
		return
	}
	if err := h.repo.Delete(r.Context(), c.ID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.publisher.Publish(r.Context(), broadcast.TopicResourceUpdates,
		broadcast.ResourceRemoved(c.ID, c.HostID, h.now()))
	w.WriteHeader(http.StatusNoContent)
}

// Owned resolves {id}, runs the ownership gate and hands next a request whose
// context carries the charger. Failures are answered here.
func (h *ChargerHandlers) Owned(next ProtectedHandlerFunc) ProtectedHandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, p *auth.Principal) {
		raw := chi.URLParam(r, "id")
		id, err := ulid.Parse(raw)
		if err != nil {
			writeError(w, r, h.logger, oops.Code(access.CodeResourceNotFound).
				With("resource_id", raw).
				Wrap(access.ErrResourceNotFound))
			return
		}

		c, err := access.RequireOwner[*charger.Charger](r.Context(), h.repo, isChargerNotFound, p.Identity.ID, id)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		next(w, r.WithContext(access.WithResource(r.Context(), c)), p)
	}
}

// ownedCharger returns the charger attached by Owned.
func (h *ChargerHandlers) ownedCharger(w http.ResponseWriter, r *http.Request) (*charger.Charger, bool) {
	c, ok := access.ResourceFrom[*charger.Charger](r.Context())
	if !ok {
		writeError(w, r, h.logger, oops.Errorf("%s %s reached without the ownership gate", r.Method, r.URL.Path))
		return nil, false
	}
	return c, true
}
