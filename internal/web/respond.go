// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/samber/oops"

	"github.com/chargeshare/chargeshare/internal/access"
	"github.com/chargeshare/chargeshare/internal/auth"
	"github.com/chargeshare/chargeshare/internal/charger"
	"github.com/chargeshare/chargeshare/pkg/errutil"
)

// Client-facing error messages. Internal causes never reach the body.
const (
	msgUnauthenticated    = "unauthenticated"
	msgForbidden          = "forbidden"
	msgNotFound           = "not found"
	msgInvalidCredentials = "invalid email or password"
	msgEmailTaken         = "email already registered"
	msgAccountLocked      = "account temporarily locked"
	msgUnavailable        = "service unavailable"
	msgInternal           = "internal error"
	msgBadRequest         = "invalid request body"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	//nolint:errcheck // client may have disconnected
	json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors to HTTP status and a client-safe body.
func statusFor(err error) (int, ErrorBody) {
	var verr *charger.ValidationError
	switch {
	case errors.Is(err, auth.ErrPersistence), errors.Is(err, access.ErrLookupFailed):
		return http.StatusServiceUnavailable, ErrorBody{Error: msgUnavailable}
	case auth.IsAuthFailure(err):
		return http.StatusUnauthorized, ErrorBody{Error: msgUnauthenticated}
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrorBody{Error: msgInvalidCredentials}
	case errors.Is(err, access.ErrForbiddenOwnership), errors.Is(err, errHostRoleRequired):
		return http.StatusForbidden, ErrorBody{Error: msgForbidden}
	case errors.Is(err, access.ErrResourceNotFound), errors.Is(err, charger.ErrNotFound):
		return http.StatusNotFound, ErrorBody{Error: msgNotFound}
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict, ErrorBody{Error: msgEmailTaken}
	case errors.Is(err, auth.ErrAccountLocked):
		return http.StatusLocked, ErrorBody{Error: msgAccountLocked}
	case errors.As(err, &verr):
		return http.StatusBadRequest, ErrorBody{Error: verr.Message, Field: verr.Field}
	case errors.Is(err, auth.ErrInvalidInput), errors.Is(err, errBadRequest):
		return http.StatusBadRequest, ErrorBody{Error: badRequestMessage(err)}
	default:
		return http.StatusInternalServerError, ErrorBody{Error: msgInternal}
	}
}

var invalidInputMessages = map[string]string{
	"AUTH_INVALID_EMAIL":    "invalid email",
	"AUTH_INVALID_PASSWORD": "invalid password",
	"AUTH_INVALID_NAME":     "invalid name",
	"AUTH_INVALID_ROLE":     "invalid role",
}

func badRequestMessage(err error) string {
	if oopsErr, ok := oops.AsOops(err); ok {
		if code, ok := oopsErr.Code().(string); ok {
			if msg, known := invalidInputMessages[code]; known {
				return msg
			}
		}
	}
	return msgBadRequest
}

// writeError logs err with its oops context and writes the mapped response.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, body := statusFor(err)
	level := slog.LevelDebug
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	errutil.Log(r.Context(), logger, level, "request failed", err,
		"method", r.Method, "path", r.URL.Path, "status", status)
	if wait, ok := auth.RetryAfterSeconds(err); ok {
		w.Header().Set("Retry-After", strconv.Itoa(wait))
	}
	writeJSON(w, status, body)
}
