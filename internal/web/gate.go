// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/samber/oops"

	"github.com/chargeshare/chargeshare/internal/auth"
	"github.com/chargeshare/chargeshare/internal/logging"
	"github.com/chargeshare/chargeshare/pkg/errutil"
)

// SessionValidator resolves a raw token into a principal.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (*auth.Principal, error)
}

// RejectionMetrics counts authentication rejections by internal cause.
type RejectionMetrics interface {
	AuthRejected(cause string)
}

type noopRejectionMetrics struct{}

func (noopRejectionMetrics) AuthRejected(string) {}

// ProtectedHandlerFunc handles a request that passed the gate.
type ProtectedHandlerFunc func(w http.ResponseWriter, r *http.Request, p *auth.Principal)

// Gate authenticates requests from the session cookie or a bearer token.
type Gate struct {
	sessions SessionValidator
	cookies  *auth.CookieSealer
	logger   *slog.Logger
	metrics  RejectionMetrics
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithGateLogger sets the logger.
func WithGateLogger(l *slog.Logger) GateOption {
	return func(g *Gate) { g.logger = l }
}

// WithGateMetrics sets the rejection counter.
func WithGateMetrics(m RejectionMetrics) GateOption {
	return func(g *Gate) { g.metrics = m }
}

// NewGate creates a Gate.
func NewGate(sessions SessionValidator, cookies *auth.CookieSealer, opts ...GateOption) (*Gate, error) {
	if sessions == nil {
		return nil, oops.Errorf("session validator is required")
	}
	if cookies == nil {
		return nil, oops.Errorf("cookie sealer is required")
	}
	g := &Gate{
		sessions: sessions,
		cookies:  cookies,
		logger:   slog.Default(),
		metrics:  noopRejectionMetrics{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// credential extracts the raw token. A present cookie wins over the header,
// and a cookie that fails to open is not retried with the header.
func (g *Gate) credential(r *http.Request) (string, error) {
	if c, err := r.Cookie(g.cookies.Name()); err == nil && c.Value != "" {
		return g.cookies.Open(c.Value)
	}
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return token, nil
	}
	return "", oops.Code(auth.CodeCredentialMissing).Wrap(auth.ErrUnauthenticated)
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Authenticate resolves the request's credential. Every authentication
// failure is returned as auth.ErrUnauthenticated with no trace of its cause;
// auth.ErrPersistence passes through so it can be reported as a server error.
func (g *Gate) Authenticate(r *http.Request) (*auth.Principal, error) {
	ctx := r.Context()

	token, err := g.credential(r)
	if err == nil {
		var p *auth.Principal
		p, err = g.sessions.Validate(ctx, token)
		if err == nil {
			return p, nil
		}
	}

	if errors.Is(err, auth.ErrPersistence) {
		return nil, err
	}
	if !auth.IsAuthFailure(err) {
		// Anything unexpected still fails closed.
		errutil.Log(ctx, g.logger, slog.LevelError, "unexpected authentication error", err)
		return nil, oops.Code(auth.CodePersistence).Wrapf(auth.ErrPersistence, "authenticate: %v", err)
	}

	cause := auth.Cause(err)
	g.metrics.AuthRejected(cause)
	errutil.Log(ctx, g.logger, slog.LevelDebug, "request rejected", err,
		"cause", cause, "path", r.URL.Path)
	return nil, oops.Code(auth.CodeUnauthenticated).Wrap(auth.ErrUnauthenticated)
}

// Protect wraps next so it only runs for authenticated requests.
func (g *Gate) Protect(next ProtectedHandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := g.Authenticate(r)
		if err != nil {
			writeError(w, r, g.logger, err)
			return
		}
		ctx := logging.WithAttrs(r.Context(),
			slog.String("identity_id", p.Identity.ID.String()),
			slog.String("session_id", p.Session.ID.String()),
		)
		next(w, r.WithContext(ctx), p)
	})
}
