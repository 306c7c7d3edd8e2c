// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/chargeshare/chargeshare/pkg/errutil"
)

// Principal is the trusted result of authenticating a request.
type Principal struct {
	Identity *Identity
	Session  *Session
}

// SessionMetrics receives session lifecycle counts.
type SessionMetrics interface {
	SessionCreated()
	SessionsSwept(n int64)
}

type noopSessionMetrics struct{}

func (noopSessionMetrics) SessionCreated()     {}
func (noopSessionMetrics) SessionsSwept(int64) {}

// SessionStore issues, validates and revokes sessions.
type SessionStore struct {
	sessions   SessionRepository
	identities IdentityRepository
	codec      *TokenCodec
	now        func() time.Time
	logger     *slog.Logger
	metrics    SessionMetrics
}

// StoreOption configures a SessionStore.
type StoreOption func(*SessionStore)

// WithStoreClock overrides the clock used for liveness checks.
func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *SessionStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithStoreLogger sets the logger.
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *SessionStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStoreMetrics sets the metrics sink.
func WithStoreMetrics(m SessionMetrics) StoreOption {
	return func(s *SessionStore) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewSessionStore creates a SessionStore.
func NewSessionStore(sessions SessionRepository, identities IdentityRepository, codec *TokenCodec, opts ...StoreOption) (*SessionStore, error) {
	if sessions == nil {
		return nil, oops.Errorf("sessions repository is required")
	}
	if identities == nil {
		return nil, oops.Errorf("identities repository is required")
	}
	if codec == nil {
		return nil, oops.Errorf("token codec is required")
	}
	s := &SessionStore{
		sessions:   sessions,
		identities: identities,
		codec:      codec,
		now:        time.Now,
		logger:     slog.Default(),
		metrics:    noopSessionMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create starts a new session for identityID and returns its token.
// On any failure no token is returned.
func (s *SessionStore) Create(ctx context.Context, identityID ulid.ULID, device Device) (string, *Session, error) {
	nonce := NewSessionNonce()
	token, claims, err := s.codec.Issue(identityID, nonce, SessionTTL)
	if err != nil {
		return "", nil, oops.Code(CodePersistence).
			With("identity_id", identityID.String()).
			With("operation", "issue token").
			Wrapf(ErrPersistence, "issue token: %v", err)
	}

	session, err := NewSession(identityID, nonce, HashToken(token), device, claims.ExpiresAt, s.now())
	if err != nil {
		return "", nil, err
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return "", nil, persistenceError(err, "create session", "identity_id", identityID.String())
	}

	s.metrics.SessionCreated()
	return token, session, nil
}

// Validate resolves a token to its principal.
//
// The token must verify and a live stored session must match it exactly.
// Auth failures wrap ErrTokenInvalid, ErrTokenExpired or ErrSessionNotFound;
// store outages wrap ErrPersistence.
func (s *SessionStore) Validate(ctx context.Context, token string) (*Principal, error) {
	claims, err := s.codec.Verify(token)
	if err != nil {
		return nil, err
	}

	now := s.now()
	session, err := s.sessions.GetLiveByTokenHash(ctx, HashToken(token), now)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, sessionNotFound("no live session for token")
		}
		return nil, persistenceError(err, "get session by token hash")
	}

	if !session.IsLiveAt(now) ||
		session.IdentityID != claims.IdentityID ||
		!session.MatchesNonce(claims.Nonce) {
		return nil, sessionNotFound("session does not match token")
	}

	identity, err := s.identities.GetByID(ctx, session.IdentityID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, sessionNotFound("identity no longer exists")
		}
		return nil, persistenceError(err, "get identity", "identity_id", session.IdentityID.String())
	}

	if err := s.sessions.Touch(ctx, session.ID, now); err != nil {
		errutil.Log(ctx, s.logger, slog.LevelWarn, "failed to touch session", err,
			"session_id", session.ID.String())
	} else {
		session.LastAccessedAt = now
	}

	return &Principal{Identity: identity, Session: session}, nil
}

// Destroy revokes the session for token. Destroying an unknown or already
// destroyed session is not an error.
func (s *SessionStore) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.DeleteByTokenHash(ctx, HashToken(token)); err != nil {
		return persistenceError(err, "delete session")
	}
	return nil
}

// DestroyAll revokes every session of identityID.
func (s *SessionStore) DestroyAll(ctx context.Context, identityID ulid.ULID) error {
	if err := s.sessions.DeleteByIdentity(ctx, identityID); err != nil {
		return persistenceError(err, "delete identity sessions", "identity_id", identityID.String())
	}
	return nil
}

// SweepExpired deletes sessions that expired before now and returns how many were removed.
func (s *SessionStore) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx, now)
	if err != nil {
		return 0, persistenceError(err, "delete expired sessions")
	}
	s.metrics.SessionsSwept(n)
	return n, nil
}

// ListSessions returns the live sessions of identityID.
func (s *SessionStore) ListSessions(ctx context.Context, identityID ulid.ULID) ([]*Session, error) {
	sessions, err := s.sessions.ListByIdentity(ctx, identityID, s.now())
	if err != nil {
		return nil, persistenceError(err, "list sessions", "identity_id", identityID.String())
	}
	return sessions, nil
}

func sessionNotFound(reason string) error {
	return oops.Code(CodeSessionNotFound).
		With("reason", reason).
		Wrap(ErrSessionNotFound)
}

// persistenceError keeps the repository error visible in the message and
// context while classifying it as ErrPersistence.
func persistenceError(err error, operation string, kv ...any) error {
	b := oops.Code(CodePersistence).With("operation", operation)
	if len(kv) > 0 {
		b = b.With(kv...)
	}
	return b.With("cause", err.Error()).Wrapf(ErrPersistence, "%s: %v", operation, err)
}
