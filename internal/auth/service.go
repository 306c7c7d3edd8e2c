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

// RegisterInput holds the fields supplied when creating an account.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Role     Role
}

// Service provides account operations on top of the SessionStore.
type Service struct {
	identities IdentityRepository
	sessions   *SessionStore
	hasher     PasswordHasher
	now        func() time.Time
	logger     *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceClock overrides the clock used for lockout decisions.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithServiceLogger sets the logger.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a new Service.
func NewService(identities IdentityRepository, sessions *SessionStore, hasher PasswordHasher, opts ...ServiceOption) (*Service, error) {
	if identities == nil {
		return nil, oops.Errorf("identities repository is required")
	}
	if sessions == nil {
		return nil, oops.Errorf("session store is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	s := &Service{
		identities: identities,
		sessions:   sessions,
		hasher:     hasher,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// dummyPasswordHash is used when an identity doesn't exist to prevent timing attacks.
// We still run password verification to make response time consistent.
// This is NOT a real credential - it's a fake hash that will never match any password.
//
//nolint:gosec // G101: This is an intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Register creates an identity and logs it in.
func (s *Service) Register(ctx context.Context, in RegisterInput, device Device) (*Identity, string, error) {
	if err := ValidatePassword(in.Password); err != nil {
		return nil, "", err
	}
	role, err := ParseRole(string(in.Role))
	if err != nil {
		return nil, "", err
	}
	email := NormalizeEmail(in.Email)
	if err := ValidateEmail(email); err != nil {
		return nil, "", err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, "", oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	identity, err := NewIdentity(email, hash, in.Name, role, s.now())
	if err != nil {
		return nil, "", err
	}

	if err := s.identities.Create(ctx, identity); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, "", err
		}
		return nil, "", oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create identity").
			Wrapf(ErrPersistence, "create identity: %v", err)
	}

	token, _, err := s.sessions.Create(ctx, identity.ID, device)
	if err != nil {
		return nil, "", err
	}

	s.logger.InfoContext(ctx, "identity registered",
		"identity_id", identity.ID.String(),
		"role", string(identity.Role))
	return identity, token, nil
}

// Login authenticates by email and password and starts a session.
// Uses constant-time operations to prevent timing-based email enumeration.
func (s *Service) Login(ctx context.Context, email, password string, device Device) (*Identity, string, error) {
	identity, lookupErr := s.identities.GetByEmail(ctx, NormalizeEmail(email))

	// Determine which hash to verify against (real or dummy for timing attack prevention)
	targetHash := dummyPasswordHash
	exists := false
	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return nil, "", oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "get identity by email").
				Wrapf(ErrPersistence, "get identity by email: %v", lookupErr)
		}
	} else {
		targetHash = identity.PasswordHash
		exists = true
	}

	// Always verify password (constant-time operation for timing attack prevention)
	valid := s.hasher.Verify(password, targetHash)
	now := s.now()

	if !exists || !valid {
		if exists {
			s.recordFailure(ctx, identity.ID, now)
		}
		return nil, "", oops.Code(CodeInvalidCredentials).Wrap(ErrInvalidCredentials)
	}

	// Check lockout AFTER password verification to maintain constant time
	if identity.IsLocked(now) {
		return nil, "", oops.Code(CodeAccountLocked).
			With("locked_until", identity.LockedUntil).
			Wrap(newLockedError(*identity.LockedUntil, now))
	}

	identity.RecordSuccess(now)
	if s.hasher.NeedsUpgrade(identity.PasswordHash) {
		if newHash, err := s.hasher.Hash(password); err == nil {
			identity.PasswordHash = newHash
		}
	}
	s.bestEffortUpdate(ctx, identity, "record login success")

	token, _, err := s.sessions.Create(ctx, identity.ID, device)
	if err != nil {
		return nil, "", err
	}
	return identity, token, nil
}

// Logout destroys the session identified by token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Destroy(ctx, token)
}

// LogoutAll destroys every session of an identity.
func (s *Service) LogoutAll(ctx context.Context, identityID ulid.ULID) error {
	return s.sessions.DestroyAll(ctx, identityID)
}

// Sessions lists the live sessions of an identity.
func (s *Service) Sessions(ctx context.Context, identityID ulid.ULID) ([]*Session, error) {
	return s.sessions.ListSessions(ctx, identityID)
}

// recordFailure counts a failed login in the repository rather than on the
// loaded identity, so concurrent failures are never lost.
func (s *Service) recordFailure(ctx context.Context, id ulid.ULID, now time.Time) {
	if _, _, err := s.identities.RecordFailure(ctx, id, now); err != nil {
		errutil.Log(ctx, s.logger, slog.LevelWarn, "failed to update identity", err,
			"identity_id", id.String(),
			"operation", "record login failure")
	}
}

// bestEffortUpdate persists identity changes; login proceeds regardless.
func (s *Service) bestEffortUpdate(ctx context.Context, identity *Identity, operation string) {
	if err := s.identities.Update(ctx, identity); err != nil {
		errutil.Log(ctx, s.logger, slog.LevelWarn, "failed to update identity", err,
			"identity_id", identity.ID.String(),
			"operation", operation)
	}
}
