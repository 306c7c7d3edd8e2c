// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// SessionTTL is the fixed lifetime of a session from creation.
// Touching a session does not extend it.
const SessionTTL = 24 * time.Hour

// Device describes the client a session was created from.
type Device struct {
	UserAgent string
	IPAddress string
}

// Session is a server-side record of an authenticated login.
type Session struct {
	ID             ulid.ULID
	IdentityID     ulid.ULID
	Nonce          string
	TokenHash      string
	UserAgent      string
	IPAddress      string
	ExpiresAt      time.Time
	LastAccessedAt time.Time
	CreatedAt      time.Time
}

// NewSession creates a validated Session instance.
// UserAgent and IPAddress are optional and may be empty.
func NewSession(identityID ulid.ULID, nonce, tokenHash string, device Device, expiresAt, now time.Time) (*Session, error) {
	if identityID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("SESSION_INVALID_IDENTITY").Errorf("identity ID cannot be zero")
	}
	if nonce == "" {
		return nil, oops.Code("SESSION_INVALID_NONCE").Errorf("session nonce cannot be empty")
	}
	if tokenHash == "" {
		return nil, oops.Code("SESSION_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if expiresAt.IsZero() {
		return nil, oops.Code("SESSION_INVALID_EXPIRY").Errorf("expiry time cannot be zero")
	}
	if !expiresAt.After(now) {
		return nil, oops.Code("SESSION_INVALID_EXPIRY").
			With("expires_at", expiresAt).
			Errorf("expiry must be after creation time")
	}

	return &Session{
		ID:             ulid.Make(),
		IdentityID:     identityID,
		Nonce:          nonce,
		TokenHash:      tokenHash,
		UserAgent:      device.UserAgent,
		IPAddress:      device.IPAddress,
		ExpiresAt:      expiresAt,
		LastAccessedAt: now,
		CreatedAt:      now,
	}, nil
}

// IsLiveAt reports whether the session is still usable at t.
// A session is dead from the instant of its expiry.
func (s *Session) IsLiveAt(t time.Time) bool {
	return t.Before(s.ExpiresAt)
}

// MatchesNonce compares the stored nonce against a token's nonce in constant time.
func (s *Session) MatchesNonce(nonce string) bool {
	return subtle.ConstantTimeCompare([]byte(s.Nonce), []byte(nonce)) == 1
}

// NewSessionNonce returns a fresh random session nonce.
func NewSessionNonce() string {
	return uuid.NewString()
}

// HashToken computes the SHA-256 hash of a session token.
// Only the hash is persisted.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// SessionRepository manages session persistence.
type SessionRepository interface {
	// Create persists a new session.
	Create(ctx context.Context, session *Session) error

	// GetLiveByTokenHash returns the session whose token hash matches and whose
	// expiry is after now. Returns ErrNotFound if there is none.
	GetLiveByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*Session, error)

	// Touch records the last access time of a session.
	Touch(ctx context.Context, id ulid.ULID, at time.Time) error

	// DeleteByTokenHash removes the session with the given token hash.
	// Deleting a missing session is not an error.
	DeleteByTokenHash(ctx context.Context, tokenHash string) error

	// DeleteByIdentity removes every session of an identity.
	DeleteByIdentity(ctx context.Context, identityID ulid.ULID) error

	// DeleteExpired removes sessions whose expiry is before now and returns the count.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	// ListByIdentity returns the live sessions of an identity, newest first.
	ListByIdentity(ctx context.Context, identityID ulid.ULID, now time.Time) ([]*Session, error)
}
