// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package auth

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Input constraints.
const (
	MaxEmailLength    = 254
	MaxNameLength     = 100
	MaxPasswordLength = 1024
)

// Role is the marketplace role of an identity.
type Role string

// Roles.
const (
	RoleDriver    Role = "driver"
	RoleHost      Role = "host"
	RolePassenger Role = "passenger"
)

// ParseRole converts a string into a Role. Empty input yields RoleDriver.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case "", RoleDriver:
		return RoleDriver, nil
	case RoleHost:
		return RoleHost, nil
	case RolePassenger:
		return RolePassenger, nil
	default:
		return "", oops.Code("AUTH_INVALID_ROLE").
			With("role", s).
			Wrapf(ErrInvalidInput, "unknown role %q", s)
	}
}

// Identity is an authenticated principal of the marketplace.
type Identity struct {
	ID                 ulid.ULID
	Email              string
	PasswordHash       string
	Name               string
	Role               Role
	Verified           bool
	WalletBalanceCents int64
	CarbonCredits      int64
	FailedAttempts     int
	LockedUntil        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewIdentity creates a validated Identity. The email is normalized.
func NewIdentity(email, passwordHash, name string, role Role, now time.Time) (*Identity, error) {
	normalized := NormalizeEmail(email)
	if err := ValidateEmail(normalized); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("password hash cannot be empty")
	}
	name = strings.TrimSpace(name)
	if len(name) > MaxNameLength {
		return nil, oops.Code("AUTH_INVALID_NAME").
			With("max", MaxNameLength).
			Wrapf(ErrInvalidInput, "name must be at most %d characters", MaxNameLength)
	}
	if _, err := ParseRole(string(role)); err != nil {
		return nil, err
	}
	if role == "" {
		role = RoleDriver
	}

	return &Identity{
		ID:           ulid.Make(),
		Email:        normalized,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// IsLocked returns true if the identity is locked out at now.
func (i *Identity) IsLocked(now time.Time) bool {
	return IsLockedOut(i.LockedUntil, now)
}

// RecordFailure increments the failure counter and sets lockout if threshold reached.
func (i *Identity) RecordFailure(now time.Time) {
	i.FailedAttempts++
	i.LockedUntil = ComputeLockoutTime(i.FailedAttempts, now)
	i.UpdatedAt = now
}

// RecordSuccess resets failure counter and lockout.
func (i *Identity) RecordSuccess(now time.Time) {
	i.FailedAttempts = 0
	i.LockedUntil = nil
	i.UpdatedAt = now
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks that email is a bare address such as "a@x.com".
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("AUTH_INVALID_EMAIL").Wrapf(ErrInvalidInput, "email cannot be empty")
	}
	if len(email) > MaxEmailLength {
		return oops.Code("AUTH_INVALID_EMAIL").
			With("max", MaxEmailLength).
			Wrapf(ErrInvalidInput, "email must be at most %d characters", MaxEmailLength)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return oops.Code("AUTH_INVALID_EMAIL").Wrapf(ErrInvalidInput, "email is not a valid address")
	}
	return nil
}

// ValidatePassword checks password length bounds.
func ValidatePassword(password string) error {
	if password == "" {
		return oops.Code("AUTH_INVALID_PASSWORD").Wrapf(ErrInvalidInput, "password cannot be empty")
	}
	if len(password) > MaxPasswordLength {
		return oops.Code("AUTH_INVALID_PASSWORD").
			With("max", MaxPasswordLength).
			Wrapf(ErrInvalidInput, "password must be at most %d characters", MaxPasswordLength)
	}
	return nil
}

// IdentityRepository manages identity persistence.
type IdentityRepository interface {
	// Create stores a new identity. Returns ErrEmailTaken if the email is in use.
	Create(ctx context.Context, identity *Identity) error

	// GetByID retrieves an identity by ID. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id ulid.ULID) (*Identity, error)

	// GetByEmail retrieves an identity by email (case-insensitive).
	// Returns ErrNotFound if no identity has the given email.
	GetByEmail(ctx context.Context, email string) (*Identity, error)

	// Update updates an existing identity.
	Update(ctx context.Context, identity *Identity) error

	// RecordFailure atomically increments the failed login counter of an
	// identity and applies the lockout once LockoutThreshold is reached.
	// Returns ErrNotFound if the identity does not exist.
	RecordFailure(ctx context.Context, id ulid.ULID, now time.Time) (failedAttempts int, lockedUntil *time.Time, err error)
}
