// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/chargeshare/chargeshare/internal/auth"
	"github.com/chargeshare/chargeshare/internal/store"
)

const identityColumns = `id, email, password_hash, name, role, verified, wallet_balance_cents,
	carbon_credits, failed_attempts, locked_until, created_at, updated_at`

// IdentityRepository implements auth.IdentityRepository using PostgreSQL.
type IdentityRepository struct {
	db store.Querier
}

var _ auth.IdentityRepository = (*IdentityRepository)(nil)

// NewIdentityRepository creates a new IdentityRepository.
func NewIdentityRepository(db store.Querier) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// Create stores a new identity.
func (r *IdentityRepository) Create(ctx context.Context, identity *auth.Identity) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO identities (`+identityColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		identity.ID.String(),
		identity.Email,
		identity.PasswordHash,
		identity.Name,
		string(identity.Role),
		identity.Verified,
		identity.WalletBalanceCents,
		identity.CarbonCredits,
		identity.FailedAttempts,
		identity.LockedUntil,
		identity.CreatedAt,
		identity.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code(auth.CodeEmailTaken).
				With("email", identity.Email).
				Wrap(auth.ErrEmailTaken)
		}
		return oops.Code("IDENTITY_CREATE_FAILED").
			With("operation", "insert identity").
			Wrap(err)
	}
	return nil
}

// GetByID retrieves an identity by ID.
func (r *IdentityRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.Identity, error) {
	row := r.db.QueryRow(ctx, `SELECT `+identityColumns+` FROM identities WHERE id = $1`, id.String())
	identity, err := scanIdentity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("IDENTITY_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("IDENTITY_GET_FAILED").
			With("operation", "get identity by id").
			With("id", id.String()).
			Wrap(err)
	}
	return identity, nil
}

// GetByEmail retrieves an identity by email (case-insensitive).
func (r *IdentityRepository) GetByEmail(ctx context.Context, email string) (*auth.Identity, error) {
	row := r.db.QueryRow(ctx, `SELECT `+identityColumns+` FROM identities WHERE LOWER(email) = LOWER($1)`, email)
	identity, err := scanIdentity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("IDENTITY_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("IDENTITY_GET_FAILED").
			With("operation", "get identity by email").
			Wrap(err)
	}
	return identity, nil
}

// Update persists mutable identity fields.
func (r *IdentityRepository) Update(ctx context.Context, identity *auth.Identity) error {
	result, err := r.db.Exec(ctx, `
		UPDATE identities SET
			password_hash = $2,
			name = $3,
			role = $4,
			verified = $5,
			wallet_balance_cents = $6,
			carbon_credits = $7,
			failed_attempts = $8,
			locked_until = $9,
			updated_at = $10
		WHERE id = $1
	`,
		identity.ID.String(),
		identity.PasswordHash,
		identity.Name,
		string(identity.Role),
		identity.Verified,
		identity.WalletBalanceCents,
		identity.CarbonCredits,
		identity.FailedAttempts,
		identity.LockedUntil,
		identity.UpdatedAt,
	)
	if err != nil {
		return oops.Code("IDENTITY_UPDATE_FAILED").
			With("operation", "update identity").
			With("id", identity.ID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("IDENTITY_NOT_FOUND").With("id", identity.ID.String()).Wrap(auth.ErrNotFound)
	}
	return nil
}

// RecordFailure increments failed_attempts in a single statement so
// concurrent failed logins each count.
func (r *IdentityRepository) RecordFailure(ctx context.Context, id ulid.ULID, now time.Time) (int, *time.Time, error) {
	var (
		attempts    int
		lockedUntil *time.Time
	)
	err := r.db.QueryRow(ctx, `
		UPDATE identities SET
			failed_attempts = failed_attempts + 1,
			locked_until = CASE WHEN failed_attempts + 1 >= $3 THEN $4::timestamptz ELSE NULL END,
			updated_at = $2
		WHERE id = $1
		RETURNING failed_attempts, locked_until
	`, id.String(), now, auth.LockoutThreshold, now.Add(auth.LockoutDuration)).Scan(&attempts, &lockedUntil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil, oops.Code("IDENTITY_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
		}
		return 0, nil, oops.Code("IDENTITY_UPDATE_FAILED").
			With("operation", "record login failure").
			With("id", id.String()).
			Wrap(err)
	}
	return attempts, lockedUntil, nil
}

func scanIdentity(row pgx.Row) (*auth.Identity, error) {
	var (
		idStr, role string
		lockedUntil *time.Time
		i           auth.Identity
	)
	err := row.Scan(&idStr, &i.Email, &i.PasswordHash, &i.Name, &role, &i.Verified, &i.WalletBalanceCents,
		&i.CarbonCredits, &i.FailedAttempts, &lockedUntil, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // callers wrap with context-specific info
		}
		return nil, oops.Code("IDENTITY_SCAN_FAILED").With("operation", "scan identity").Wrap(err)
	}

	if i.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.Code("IDENTITY_INVALID_ID").With("id", idStr).Wrap(err)
	}
	i.Role = auth.Role(role)
	i.LockedUntil = lockedUntil
	return &i, nil
}
