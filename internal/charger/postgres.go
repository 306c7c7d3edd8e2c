// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package charger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/chargeshare/chargeshare/internal/store"
)

const chargerColumns = `id, host_id, title, address, latitude, longitude, power_kw,
	price_per_hour_cents, connector_type, available, created_at, updated_at`

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db store.Querier
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db store.Querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists a new charger.
// Callers must validate the charger before calling this method.
func (r *PostgresRepository) Create(ctx context.Context, c *Charger) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO chargers (`+chargerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, c.ID.String(), c.HostID.String(), c.Title, c.Address, c.Latitude, c.Longitude, c.PowerKW,
		c.PricePerHourCents, c.ConnectorType, c.Available, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return oops.Code("CHARGER_CREATE_FAILED").With("operation", "create charger").With("id", c.ID.String()).Wrap(err)
	}
	return nil
}

// GetByID retrieves a charger by ID.
func (r *PostgresRepository) GetByID(ctx context.Context, id ulid.ULID) (*Charger, error) {
	row := r.db.QueryRow(ctx, `SELECT `+chargerColumns+` FROM chargers WHERE id = $1`, id.String())
	c, err := scanCharger(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("CHARGER_NOT_FOUND").With("id", id.String()).Wrap(ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("CHARGER_GET_FAILED").With("operation", "get charger").With("id", id.String()).Wrap(err)
	}
	return c, nil
}

// List returns chargers matching filter, newest first.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Charger, error) {
	var (
		where []string
		args  []any
	)
	if filter.AvailableOnly {
		where = append(where, "available")
	}
	if !filter.HostID.IsZero() {
		args = append(args, filter.HostID.String())
		where = append(where, "host_id = $1")
	}
	query := `SELECT ` + chargerColumns + ` FROM chargers`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, oops.Code("CHARGER_LIST_FAILED").With("operation", "list chargers").Wrap(err)
	}
	defer rows.Close()

	chargers := make([]*Charger, 0)
	for rows.Next() {
		c, err := scanCharger(rows)
		if err != nil {
			return nil, err
		}
		chargers = append(chargers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("CHARGER_ROWS_ERROR").With("operation", "iterate charger rows").Wrap(err)
	}
	return chargers, nil
}

// SetAvailability updates the availability flag.
func (r *PostgresRepository) SetAvailability(ctx context.Context, id ulid.ULID, available bool, at time.Time) (*Charger, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE chargers SET available = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+chargerColumns,
		id.String(), available, at)
	c, err := scanCharger(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("CHARGER_NOT_FOUND").With("id", id.String()).Wrap(ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("CHARGER_UPDATE_FAILED").With("operation", "set availability").With("id", id.String()).Wrap(err)
	}
	return c, nil
}

// Delete removes a charger by ID.
func (r *PostgresRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM chargers WHERE id = $1`, id.String())
	if err != nil {
		return oops.Code("CHARGER_DELETE_FAILED").With("operation", "delete charger").With("id", id.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("CHARGER_NOT_FOUND").With("id", id.String()).Wrap(ErrNotFound)
	}
	return nil
}

func scanCharger(row pgx.Row) (*Charger, error) {
	var (
		idStr, hostStr string
		c              Charger
	)
	err := row.Scan(&idStr, &hostStr, &c.Title, &c.Address, &c.Latitude, &c.Longitude, &c.PowerKW,
		&c.PricePerHourCents, &c.ConnectorType, &c.Available, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // callers wrap with context-specific info
		}
		return nil, oops.Code("CHARGER_SCAN_FAILED").With("operation", "scan charger").Wrap(err)
	}
	if c.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.Code("CHARGER_INVALID_ID").With("id", idStr).Wrap(err)
	}
	if c.HostID, err = ulid.Parse(hostStr); err != nil {
		return nil, oops.Code("CHARGER_INVALID_HOST_ID").With("host_id", hostStr).Wrap(err)
	}
	return &c, nil
}
