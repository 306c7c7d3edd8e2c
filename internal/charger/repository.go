// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package charger

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// ListFilter narrows List results. Zero values match everything.
type ListFilter struct {
	AvailableOnly bool
	HostID        ulid.ULID
}

// Matches reports whether c passes the filter.
func (f ListFilter) Matches(c *Charger) bool {
	if f.AvailableOnly && !c.Available {
		return false
	}
	if !f.HostID.IsZero() && c.HostID != f.HostID {
		return false
	}
	return true
}

// Repository persists chargers.
type Repository interface {
	Create(ctx context.Context, c *Charger) error
	GetByID(ctx context.Context, id ulid.ULID) (*Charger, error)
	List(ctx context.Context, filter ListFilter) ([]*Charger, error)
	// SetAvailability updates the flag and returns the updated charger.
	SetAvailability(ctx context.Context, id ulid.ULID, available bool, at time.Time) (*Charger, error)
	Delete(ctx context.Context, id ulid.ULID) error
}
