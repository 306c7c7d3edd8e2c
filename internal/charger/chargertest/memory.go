// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

// Package chargertest provides an in-memory charger repository for tests.
package chargertest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/chargeshare/chargeshare/internal/charger"
)

// MemoryRepository is a concurrency-safe charger.Repository.
type MemoryRepository struct {
	mu       sync.Mutex
	chargers map[ulid.ULID]charger.Charger
	err      error
}

var _ charger.Repository = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{chargers: make(map[ulid.ULID]charger.Charger)}
}

// FailWith makes every call return err until reset with nil.
func (m *MemoryRepository) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Len returns the number of stored chargers.
func (m *MemoryRepository) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.chargers)
}

func notFound(id ulid.ULID) error {
	return oops.Code("CHARGER_NOT_FOUND").With("id", id.String()).Wrap(charger.ErrNotFound)
}

// Create implements charger.Repository.
func (m *MemoryRepository) Create(_ context.Context, c *charger.Charger) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.chargers[c.ID] = *c
	return nil
}

// GetByID implements charger.Repository.
func (m *MemoryRepository) GetByID(_ context.Context, id ulid.ULID) (*charger.Charger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.chargers[id]
	if !ok {
		return nil, notFound(id)
	}
	return &c, nil
}

// List implements charger.Repository.
func (m *MemoryRepository) List(_ context.Context, filter charger.ListFilter) ([]*charger.Charger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]*charger.Charger, 0, len(m.chargers))
	for _, c := range m.chargers {
		if filter.Matches(&c) {
			cp := c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.Compare(out[j].ID) > 0
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// SetAvailability implements charger.Repository.
func (m *MemoryRepository) SetAvailability(_ context.Context, id ulid.ULID, available bool, at time.Time) (*charger.Charger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.chargers[id]
	if !ok {
		return nil, notFound(id)
	}
	c.Available = available
	c.UpdatedAt = at
	m.chargers[id] = c
	return &c, nil
}

// Delete implements charger.Repository.
func (m *MemoryRepository) Delete(_ context.Context, id ulid.ULID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.chargers[id]; !ok {
		return notFound(id)
	}
	delete(m.chargers, id)
	return nil
}
