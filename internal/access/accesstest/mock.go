// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

// Package accesstest provides test helpers for ownership checks.
package accesstest

import (
	"context"
	"errors"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/chargeshare/chargeshare/internal/access"
)

// ErrMissing is returned by MapLookup for unknown IDs.
var ErrMissing = errors.New("accesstest: resource missing")

// Resource is a minimal owned resource.
type Resource struct {
	ID    ulid.ULID
	Owner ulid.ULID
}

// OwnerID implements access.Owned.
func (r Resource) OwnerID() ulid.ULID { return r.Owner }

// MapLookup is an OwnerLookup backed by a map.
type MapLookup struct {
	mu        sync.Mutex
	resources map[ulid.ULID]Resource
	err       error
	calls     int
}

// NewMapLookup creates a lookup holding the given resources.
func NewMapLookup(resources ...Resource) *MapLookup {
	m := &MapLookup{resources: make(map[ulid.ULID]Resource)}
	for _, r := range resources {
		m.resources[r.ID] = r
	}
	return m
}

// FailWith makes every lookup return err.
func (m *MapLookup) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many lookups ran.
func (m *MapLookup) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// GetByID implements access.OwnerLookup.
func (m *MapLookup) GetByID(_ context.Context, id ulid.ULID) (Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return Resource{}, m.err
	}
	r, ok := m.resources[id]
	if !ok {
		return Resource{}, ErrMissing
	}
	return r, nil
}

// IsMissing matches the not-found error returned by MapLookup.
var IsMissing = access.MatchNotFound(ErrMissing)

var _ access.OwnerLookup[Resource] = (*MapLookup)(nil)
