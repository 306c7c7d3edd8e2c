// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package authtest

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/chargeshare/chargeshare/internal/auth"
)

// MemorySessionRepository is an in-memory auth.SessionRepository.
type MemorySessionRepository struct {
	mu       sync.Mutex
	sessions map[ulid.ULID]auth.Session
	err      error
	touchErr error
}

var _ auth.SessionRepository = (*MemorySessionRepository)(nil)

// NewMemorySessionRepository creates an empty repository.
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: make(map[ulid.ULID]auth.Session)}
}

// FailWith makes every operation return err. Pass nil to recover.
func (r *MemorySessionRepository) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// FailTouchWith makes Touch return err. Pass nil to recover.
func (r *MemorySessionRepository) FailTouchWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touchErr = err
}

// Len returns the number of stored sessions, expired or not.
func (r *MemorySessionRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Get returns a copy of the stored session.
func (r *MemorySessionRepository) Get(id ulid.ULID) (auth.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// SetExpiry overwrites the stored expiry of a session.
func (r *MemorySessionRepository) SetExpiry(id ulid.ULID, expiresAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.ExpiresAt = expiresAt
		r.sessions[id] = s
	}
}

// SetNonce overwrites the stored nonce of a session.
func (r *MemorySessionRepository) SetNonce(id ulid.ULID, nonce string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.Nonce = nonce
		r.sessions[id] = s
	}
}

func (r *MemorySessionRepository) Create(_ context.Context, session *auth.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	for _, s := range r.sessions {
		if s.TokenHash == session.TokenHash {
			return oops.Code("SESSION_CREATE_FAILED").Errorf("duplicate token hash")
		}
	}
	r.sessions[session.ID] = *session
	return nil
}

func (r *MemorySessionRepository) GetLiveByTokenHash(_ context.Context, tokenHash string, now time.Time) (*auth.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, s := range r.sessions {
		if s.TokenHash == tokenHash && s.IsLiveAt(now) {
			out := s
			return &out, nil
		}
	}
	return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
}

func (r *MemorySessionRepository) Touch(_ context.Context, id ulid.ULID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if r.touchErr != nil {
		return r.touchErr
	}
	if s, ok := r.sessions[id]; ok {
		s.LastAccessedAt = at
		r.sessions[id] = s
	}
	return nil
}

func (r *MemorySessionRepository) DeleteByTokenHash(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	for id, s := range r.sessions {
		if s.TokenHash == tokenHash {
			delete(r.sessions, id)
		}
	}
	return nil
}

func (r *MemorySessionRepository) DeleteByIdentity(_ context.Context, identityID ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	for id, s := range r.sessions {
		if s.IdentityID == identityID {
			delete(r.sessions, id)
		}
	}
	return nil
}

func (r *MemorySessionRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	var n int64
	for id, s := range r.sessions {
		if s.ExpiresAt.Before(now) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}

func (r *MemorySessionRepository) ListByIdentity(_ context.Context, identityID ulid.ULID, now time.Time) ([]*auth.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []*auth.Session
	for _, s := range r.sessions {
		if s.IdentityID == identityID && s.IsLiveAt(now) {
			cp := s
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *auth.Session) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID.String(), a.ID.String())
	})
	return out, nil
}

// MemoryIdentityRepository is an in-memory auth.IdentityRepository.
type MemoryIdentityRepository struct {
	mu         sync.Mutex
	identities map[ulid.ULID]auth.Identity
	err        error
	updateErr  error
}

var _ auth.IdentityRepository = (*MemoryIdentityRepository)(nil)

// NewMemoryIdentityRepository creates an empty repository.
func NewMemoryIdentityRepository() *MemoryIdentityRepository {
	return &MemoryIdentityRepository{identities: make(map[ulid.ULID]auth.Identity)}
}

// FailWith makes every operation return err. Pass nil to recover.
func (r *MemoryIdentityRepository) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// FailUpdateWith makes Update and RecordFailure return err. Pass nil to recover.
func (r *MemoryIdentityRepository) FailUpdateWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateErr = err
}

// Delete removes an identity.
func (r *MemoryIdentityRepository) Delete(id ulid.ULID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.identities, id)
}

func (r *MemoryIdentityRepository) Create(_ context.Context, identity *auth.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	for _, existing := range r.identities {
		if strings.EqualFold(existing.Email, identity.Email) {
			return oops.Code(auth.CodeEmailTaken).With("email", identity.Email).Wrap(auth.ErrEmailTaken)
		}
	}
	r.identities[identity.ID] = *identity
	return nil
}

func (r *MemoryIdentityRepository) RecordFailure(_ context.Context, id ulid.ULID, now time.Time) (int, *time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, nil, r.err
	}
	if r.updateErr != nil {
		return 0, nil, r.updateErr
	}
	identity, ok := r.identities[id]
	if !ok {
		return 0, nil, oops.Code("IDENTITY_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	identity.RecordFailure(now)
	r.identities[id] = identity
	return identity.FailedAttempts, identity.LockedUntil, nil
}

func (r *MemoryIdentityRepository) GetByID(_ context.Context, id ulid.ULID) (*auth.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	identity, ok := r.identities[id]
	if !ok {
		return nil, oops.Code("IDENTITY_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	return &identity, nil
}

func (r *MemoryIdentityRepository) GetByEmail(_ context.Context, email string) (*auth.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, identity := range r.identities {
		if strings.EqualFold(identity.Email, email) {
			out := identity
			return &out, nil
		}
	}
	return nil, oops.Code("IDENTITY_NOT_FOUND").Wrap(auth.ErrNotFound)
}

func (r *MemoryIdentityRepository) Update(_ context.Context, identity *auth.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.identities[identity.ID]; !ok {
		return oops.Code("IDENTITY_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	r.identities[identity.ID] = *identity
	return nil
}
