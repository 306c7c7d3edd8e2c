// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

// Package mocks provides testify mocks of the auth persistence ports.
package mocks

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/chargeshare/chargeshare/internal/auth"
)

// TestingT is the subset of testing.T the constructors need.
type TestingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockSessionRepository is a mock auth.SessionRepository.
type MockSessionRepository struct {
	mock.Mock
}

var _ auth.SessionRepository = (*MockSessionRepository)(nil)

// NewMockSessionRepository creates a mock that asserts its expectations on cleanup.
func NewMockSessionRepository(t TestingT) *MockSessionRepository {
	m := &MockSessionRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockSessionRepository) Create(ctx context.Context, session *auth.Session) error {
	return m.Called(ctx, session).Error(0)
}

func (m *MockSessionRepository) GetLiveByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*auth.Session, error) {
	ret := m.Called(ctx, tokenHash, now)
	var s *auth.Session
	if v := ret.Get(0); v != nil {
		s = v.(*auth.Session)
	}
	return s, ret.Error(1)
}

func (m *MockSessionRepository) Touch(ctx context.Context, id ulid.ULID, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *MockSessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	return m.Called(ctx, tokenHash).Error(0)
}

func (m *MockSessionRepository) DeleteByIdentity(ctx context.Context, identityID ulid.ULID) error {
	return m.Called(ctx, identityID).Error(0)
}

func (m *MockSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	ret := m.Called(ctx, now)
	return ret.Get(0).(int64), ret.Error(1)
}

func (m *MockSessionRepository) ListByIdentity(ctx context.Context, identityID ulid.ULID, now time.Time) ([]*auth.Session, error) {
	ret := m.Called(ctx, identityID, now)
	var out []*auth.Session
	if v := ret.Get(0); v != nil {
		out = v.([]*auth.Session)
	}
	return out, ret.Error(1)
}

// MockIdentityRepository is a mock auth.IdentityRepository.
type MockIdentityRepository struct {
	mock.Mock
}

var _ auth.IdentityRepository = (*MockIdentityRepository)(nil)

// NewMockIdentityRepository creates a mock that asserts its expectations on cleanup.
func NewMockIdentityRepository(t TestingT) *MockIdentityRepository {
	m := &MockIdentityRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockIdentityRepository) Create(ctx context.Context, identity *auth.Identity) error {
	return m.Called(ctx, identity).Error(0)
}

func (m *MockIdentityRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.Identity, error) {
	ret := m.Called(ctx, id)
	var out *auth.Identity
	if v := ret.Get(0); v != nil {
		out = v.(*auth.Identity)
	}
	return out, ret.Error(1)
}

func (m *MockIdentityRepository) GetByEmail(ctx context.Context, email string) (*auth.Identity, error) {
	ret := m.Called(ctx, email)
	var out *auth.Identity
	if v := ret.Get(0); v != nil {
		out = v.(*auth.Identity)
	}
	return out, ret.Error(1)
}

func (m *MockIdentityRepository) Update(ctx context.Context, identity *auth.Identity) error {
	return m.Called(ctx, identity).Error(0)
}

func (m *MockIdentityRepository) RecordFailure(ctx context.Context, id ulid.ULID, now time.Time) (int, *time.Time, error) {
	ret := m.Called(ctx, id, now)
	var lockedUntil *time.Time
	if v := ret.Get(1); v != nil {
		lockedUntil = v.(*time.Time)
	}
	return ret.Int(0), lockedUntil, ret.Error(2)
}

// MockPasswordHasher is a mock auth.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

var _ auth.PasswordHasher = (*MockPasswordHasher)(nil)

// NewMockPasswordHasher creates a mock that asserts its expectations on cleanup.
func NewMockPasswordHasher(t TestingT) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPasswordHasher) Hash(password string) (string, error) {
	ret := m.Called(password)
	return ret.String(0), ret.Error(1)
}

func (m *MockPasswordHasher) Verify(password, encodedHash string) bool {
	return m.Called(password, encodedHash).Bool(0)
}

func (m *MockPasswordHasher) NeedsUpgrade(encodedHash string) bool {
	return m.Called(encodedHash).Bool(0)
}
