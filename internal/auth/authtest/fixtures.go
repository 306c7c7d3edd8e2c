// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package authtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chargeshare/chargeshare/internal/auth"
)

// Test secrets. Never use outside tests.
var (
	TokenSecret  = []byte("0123456789abcdef0123456789abcdef")
	CookieSecret = []byte("fedcba9876543210fedcba9876543210")
)

// Epoch is the default start time of harness clocks.
var Epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// FastArgon2Params keep hashing cheap in tests.
var FastArgon2Params = auth.Argon2Params{
	Time:    1,
	Memory:  8 * 1024,
	Threads: 1,
	SaltLen: 16,
	KeyLen:  32,
}

// FastHasher returns an Argon2idHasher using FastArgon2Params.
func FastHasher() *auth.Argon2idHasher {
	return auth.NewArgon2idHasherWithParams(FastArgon2Params)
}

// Harness wires a SessionStore and Service over in-memory repositories.
type Harness struct {
	Clock      *Clock
	Identities *MemoryIdentityRepository
	Sessions   *MemorySessionRepository
	Hasher     *auth.Argon2idHasher
	Codec      *auth.TokenCodec
	Store      *auth.SessionStore
	Service    *auth.Service
}

// NewHarness builds a Harness whose components share one fake clock.
func NewHarness(t testing.TB) *Harness {
	t.Helper()

	h := &Harness{
		Clock:      NewClock(Epoch),
		Identities: NewMemoryIdentityRepository(),
		Sessions:   NewMemorySessionRepository(),
		Hasher:     FastHasher(),
	}

	var err error
	h.Codec, err = auth.NewTokenCodec(TokenSecret, auth.WithCodecClock(h.Clock.Now))
	require.NoError(t, err)

	h.Store, err = auth.NewSessionStore(h.Sessions, h.Identities, h.Codec, auth.WithStoreClock(h.Clock.Now))
	require.NoError(t, err)

	h.Service, err = auth.NewService(h.Identities, h.Store, h.Hasher, auth.WithServiceClock(h.Clock.Now))
	require.NoError(t, err)

	return h
}

// Register creates an identity through the Service and returns it with its token.
func (h *Harness) Register(t testing.TB, email, password string, role auth.Role) (*auth.Identity, string) {
	t.Helper()
	identity, token, err := h.Service.Register(t.Context(), auth.RegisterInput{
		Email:    email,
		Password: password,
		Role:     role,
	}, auth.Device{UserAgent: "authtest"})
	require.NoError(t, err)
	return identity, token
}
