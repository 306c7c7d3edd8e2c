// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package auth_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chargeshare/chargeshare/internal/auth"
	"github.com/chargeshare/chargeshare/internal/auth/authtest"
	"github.com/chargeshare/chargeshare/pkg/errutil"
)

func TestHashPassword(t *testing.T) {
	hasher := authtest.FastHasher()

	t.Run("produces valid hash", func(t *testing.T) {
		hash, err := hasher.Hash("password123")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))
	})

	t.Run("encodes configured parameters", func(t *testing.T) {
		hash, err := hasher.Hash("password123")
		require.NoError(t, err)
		p := authtest.FastArgon2Params
		assert.Contains(t, hash, "m=8192,t=1,p=1")
		assert.Equal(t, p, hasher.Params())
	})

	t.Run("different passwords produce different hashes", func(t *testing.T) {
		hash1, err := hasher.Hash("password1")
		require.NoError(t, err)
		hash2, err := hasher.Hash("password2")
		require.NoError(t, err)
		assert.NotEqual(t, hash1, hash2)
	})

	t.Run("same password produces different hashes (salt)", func(t *testing.T) {
		hash1, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		hash2, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		assert.NotEqual(t, hash1, hash2)
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, err := hasher.Hash("")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_EMPTY_PASSWORD")
	})
}

func TestNewArgon2idHasherWithParams_FillsZeroFields(t *testing.T) {
	hasher := auth.NewArgon2idHasherWithParams(auth.Argon2Params{Time: 2})
	p := hasher.Params()
	assert.Equal(t, uint32(2), p.Time)
	assert.Equal(t, auth.DefaultArgon2Params.Memory, p.Memory)
	assert.Equal(t, auth.DefaultArgon2Params.Threads, p.Threads)
	assert.Equal(t, auth.DefaultArgon2Params.SaltLen, p.SaltLen)
	assert.Equal(t, auth.DefaultArgon2Params.KeyLen, p.KeyLen)
}

func TestVerifyPassword(t *testing.T) {
	hasher := authtest.FastHasher()

	t.Run("correct password verifies", func(t *testing.T) {
		hash, err := hasher.Hash("correctpassword")
		require.NoError(t, err)
		assert.True(t, hasher.Verify("correctpassword", hash))
	})

	t.Run("incorrect password fails", func(t *testing.T) {
		hash, err := hasher.Hash("correctpassword")
		require.NoError(t, err)
		assert.False(t, hasher.Verify("wrongpassword", hash))
	})

	t.Run("hash from other parameters still verifies", func(t *testing.T) {
		other := auth.NewArgon2idHasherWithParams(auth.Argon2Params{Time: 2, Memory: 4 * 1024, Threads: 2})
		hash, err := other.Hash("correctpassword")
		require.NoError(t, err)
		assert.True(t, hasher.Verify("correctpassword", hash))
	})

	t.Run("corrupted digest never matches", func(t *testing.T) {
		hash, err := hasher.Hash("correctpassword")
		require.NoError(t, err)
		corrupted := hash[:len(hash)-4] + "AAAA"
		if corrupted == hash {
			corrupted = hash[:len(hash)-4] + "BBBB"
		}
		assert.False(t, hasher.Verify("correctpassword", corrupted))
	})

	t.Run("truncated digest never matches", func(t *testing.T) {
		hash, err := hasher.Hash("correctpassword")
		require.NoError(t, err)
		assert.False(t, hasher.Verify("correctpassword", hash[:len(hash)/2]))
	})

	malformed := []struct {
		name string
		hash string
	}{
		{"empty digest", ""},
		{"invalid hash format", "not-a-valid-hash"},
		{"wrong algorithm", "$argon2i$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA"},
		{"invalid version format", "$argon2id$vXX$m=65536,t=1,p=4$c2FsdA$aGFzaA"},
		{"unsupported version", "$argon2id$v=16$m=65536,t=1,p=4$c2FsdA$aGFzaA"},
		{"invalid parameters format", "$argon2id$v=19$invalid$c2FsdA$aGFzaA"},
		{"invalid salt base64", "$argon2id$v=19$m=65536,t=1,p=4$!!!invalid!!!$aGFzaA"},
		{"invalid hash base64", "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$!!!invalid!!!"},
		{"threads overflow", "$argon2id$v=19$m=65536,t=1,p=256$c2FsdA$aGFzaA"},
		{"zero threads", "$argon2id$v=19$m=65536,t=1,p=0$c2FsdA$aGFzaA"},
		{"empty key", "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$"},
		{"memory cost max uint32", "$argon2id$v=19$m=4294967295,t=1,p=1$" + salt16 + "$" + key32},
		{"memory cost above ceiling", fmt.Sprintf("$argon2id$v=19$m=%d,t=1,p=1$%s$%s", auth.MaxArgon2Memory+1, salt16, key32)},
		{"memory cost overflows uint32", "$argon2id$v=19$m=99999999999,t=1,p=1$" + salt16 + "$" + key32},
		{"time cost max uint32", "$argon2id$v=19$m=8192,t=4294967295,p=1$" + salt16 + "$" + key32},
		{"time cost above ceiling", fmt.Sprintf("$argon2id$v=19$m=8192,t=%d,p=1$%s$%s", auth.MaxArgon2Time+1, salt16, key32)},
		{"zero memory", "$argon2id$v=19$m=0,t=1,p=1$" + salt16 + "$" + key32},
		{"zero time", "$argon2id$v=19$m=8192,t=0,p=1$" + salt16 + "$" + key32},
		{"salt too short", "$argon2id$v=19$m=8192,t=1,p=1$c2FsdA$" + key32},
		{"salt too long", "$argon2id$v=19$m=8192,t=1,p=1$" + strings.Repeat("A", 88) + "$" + key32},
		{"key too long", "$argon2id$v=19$m=8192,t=1,p=1$" + salt16 + "$" + strings.Repeat("A", 1400)},
	}
	for _, tt := range malformed {
		t.Run(tt.name+" does not verify", func(t *testing.T) {
			assert.False(t, hasher.Verify("password", tt.hash))
		})
	}
}

// Base64 (raw std) of 16 and 32 zero bytes.
var (
	salt16 = strings.Repeat("A", 22)
	key32  = strings.Repeat("A", 43)
)

func TestVerifyPassword_CostCeilingIsAccepted(t *testing.T) {
	// A digest at the ceiling decodes; it just does not match.
	hasher := authtest.FastHasher()
	digest := fmt.Sprintf("$argon2id$v=19$m=8192,t=%d,p=1$%s$%s", auth.MaxArgon2Time, salt16, key32)
	assert.False(t, hasher.Verify("password", digest))
	assert.False(t, hasher.NeedsUpgrade(digest))
}

func TestNewArgon2idHasherWithParams_ClampsToCeilings(t *testing.T) {
	hasher := auth.NewArgon2idHasherWithParams(auth.Argon2Params{
		Time:    auth.MaxArgon2Time + 10,
		Memory:  auth.MaxArgon2Memory * 4,
		Threads: 1,
		SaltLen: 2,
		KeyLen:  32,
	})
	p := hasher.Params()
	assert.Equal(t, uint32(auth.MaxArgon2Time), p.Time)
	assert.Equal(t, uint32(auth.MaxArgon2Memory), p.Memory)
	assert.Equal(t, uint32(auth.MinArgon2SaltLen), p.SaltLen)

	big := auth.NewArgon2idHasherWithParams(auth.Argon2Params{SaltLen: 1000})
	assert.Equal(t, uint32(auth.MaxArgon2SaltLen), big.Params().SaltLen)
}

func TestNeedsUpgrade(t *testing.T) {
	hasher := authtest.FastHasher()

	// This is a valid bcrypt hash for testing upgrade detection
	bcryptHash := "$2a$10$N9qo8uLOickgx2ZMRZoMyeIvNq.Uf3hE9tQALNP1Qn9sNp5x5x5x5"

	t.Run("detects bcrypt hash needing upgrade", func(t *testing.T) {
		assert.True(t, hasher.NeedsUpgrade(bcryptHash))
	})

	t.Run("current parameters do not need upgrade", func(t *testing.T) {
		hash, err := hasher.Hash("password")
		require.NoError(t, err)
		assert.False(t, hasher.NeedsUpgrade(hash))
	})

	t.Run("weaker parameters need upgrade", func(t *testing.T) {
		stronger := auth.NewArgon2idHasherWithParams(auth.Argon2Params{Time: 2, Memory: 8 * 1024, Threads: 1})
		hash, err := hasher.Hash("password")
		require.NoError(t, err)
		assert.True(t, stronger.NeedsUpgrade(hash))
	})

	t.Run("malformed hash needs upgrade", func(t *testing.T) {
		assert.True(t, hasher.NeedsUpgrade("garbage"))
	})
}
