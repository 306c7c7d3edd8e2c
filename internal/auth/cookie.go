// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package auth

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http"

	"github.com/samber/oops"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// DefaultCookieName is the name of the session cookie.
const DefaultCookieName = "chargeshare_session"

// MinCookieSecretBytes is the minimum length of the cookie sealing secret.
const MinCookieSecretBytes = 32

const cookieKeyInfo = "chargeshare session cookie v1"

// CookieSealer encrypts session tokens for transport in an HTTP-only cookie.
// The cookie name is bound as additional data, so a value cannot be replayed
// under another cookie name.
type CookieSealer struct {
	aead   cipher.AEAD
	name   string
	secure bool
}

// NewCookieSealer derives a sealing key from secret.
func NewCookieSealer(secret []byte, name string, secure bool) (*CookieSealer, error) {
	if len(secret) < MinCookieSecretBytes {
		return nil, oops.Code("COOKIE_SECRET_INVALID").
			With("min_bytes", MinCookieSecretBytes).
			Errorf("cookie secret must be at least %d bytes", MinCookieSecretBytes)
	}
	if name == "" {
		name = DefaultCookieName
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(cookieKeyInfo)), key); err != nil {
		return nil, oops.Code("COOKIE_KEY_DERIVE_FAILED").Wrap(err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, oops.Code("COOKIE_KEY_DERIVE_FAILED").Wrap(err)
	}

	return &CookieSealer{aead: aead, name: name, secure: secure}, nil
}

// Name returns the cookie name.
func (c *CookieSealer) Name() string {
	return c.name
}

// Seal encrypts a token into a cookie-safe value.
func (c *CookieSealer) Seal(token string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(token)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", oops.Code("COOKIE_SEAL_FAILED").Wrap(err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(token), []byte(c.name))
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open decrypts a cookie value. Any tampering yields ErrTokenInvalid.
func (c *CookieSealer) Open(value string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return "", tokenInvalid("cookie", "malformed encoding")
	}
	if len(raw) < c.aead.NonceSize()+c.aead.Overhead() {
		return "", tokenInvalid("cookie", "value too short")
	}
	nonce, ciphertext := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plain, err := c.aead.Open(nil, nonce, ciphertext, []byte(c.name))
	if err != nil {
		return "", tokenInvalid("cookie", "authentication failed")
	}
	return string(plain), nil
}

// SessionCookie builds the cookie carrying a sealed token.
func (c *CookieSealer) SessionCookie(token string) (*http.Cookie, error) {
	value, err := c.Seal(token)
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     c.name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// ClearCookie returns a cookie that removes the session cookie.
func (c *CookieSealer) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
