// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// MinTokenSecretBytes is the minimum length of the HMAC signing secret.
const MinTokenSecretBytes = 32

// DefaultTokenIssuer is the issuer stamped into and required from every token.
const DefaultTokenIssuer = "chargeshare"

// TokenClaims is the verified content of a session token.
type TokenClaims struct {
	IdentityID ulid.ULID
	Nonce      string
	ID         string
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

// sessionClaims is the JWT payload. sid carries the session nonce.
type sessionClaims struct {
	jwt.RegisteredClaims
	SessionNonce string `json:"sid"`
}

// TokenCodec issues and verifies HS256-signed session tokens.
// It performs no I/O: verifying a token says nothing about whether its
// session still exists.
type TokenCodec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// CodecOption configures a TokenCodec.
type CodecOption func(*TokenCodec)

// WithCodecClock overrides the clock used for issuing and expiry checks.
func WithCodecClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) {
		if now != nil {
			c.now = now
		}
	}
}

// WithIssuer overrides DefaultTokenIssuer.
func WithIssuer(issuer string) CodecOption {
	return func(c *TokenCodec) {
		if issuer != "" {
			c.issuer = issuer
		}
	}
}

// NewTokenCodec creates a TokenCodec signing with secret.
// Rotating the secret invalidates every outstanding token.
func NewTokenCodec(secret []byte, opts ...CodecOption) (*TokenCodec, error) {
	if len(secret) < MinTokenSecretBytes {
		return nil, oops.Code("TOKEN_SECRET_INVALID").
			With("min_bytes", MinTokenSecretBytes).
			Errorf("token secret must be at least %d bytes", MinTokenSecretBytes)
	}
	c := &TokenCodec{
		secret: append([]byte(nil), secret...),
		issuer: DefaultTokenIssuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue signs a token for identityID bound to the session nonce, expiring after ttl.
// The returned claims carry the exact expiry encoded in the token.
func (c *TokenCodec) Issue(identityID ulid.ULID, nonce string, ttl time.Duration) (string, TokenClaims, error) {
	if nonce == "" {
		return "", TokenClaims{}, oops.Code("TOKEN_ISSUE_FAILED").Errorf("session nonce is required")
	}
	if ttl <= 0 {
		return "", TokenClaims{}, oops.Code("TOKEN_ISSUE_FAILED").With("ttl", ttl).Errorf("ttl must be positive")
	}

	now := c.now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   identityID.String(),
			ID:        ulid.Make().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		SessionNonce: nonce,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", TokenClaims{}, oops.Code("TOKEN_ISSUE_FAILED").Wrap(err)
	}

	return signed, TokenClaims{
		IdentityID: identityID,
		Nonce:      nonce,
		ID:         claims.ID,
		IssuedAt:   claims.IssuedAt.Time,
		ExpiresAt:  claims.ExpiresAt.Time,
	}, nil
}

// Verify checks the token's signature, structure and expiry.
// Returns ErrTokenInvalid or ErrTokenExpired on failure.
func (c *TokenCodec) Verify(token string) (TokenClaims, error) {
	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return TokenClaims{}, tokenInvalid("parse", err.Error())
	}
	if !parsed.Valid {
		return TokenClaims{}, tokenInvalid("parse", "token not valid")
	}

	if claims.Issuer != c.issuer {
		return TokenClaims{}, tokenInvalid("issuer", claims.Issuer)
	}
	identityID, err := ulid.ParseStrict(claims.Subject)
	if err != nil {
		return TokenClaims{}, tokenInvalid("subject", err.Error())
	}
	if claims.SessionNonce == "" {
		return TokenClaims{}, tokenInvalid("sid", "missing session nonce")
	}
	if claims.ExpiresAt == nil {
		return TokenClaims{}, tokenInvalid("exp", "missing expiry")
	}

	out := TokenClaims{
		IdentityID: identityID,
		Nonce:      claims.SessionNonce,
		ID:         claims.ID,
		ExpiresAt:  claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}

	if !c.now().Before(out.ExpiresAt) {
		return TokenClaims{}, oops.Code(CodeTokenExpired).
			With("expires_at", out.ExpiresAt).
			Wrap(ErrTokenExpired)
	}

	return out, nil
}

func tokenInvalid(check, reason string) error {
	return oops.Code(CodeTokenInvalid).
		With("check", check).
		With("reason", reason).
		Wrap(ErrTokenInvalid)
}
