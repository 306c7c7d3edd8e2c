// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package auth

import "errors"

// Sentinel errors. Returned errors wrap these, so classify with errors.Is.
var (
	// ErrNotFound is returned by repositories when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrTokenInvalid covers bad signatures, malformed tokens and wrong issuers.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrTokenExpired is returned when the token's embedded expiry has passed.
	ErrTokenExpired = errors.New("token expired")

	// ErrSessionNotFound is returned when a structurally valid token has no live session row.
	ErrSessionNotFound = errors.New("session not found")

	// ErrPersistence is returned when the session or identity store cannot be reached.
	// It is a server-side failure and must never be reported as "not logged in".
	ErrPersistence = errors.New("session store unavailable")

	// ErrUnauthenticated is the single externally visible authentication failure.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrEmailTaken is returned when registering an email that already has an identity.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned for unknown emails and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAccountLocked is returned while an identity is locked out after repeated failures.
	ErrAccountLocked = errors.New("account is temporarily locked")

	// ErrInvalidInput is returned for malformed registration or login input.
	ErrInvalidInput = errors.New("invalid input")
)

// Error codes attached with oops.
const (
	CodeTokenInvalid       = "TOKEN_INVALID"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeSessionNotFound    = "SESSION_NOT_FOUND"
	CodePersistence        = "SESSION_PERSISTENCE_FAILED"
	CodeUnauthenticated    = "AUTH_UNAUTHENTICATED"
	CodeCredentialMissing  = "CREDENTIAL_MISSING"
	CodeEmailTaken         = "AUTH_EMAIL_TAKEN"
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	CodeAccountLocked      = "AUTH_ACCOUNT_LOCKED"
	CodeInvalidInput       = "AUTH_INVALID_INPUT"
)

// Rejection causes reported by Cause. They are for logs and metrics only.
const (
	CauseCredentialMissing = "credential_missing"
	CauseTokenInvalid      = "token_invalid"
	CauseTokenExpired      = "token_expired"
	CauseSessionNotFound   = "session_not_found"
)

// IsAuthFailure reports whether err is one of the internal causes that
// collapse into ErrUnauthenticated at the request boundary.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrTokenInvalid) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrUnauthenticated)
}

// Cause names the internal reason behind an authentication failure.
// Returns "" for errors that are not authentication failures.
func Cause(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return CauseTokenExpired
	case errors.Is(err, ErrTokenInvalid):
		return CauseTokenInvalid
	case errors.Is(err, ErrSessionNotFound):
		return CauseSessionNotFound
	case errors.Is(err, ErrUnauthenticated):
		return CauseCredentialMissing
	default:
		return ""
	}
}
