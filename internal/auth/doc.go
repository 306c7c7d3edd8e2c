// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

// Package auth provides authentication primitives for ChargeShare.
//
// # Domain Types
//
// Domain types (Identity, Session) should be created using their
// constructors:
//   - NewIdentity - creates an Identity with a validated email, role and hash
//   - NewSession - creates a Session bound to an identity, nonce and token hash
//
// Direct struct initialization bypasses validation and may create invalid state.
// Repository implementations receive pre-validated types from these constructors.
//
// # Sessions
//
// A session is only usable while two independent checks both pass: the
// signed token must verify (TokenCodec) and a live row matching the token
// must exist in the store (SessionRepository). The store is authoritative, so
// Destroy and DestroyAll take effect immediately even though the token's
// embedded expiry has not elapsed.
//
// # Services
//
// Service types coordinate domain operations:
//   - SessionStore - create, validate, destroy and sweep sessions
//   - Service - registration, login, logout and logout-all
//   - Sweeper - periodic removal of expired sessions
//
// Constructors validate their dependencies and return an error when one is missing.
package auth
