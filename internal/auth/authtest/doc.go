// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

// Package authtest provides in-memory repositories, a controllable clock and
// cheap hashing parameters for tests that exercise the auth package.
package authtest
