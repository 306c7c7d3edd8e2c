// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

// Package postgres implements the auth persistence ports on PostgreSQL.
package postgres
