// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

// Package store provides the PostgreSQL connection pool and schema migrations
// shared by the repository packages.
package store
