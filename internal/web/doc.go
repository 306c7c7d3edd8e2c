// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

// Package web serves the ChargeShare HTTP API.
//
// Every protected route goes through Gate, which resolves the session cookie
// or bearer token into an auth.Principal. Handlers receive the principal as
// an argument instead of digging it out of the request context.
package web
