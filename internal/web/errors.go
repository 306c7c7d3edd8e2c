// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package web

import "errors"

var (
	errBadRequest       = errors.New("bad request")
	errHostRoleRequired = errors.New("host role required")
)
