// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

// Package access provides ownership authorization for ChargeShare resources.
//
// An authenticated identity may mutate a resource only when it owns it. The
// gate distinguishes a resource that does not exist (ErrResourceNotFound)
// from one owned by someone else (ErrForbiddenOwnership) so callers can tell
// a bad identifier from a real authorization violation.
package access

import (
	"context"

	"github.com/oklog/ulid/v2"
)

// Owned is implemented by resources that belong to a single identity.
type Owned interface {
	OwnerID() ulid.ULID
}

// OwnerLookup loads a resource by ID. RequireOwner takes a NotFoundMatcher
// alongside it to recognise the lookup's "does not exist" error.
type OwnerLookup[R Owned] interface {
	GetByID(ctx context.Context, id ulid.ULID) (R, error)
}
