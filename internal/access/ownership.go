// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package access

import (
	"context"
	"errors"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Sentinel errors for ownership checks.
var (
	// ErrResourceNotFound is returned when the resource does not exist.
	ErrResourceNotFound = errors.New("resource not found")
	// ErrForbiddenOwnership is returned when the identity does not own the resource.
	ErrForbiddenOwnership = errors.New("forbidden: not the resource owner")
	// ErrLookupFailed is returned when the resource could not be loaded.
	ErrLookupFailed = errors.New("resource lookup failed")
)

// Error codes attached to ownership failures.
const (
	CodeResourceNotFound   = "RESOURCE_NOT_FOUND"
	CodeForbiddenOwnership = "FORBIDDEN_OWNERSHIP"
	CodeLookupFailed       = "ACCESS_LOOKUP_FAILED"
)

// NotFoundMatcher reports whether a lookup error means "does not exist".
// Repositories in this module wrap a package-level ErrNotFound sentinel, so
// the gate is told which one to match.
type NotFoundMatcher func(error) bool

// MatchNotFound returns a NotFoundMatcher for the given sentinel errors.
func MatchNotFound(sentinels ...error) NotFoundMatcher {
	return func(err error) bool {
		for _, s := range sentinels {
			if errors.Is(err, s) {
				return true
			}
		}
		return false
	}
}

// RequireOwner loads the resource and checks it belongs to identityID.
//
// The lookup always runs first, so a missing resource is reported as
// ErrResourceNotFound even when the caller would not own it.
func RequireOwner[R Owned](
	ctx context.Context,
	lookup OwnerLookup[R],
	isNotFound NotFoundMatcher,
	identityID, resourceID ulid.ULID,
) (R, error) {
	var zero R

	resource, err := lookup.GetByID(ctx, resourceID)
	if err != nil {
		if isNotFound != nil && isNotFound(err) {
			return zero, oops.Code(CodeResourceNotFound).
				With("resource_id", resourceID.String()).
				Wrap(ErrResourceNotFound)
		}
		return zero, oops.Code(CodeLookupFailed).
			With("resource_id", resourceID.String()).
			With("cause", err.Error()).
			Wrapf(ErrLookupFailed, "load resource: %v", err)
	}

	if resource.OwnerID() != identityID {
		return zero, oops.Code(CodeForbiddenOwnership).
			With("resource_id", resourceID.String()).
			With("identity_id", identityID.String()).
			With("owner_id", resource.OwnerID().String()).
			Wrap(ErrForbiddenOwnership)
	}

	return resource, nil
}
