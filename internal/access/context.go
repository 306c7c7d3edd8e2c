// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package access

import "context"

type resourceKey struct{}

// WithResource returns a context carrying a resource that passed the
// ownership check.
func WithResource[R Owned](ctx context.Context, resource R) context.Context {
	return context.WithValue(ctx, resourceKey{}, resource)
}

// ResourceFrom returns the owned resource attached by WithResource.
func ResourceFrom[R Owned](ctx context.Context) (R, bool) {
	v, ok := ctx.Value(resourceKey{}).(R)
	return v, ok
}
