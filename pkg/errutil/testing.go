// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requireOops fails the test unless err is non-nil and carries oops metadata.
func requireOops(tb testing.TB, err error) oops.OopsError {
	tb.Helper()
	require.Error(tb, err, "expected an error")
	oopsErr, ok := oops.AsOops(err)
	require.True(tb, ok, "expected oops error, got %T: %v", err, err)
	return oopsErr
}

// AssertErrorCode asserts that err carries code. oops reports the innermost
// code in a wrap chain, so that is what gets compared.
func AssertErrorCode(tb testing.TB, err error, code string) {
	tb.Helper()
	got := requireOops(tb, err).Code()
	assert.Equal(tb, code, got, "error code mismatch for %q", err)
}

// AssertErrorContext asserts that the merged oops context of err maps key to value.
func AssertErrorContext(tb testing.TB, err error, key string, value any) {
	tb.Helper()
	errCtx := requireOops(tb, err).Context()
	if assert.Contains(tb, errCtx, key, "missing context key") {
		assert.Equal(tb, value, errCtx[key], "context value mismatch for %q", key)
	}
}
