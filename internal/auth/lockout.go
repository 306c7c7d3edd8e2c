// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package auth

import (
	"errors"
	"fmt"
	"time"
)

const (
	// LockoutThreshold is the number of consecutive failed logins that locks an identity.
	LockoutThreshold = 7

	// LockoutDuration is how long a locked identity must wait before logging in again.
	LockoutDuration = 15 * time.Minute
)

// IsLockedOut reports whether lockedUntil is still in the future at now.
func IsLockedOut(lockedUntil *time.Time, now time.Time) bool {
	return lockedUntil != nil && lockedUntil.After(now)
}

// ComputeLockoutTime returns when a lockout triggered by failures at now ends,
// or nil while failures is below LockoutThreshold.
func ComputeLockoutTime(failures int, now time.Time) *time.Time {
	if failures < LockoutThreshold {
		return nil
	}
	until := now.Add(LockoutDuration)
	return &until
}

// LockedError is returned by Login for an identity inside its lockout window.
// It unwraps to ErrAccountLocked.
type LockedError struct {
	Until     time.Time
	Remaining time.Duration
}

func newLockedError(until, now time.Time) *LockedError {
	return &LockedError{Until: until, Remaining: until.Sub(now)}
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("%s until %s", ErrAccountLocked, e.Until.Format(time.RFC3339))
}

func (e *LockedError) Unwrap() error { return ErrAccountLocked }

// RetryAfterSeconds extracts the remaining lockout from err as a whole
// number of seconds, rounded up, ready for a Retry-After header.
func RetryAfterSeconds(err error) (int, bool) {
	var locked *LockedError
	if !errors.As(err, &locked) || locked.Remaining <= 0 {
		return 0, false
	}
	return int((locked.Remaining + time.Second - 1) / time.Second), true
}
