package auth

import (
	"math"
	"time"
)

const (
	MaxFailedAttempts = 3
	LockoutDuration   = 15 * time.Minute

	lockoutMinutes = int(LockoutDuration / time.Minute)
)

// lockout is a view over one of the account's failure counter pairs, either
// the login pair or the MFA pair. Mutations only touch the in-memory account.
type lockout struct {
	failures    *int
	lockedUntil **time.Time
}

func loginLockout(a *Account) lockout {
	return lockout{failures: &a.FailedLoginAttempts, lockedUntil: &a.LoginLockedUntil}
}

func mfaLockout(a *Account) lockout {
	return lockout{failures: &a.FailedMFAAttempts, lockedUntil: &a.MFALockedUntil}
}

// check reports whether the lock is in force at now. An expired lock is
// cleared before returning.
func (l lockout) check(now time.Time) (remaining int, locked bool) {
	until := *l.lockedUntil
	if until == nil {
		return 0, false
	}
	if !now.Before(*until) {
		l.reset()
		return 0, false
	}
	return remainingMinutes(until.Sub(now)), true
}

func (l lockout) reset() {
	*l.failures = 0
	*l.lockedUntil = nil
}

// recordFailure counts a failed attempt and engages the lock at the threshold.
func (l lockout) recordFailure(now time.Time) (attemptsRemaining int, locked bool) {
	*l.failures++
	if *l.failures >= MaxFailedAttempts {
		until := now.Add(LockoutDuration)
		*l.lockedUntil = &until
		return 0, true
	}
	return MaxFailedAttempts - *l.failures, false
}

func remainingMinutes(d time.Duration) int {
	minutes := int(math.Ceil(d.Minutes()))
	if minutes < 1 {
		return 1
	}
	if minutes > lockoutMinutes {
		return lockoutMinutes
	}
	return minutes
}
