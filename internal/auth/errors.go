package auth

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindInvalidCredentials ErrorKind = "invalid_credentials"
	KindAccountLocked      ErrorKind = "account_locked"
	KindMFAInvalidCode     ErrorKind = "mfa_invalid_code"
	KindMFALocked          ErrorKind = "mfa_locked"
)

// Error is an expected authentication outcome. Any other error returned by
// the service is an infrastructure failure.
type Error struct {
	Kind ErrorKind
	// AttemptsRemaining before lockout; zero when unknown or when Locked is set.
	AttemptsRemaining int
	// RemainingMinutes of an active lockout, within [1, 15].
	RemainingMinutes int
	// Locked is set when this very failure triggered the lockout.
	Locked bool
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindInvalidCredentials:
		if e.Locked {
			return fmt.Sprintf("Invalid username or password. Account has been locked for %d minutes due to too many failed attempts.", lockoutMinutes)
		}
		if e.AttemptsRemaining > 0 {
			return fmt.Sprintf("Invalid username or password. %d attempts remaining before account lockout.", e.AttemptsRemaining)
		}
		return "Invalid username or password"
	case KindAccountLocked:
		return fmt.Sprintf("Account locked due to %d failed login attempts. Please try again in %d minutes.", MaxFailedAttempts, e.RemainingMinutes)
	case KindMFAInvalidCode:
		if e.Locked {
			return fmt.Sprintf("Invalid MFA code. MFA has been locked for %d minutes due to too many failed attempts.", lockoutMinutes)
		}
		if e.AttemptsRemaining > 0 {
			return fmt.Sprintf("Invalid MFA code. %d attempts remaining before MFA lockout.", e.AttemptsRemaining)
		}
		return "Invalid MFA code"
	case KindMFALocked:
		return fmt.Sprintf("MFA locked due to %d failed attempts. Please try again in %d minutes.", MaxFailedAttempts, e.RemainingMinutes)
	default:
		return string(e.Kind)
	}
}

// IsKind reports whether err is an authentication Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var authErr *Error
	return errors.As(err, &authErr) && authErr.Kind == kind
}
