package auth

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrDBNil is returned when no database handle was provided
	ErrDBNil = errors.New("database handle is nil")

	// ErrRegistrationDisabled is returned when registration is turned off
	ErrRegistrationDisabled = errors.New("registration is currently disabled")

	// ErrEmailNotVerified is returned when login requires a verified email
	ErrEmailNotVerified = errors.New("email address is not verified")

	// ErrInvalidToken is returned for malformed, unknown or revoked tokens
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrTwoFactorAlreadyEnabled is returned when 2FA setup is requested
	// while 2FA is already confirmed
	ErrTwoFactorAlreadyEnabled = errors.New("two-factor authentication is already enabled")

	// ErrTwoFactorNotPending is returned when confirmation is attempted
	// without a pending 2FA setup
	ErrTwoFactorNotPending = errors.New("no pending two-factor setup")

	// ErrTwoFactorNotEnabled is returned when a 2FA operation requires an
	// active 2FA configuration
	ErrTwoFactorNotEnabled = errors.New("two-factor authentication is not enabled")

	// ErrInvalidTwoFactorCode is returned when a TOTP code does not match
	ErrInvalidTwoFactorCode = errors.New("invalid two-factor code")
)

// PolicyViolationError carries every password policy violation found during
// registration or a password change.
type PolicyViolationError struct {
	Violations []string
}

// Error implements the error interface.
func (e *PolicyViolationError) Error() string {
	return fmt.Sprintf("password policy violated: %s", strings.Join(e.Violations, "; "))
}
