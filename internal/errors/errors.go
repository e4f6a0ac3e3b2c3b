package errors

import (
	"errors"
	"fmt"
)

// Error taxonomy for the control plane
var (
	// Authentication errors
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrAccountDeactivated      = errors.New("account is deactivated")
	ErrInvalidTwoFactorCode    = errors.New("invalid two-factor code")
	ErrSetupNotInitiated       = errors.New("two-factor setup not initiated")
	ErrNotEnabled              = errors.New("two-factor authentication is not enabled")
	ErrInvalidOrExpiredSession = errors.New("invalid or expired session")

	// Licensing errors
	ErrInvalidLicense = errors.New("invalid license")
	ErrInvalidTier    = errors.New("invalid license tier")

	// Authorization errors
	ErrForbidden = errors.New("forbidden")

	// General errors
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrInvalidInput  = errors.New("invalid input")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
