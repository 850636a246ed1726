package auth

import (
	"errors"
	"fmt"
)

// FailureKind classifies a rejected login attempt
type FailureKind int

const (
	InvalidCredentials FailureKind = iota + 1
	AccountLocked
	InvalidFingerprint
	ServerError
)

func (k FailureKind) String() string {
	switch k {
	case InvalidCredentials:
		return "invalid_credentials"
	case AccountLocked:
		return "account_locked"
	case InvalidFingerprint:
		return "invalid_fingerprint"
	case ServerError:
		return "server_error"
	default:
		return "unknown"
	}
}

// LoginError is returned by Login for every rejected attempt
type LoginError struct {
	Kind FailureKind
	// RetryAfterMinutes is set for AccountLocked.
	RetryAfterMinutes int
	Err               error
}

func (e *LoginError) Error() string {
	switch e.Kind {
	case InvalidCredentials:
		return "invalid username or password"
	case AccountLocked:
		return fmt.Sprintf("account locked, try again in %d minute(s)", e.RetryAfterMinutes)
	case InvalidFingerprint:
		return "invalid browser fingerprint"
	default:
		if e.Err != nil {
			return "server error: " + e.Err.Error()
		}
		return "server error"
	}
}

func (e *LoginError) Unwrap() error { return e.Err }

var (
	// ErrNoSession is returned when a session token is missing, unknown or expired.
	ErrNoSession = errors.New("no valid session")
	// ErrUsernameTaken is returned by Register for an existing username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidUsername is returned by Register for a malformed username.
	ErrInvalidUsername = errors.New("username must be 3-50 characters of letters, digits, '.', '_' or '-'")
	// ErrDeviceNotFound is returned when a device entry does not exist.
	ErrDeviceNotFound = errors.New("device not found")
	// ErrForbidden is returned when a device belongs to another user.
	ErrForbidden = errors.New("forbidden")
)
