package errors

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the login flow
var (
	// Startup errors
	ErrConfiguration = errors.New("configuration error")

	// Callback request errors
	ErrInvalidState        = errors.New("invalid state")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrAuthorizationDenied = errors.New("authorization denied")

	// Upstream errors
	ErrTokenExchange   = errors.New("token exchange failed")
	ErrProfileFetch    = errors.New("profile fetch failed")
	ErrDeserialization = errors.New("profile deserialization failed")
	ErrTimeout         = errors.New("upstream timeout")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Kind tags err with one of the sentinel kinds above so that callers can match it with Is.
func Kind(kind, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", kind, err)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
