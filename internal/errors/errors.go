// Package errors defines the error kinds KeyGuard use cases return. Each
// domain error wraps exactly one kind, and the HTTP layer picks the status
// code from the kind alone.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound: unknown project, device or enrollment code.
	ErrNotFound = errors.New("not found")

	// ErrConflict: duplicate key or an illegal device status transition.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput: the request is well formed but semantically rejected.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized: missing or wrong admin token or project secret.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden: the caller is known but may not perform the action.
	ErrForbidden = errors.New("forbidden")

	// ErrUnavailable: the upstream provider or the provider key cannot be reached.
	ErrUnavailable = errors.New("unavailable")
)

var kinds = []error{
	ErrNotFound,
	ErrConflict,
	ErrInvalidInput,
	ErrUnauthorized,
	ErrForbidden,
	ErrUnavailable,
}

// Kind returns the kind sentinel err wraps, or nil when err carries none and
// must be treated as an internal failure.
func Kind(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Wrap prefixes err with message. A nil err stays nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is is errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}
