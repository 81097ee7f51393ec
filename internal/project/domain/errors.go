package domain

import (
	"github.com/allisson/keyguard/internal/errors"
)

// Project errors.
var (
	// ErrProjectNotFound indicates the project does not exist.
	ErrProjectNotFound = errors.Wrap(errors.ErrNotFound, "project not found")

	// ErrInvalidProjectSecret indicates the presented project secret is malformed or does not match.
	ErrInvalidProjectSecret = errors.Wrap(errors.ErrUnauthorized, "invalid project secret")

	// ErrProjectNotActive indicates the project is INACTIVE or REVOKED.
	ErrProjectNotActive = errors.Wrap(errors.ErrForbidden, "project not active")

	// ErrProviderKeyUnavailable indicates the provider key is missing or cannot be decrypted.
	ErrProviderKeyUnavailable = errors.Wrap(errors.ErrUnavailable, "provider key unavailable")

	// ErrInvalidProjectName indicates the project name is empty.
	ErrInvalidProjectName = errors.Wrap(errors.ErrInvalidInput, "project name is required")
)
