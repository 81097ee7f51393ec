package domain

import (
	"fmt"

	"github.com/allisson/keyguard/internal/errors"
)

// Device registry errors.
var (
	ErrDeviceNotFound = errors.Wrap(errors.ErrNotFound, "device not found")

	ErrEnrollmentCodeNotFound = errors.Wrap(errors.ErrNotFound, "enrollment code not found")

	// ErrInvalidDeviceTransition indicates the lifecycle operation is not allowed from the current status.
	ErrInvalidDeviceTransition = errors.Wrap(errors.ErrConflict, "invalid device status transition")

	// ErrDeviceAlreadyRevoked is returned when revoking a REVOKED device.
	ErrDeviceAlreadyRevoked = errors.Wrap(errors.ErrConflict, "device already revoked")

	// ErrKeyIDTaken indicates another device of the project already uses the key id.
	ErrKeyIDTaken = errors.Wrap(errors.ErrConflict, "key id already enrolled in project")

	// ErrFingerprintConflict indicates the fingerprint is enrolled under another project.
	ErrFingerprintConflict = errors.Wrap(errors.ErrConflict, "fingerprint enrolled in another project")

	// ErrInvalidEnrollmentCode covers unknown, expired, used and cross-project codes.
	ErrInvalidEnrollmentCode = errors.Wrap(errors.ErrInvalidInput, "invalid or expired enrollment code")

	ErrInvalidPublicKey = errors.Wrap(errors.ErrInvalidInput, "invalid public key")
)

func newInvalidTransitionError(from, to DeviceStatus) error {
	return fmt.Errorf("%w: cannot move from %s to %s", ErrInvalidDeviceTransition, from, to)
}
