// Package usecase implements the device registry: enrollment, lookup and lifecycle transitions.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	deviceDomain "github.com/allisson/keyguard/internal/device/domain"
)

// DeviceRepository defines persistence operations for devices.
// Implementations must support transaction-aware operations via context propagation.
type DeviceRepository interface {
	// Create returns an error wrapping ErrConflict when the fingerprint or (project, key id)
	// is already taken.
	Create(ctx context.Context, device *deviceDomain.Device) error

	Update(ctx context.Context, device *deviceDomain.Device) error

	// Get returns ErrDeviceNotFound if the device does not exist.
	Get(ctx context.Context, deviceID uuid.UUID) (*deviceDomain.Device, error)

	// GetForUpdate is Get with the row locked until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, deviceID uuid.UUID) (*deviceDomain.Device, error)

	GetByKeyID(ctx context.Context, projectID uuid.UUID, keyID string) (*deviceDomain.Device, error)

	GetByFingerprintHash(ctx context.Context, fingerprintHash string) (*deviceDomain.Device, error)

	// List returns the devices of a project ordered by creation time, newest first.
	List(ctx context.Context, projectID uuid.UUID, offset, limit int) ([]*deviceDomain.Device, error)

	UpdateLastSeen(ctx context.Context, deviceID uuid.UUID, lastSeenAt time.Time) error
}

// EnrollmentCodeRepository defines persistence operations for enrollment codes.
type EnrollmentCodeRepository interface {
	Create(ctx context.Context, code *deviceDomain.EnrollmentCode) error

	// GetByCodeForUpdate locks the code row for the rest of the transaction.
	// Returns ErrEnrollmentCodeNotFound if the code does not exist.
	GetByCodeForUpdate(ctx context.Context, code string) (*deviceDomain.EnrollmentCode, error)

	Update(ctx context.Context, code *deviceDomain.EnrollmentCode) error
}

// DeviceUseCase defines device registry operations.
type DeviceUseCase interface {
	// Enroll registers a device under projectID. Enrollment is idempotent by fingerprint:
	// a repeat returns the existing record unchanged with Created=false. A valid enrollment
	// code activates the device immediately and is consumed in the same transaction.
	Enroll(
		ctx context.Context,
		projectID uuid.UUID,
		input *deviceDomain.EnrollDeviceInput,
	) (*deviceDomain.EnrollDeviceOutput, error)

	Get(ctx context.Context, deviceID uuid.UUID) (*deviceDomain.Device, error)

	// GetByKeyID looks a device up within a project.
	GetByKeyID(ctx context.Context, projectID uuid.UUID, keyID string) (*deviceDomain.Device, error)

	List(ctx context.Context, projectID uuid.UUID, offset, limit int) ([]*deviceDomain.Device, error)

	// Approve moves PENDING to ACTIVE. Any other status returns ErrInvalidDeviceTransition.
	Approve(ctx context.Context, deviceID uuid.UUID) (*deviceDomain.Device, error)

	// Suspend moves ACTIVE to SUSPENDED.
	Suspend(ctx context.Context, deviceID uuid.UUID) (*deviceDomain.Device, error)

	// Reactivate moves SUSPENDED to ACTIVE.
	Reactivate(ctx context.Context, deviceID uuid.UUID) (*deviceDomain.Device, error)

	// Revoke moves any non-terminal device to REVOKED. Revoking twice returns ErrDeviceAlreadyRevoked.
	Revoke(ctx context.Context, deviceID uuid.UUID) (*deviceDomain.Device, error)

	TouchLastSeen(ctx context.Context, deviceID uuid.UUID, at time.Time) error

	// CreateEnrollmentCode issues a single-use code. A zero ttl means the code never expires.
	CreateEnrollmentCode(
		ctx context.Context,
		projectID uuid.UUID,
		ttl time.Duration,
	) (*deviceDomain.EnrollmentCode, error)
}
