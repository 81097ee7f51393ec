package usecase

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/keyguard/internal/database"
	deviceDomain "github.com/allisson/keyguard/internal/device/domain"
	apperrors "github.com/allisson/keyguard/internal/errors"
)

var codeEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

type deviceUseCase struct {
	txManager  database.TxManager
	deviceRepo DeviceRepository
	codeRepo   EnrollmentCodeRepository
}

// Enroll validates the public key and creates the device, or returns the existing one.
func (d *deviceUseCase) Enroll(
	ctx context.Context,
	projectID uuid.UUID,
	input *deviceDomain.EnrollDeviceInput,
) (*deviceDomain.EnrollDeviceOutput, error) {
	if strings.TrimSpace(input.KeyID) == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "key id is required")
	}
	if strings.TrimSpace(input.Fingerprint) == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "fingerprint is required")
	}
	if err := deviceDomain.ValidatePublicKey(input.PublicKey); err != nil {
		return nil, err
	}

	fingerprintHash := deviceDomain.HashFingerprint(input.Fingerprint)

	var output *deviceDomain.EnrollDeviceOutput
	err := d.txManager.WithTx(ctx, func(ctx context.Context) error {
		existing, err := d.existingEnrollment(ctx, projectID, fingerprintHash)
		if err != nil {
			return err
		}
		if existing != nil {
			output = &deviceDomain.EnrollDeviceOutput{Device: existing}
			return nil
		}

		if _, err := d.deviceRepo.GetByKeyID(ctx, projectID, input.KeyID); err == nil {
			return deviceDomain.ErrKeyIDTaken
		} else if !apperrors.Is(err, deviceDomain.ErrDeviceNotFound) {
			return err
		}

		now := time.Now().UTC()
		device := &deviceDomain.Device{
			ID:              uuid.Must(uuid.NewV7()),
			ProjectID:       projectID,
			KeyID:           input.KeyID,
			FingerprintHash: fingerprintHash,
			PublicKey:       input.PublicKey,
			Status:          deviceDomain.DeviceStatusPending,
			Label:           input.Label,
			UserAgent:       input.UserAgent,
			Metadata:        input.Metadata,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		var code *deviceDomain.EnrollmentCode
		if input.EnrollmentCode != "" {
			code, err = d.codeRepo.GetByCodeForUpdate(ctx, input.EnrollmentCode)
			if err != nil {
				if apperrors.Is(err, deviceDomain.ErrEnrollmentCodeNotFound) {
					return deviceDomain.ErrInvalidEnrollmentCode
				}
				return err
			}
			if code.ProjectID != projectID || !code.IsValid(now) {
				return deviceDomain.ErrInvalidEnrollmentCode
			}
			device.Status = deviceDomain.DeviceStatusActive
		}

		if err := d.deviceRepo.Create(ctx, device); err != nil {
			return err
		}

		if code != nil {
			code.Consume(device.ID, now)
			if err := d.codeRepo.Update(ctx, code); err != nil {
				return err
			}
		}

		output = &deviceDomain.EnrollDeviceOutput{Device: device, Created: true}
		return nil
	})
	if err != nil {
		// A concurrent enrollment with the same fingerprint won the insert race.
		if apperrors.Is(err, apperrors.ErrConflict) {
			if existing, lookupErr := d.existingEnrollment(ctx, projectID, fingerprintHash); lookupErr == nil &&
				existing != nil {
				return &deviceDomain.EnrollDeviceOutput{Device: existing}, nil
			}
		}
		return nil, err
	}

	return output, nil
}

// existingEnrollment returns the device enrolled with fingerprintHash, nil when there is none,
// or ErrFingerprintConflict when it belongs to another project.
func (d *deviceUseCase) existingEnrollment(
	ctx context.Context,
	projectID uuid.UUID,
	fingerprintHash string,
) (*deviceDomain.Device, error) {
	existing, err := d.deviceRepo.GetByFingerprintHash(ctx, fingerprintHash)
	if err != nil {
		if apperrors.Is(err, deviceDomain.ErrDeviceNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if existing.ProjectID != projectID {
		return nil, deviceDomain.ErrFingerprintConflict
	}
	return existing, nil
}

// Get retrieves a device by ID.
func (d *deviceUseCase) Get(ctx context.Context, deviceID uuid.UUID) (*deviceDomain.Device, error) {
	return d.deviceRepo.Get(ctx, deviceID)
}

// GetByKeyID retrieves a device by project and key id.
func (d *deviceUseCase) GetByKeyID(
	ctx context.Context,
	projectID uuid.UUID,
	keyID string,
) (*deviceDomain.Device, error) {
	return d.deviceRepo.GetByKeyID(ctx, projectID, keyID)
}

// List retrieves the devices of a project with pagination.
func (d *deviceUseCase) List(
	ctx context.Context,
	projectID uuid.UUID,
	offset, limit int,
) ([]*deviceDomain.Device, error) {
	return d.deviceRepo.List(ctx, projectID, offset, limit)
}

// Approve moves a PENDING device to ACTIVE.
func (d *deviceUseCase) Approve(ctx context.Context, deviceID uuid.UUID) (*deviceDomain.Device, error) {
	return d.transition(ctx, deviceID, (*deviceDomain.Device).Approve)
}

// Suspend moves an ACTIVE device to SUSPENDED.
func (d *deviceUseCase) Suspend(ctx context.Context, deviceID uuid.UUID) (*deviceDomain.Device, error) {
	return d.transition(ctx, deviceID, (*deviceDomain.Device).Suspend)
}

// Reactivate moves a SUSPENDED device to ACTIVE.
func (d *deviceUseCase) Reactivate(ctx context.Context, deviceID uuid.UUID) (*deviceDomain.Device, error) {
	return d.transition(ctx, deviceID, (*deviceDomain.Device).Reactivate)
}

// Revoke moves a non-terminal device to REVOKED.
func (d *deviceUseCase) Revoke(ctx context.Context, deviceID uuid.UUID) (*deviceDomain.Device, error) {
	return d.transition(ctx, deviceID, (*deviceDomain.Device).Revoke)
}

func (d *deviceUseCase) transition(
	ctx context.Context,
	deviceID uuid.UUID,
	apply func(*deviceDomain.Device, time.Time) error,
) (*deviceDomain.Device, error) {
	var device *deviceDomain.Device
	err := d.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		device, err = d.deviceRepo.GetForUpdate(ctx, deviceID)
		if err != nil {
			return err
		}
		if err := apply(device, time.Now().UTC()); err != nil {
			return err
		}
		return d.deviceRepo.Update(ctx, device)
	})
	if err != nil {
		return nil, err
	}
	return device, nil
}

// TouchLastSeen records the time of the device's latest verified request.
func (d *deviceUseCase) TouchLastSeen(ctx context.Context, deviceID uuid.UUID, at time.Time) error {
	return d.deviceRepo.UpdateLastSeen(ctx, deviceID, at.UTC())
}

// CreateEnrollmentCode issues a random XXXX-XXXX-XXXX-XXXX code.
func (d *deviceUseCase) CreateEnrollmentCode(
	ctx context.Context,
	projectID uuid.UUID,
	ttl time.Duration,
) (*deviceDomain.EnrollmentCode, error) {
	if ttl < 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "ttl must not be negative")
	}

	raw := make([]byte, 10)
	if _, err := rand.Read(raw); err != nil {
		return nil, apperrors.Wrap(err, "failed to generate enrollment code")
	}
	encoded := codeEncoding.EncodeToString(raw)

	now := time.Now().UTC()
	code := &deviceDomain.EnrollmentCode{
		ID:        uuid.Must(uuid.NewV7()),
		ProjectID: projectID,
		Code:      encoded[0:4] + "-" + encoded[4:8] + "-" + encoded[8:12] + "-" + encoded[12:16],
		CreatedAt: now,
	}
	if ttl > 0 {
		expiresAt := now.Add(ttl)
		code.ExpiresAt = &expiresAt
	}

	if err := d.codeRepo.Create(ctx, code); err != nil {
		return nil, err
	}
	return code, nil
}

// NewDeviceUseCase creates a new DeviceUseCase.
func NewDeviceUseCase(
	txManager database.TxManager,
	deviceRepo DeviceRepository,
	codeRepo EnrollmentCodeRepository,
) DeviceUseCase {
	return &deviceUseCase{
		txManager:  txManager,
		deviceRepo: deviceRepo,
		codeRepo:   codeRepo,
	}
}
