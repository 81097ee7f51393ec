// Package domain defines enrolled devices, their lifecycle, and single-use enrollment codes.
//
// A device is created PENDING, or ACTIVE when a valid enrollment code is presented. Operators
// move it between states:
//
//	PENDING   --approve-->    ACTIVE
//	ACTIVE    --suspend-->    SUSPENDED
//	SUSPENDED --reactivate--> ACTIVE
//	any non-terminal --revoke--> REVOKED (terminal)
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// DeviceStatus is the lifecycle state of a device.
type DeviceStatus string

const (
	DeviceStatusPending   DeviceStatus = "PENDING"
	DeviceStatusActive    DeviceStatus = "ACTIVE"
	DeviceStatusSuspended DeviceStatus = "SUSPENDED"
	DeviceStatusRevoked   DeviceStatus = "REVOKED"
)

// Device is a client installation holding a P-256 signing key.
type Device struct {
	ID              uuid.UUID
	ProjectID       uuid.UUID
	KeyID           string // Client-chosen signing key identifier, unique per project
	FingerprintHash string // SHA-256 hex of the installation fingerprint, globally unique
	PublicKey       string // SPKI, base64
	Status          DeviceStatus
	Label           string
	UserAgent       string
	Metadata        map[string]any
	LastSeenAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsActive reports whether the device may sign requests.
func (d *Device) IsActive() bool {
	return d.Status == DeviceStatusActive
}

// Approve moves a PENDING device to ACTIVE.
func (d *Device) Approve(now time.Time) error {
	return d.transition(DeviceStatusPending, DeviceStatusActive, now)
}

// Suspend moves an ACTIVE device to SUSPENDED.
func (d *Device) Suspend(now time.Time) error {
	return d.transition(DeviceStatusActive, DeviceStatusSuspended, now)
}

// Reactivate moves a SUSPENDED device back to ACTIVE.
func (d *Device) Reactivate(now time.Time) error {
	return d.transition(DeviceStatusSuspended, DeviceStatusActive, now)
}

// Revoke moves any non-terminal device to REVOKED.
func (d *Device) Revoke(now time.Time) error {
	if d.Status == DeviceStatusRevoked {
		return ErrDeviceAlreadyRevoked
	}
	d.Status = DeviceStatusRevoked
	d.UpdatedAt = now
	return nil
}

func (d *Device) transition(from, to DeviceStatus, now time.Time) error {
	if d.Status != from {
		return newInvalidTransitionError(d.Status, to)
	}
	d.Status = to
	d.UpdatedAt = now
	return nil
}

// HashFingerprint returns the stored form of an installation fingerprint.
func HashFingerprint(fingerprint string) string {
	sum := sha256.Sum256([]byte(fingerprint))
	return hex.EncodeToString(sum[:])
}

// EnrollDeviceInput contains the client-supplied enrollment data.
type EnrollDeviceInput struct {
	PublicKey      string
	KeyID          string
	Fingerprint    string
	Label          string
	UserAgent      string
	Metadata       map[string]any
	EnrollmentCode string
}

// EnrollDeviceOutput is the result of an enrollment. Created is false when an existing
// device with the same fingerprint was returned.
type EnrollDeviceOutput struct {
	Device  *Device
	Created bool
}
