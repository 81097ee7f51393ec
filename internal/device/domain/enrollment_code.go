package domain

import (
	"time"

	"github.com/google/uuid"
)

// EnrollmentCode is a single-use code that activates a device on enrollment.
type EnrollmentCode struct {
	ID             uuid.UUID
	ProjectID      uuid.UUID
	Code           string
	ExpiresAt      *time.Time
	Used           bool
	UsedAt         *time.Time
	UsedByDeviceID *uuid.UUID
	CreatedAt      time.Time
}

// IsValid reports whether the code is unused and not expired at now.
func (e *EnrollmentCode) IsValid(now time.Time) bool {
	if e.Used {
		return false
	}
	return e.ExpiresAt == nil || now.Before(*e.ExpiresAt)
}

// Consume marks the code as used by deviceID.
func (e *EnrollmentCode) Consume(deviceID uuid.UUID, now time.Time) {
	e.Used = true
	e.UsedAt = &now
	e.UsedByDeviceID = &deviceID
}
