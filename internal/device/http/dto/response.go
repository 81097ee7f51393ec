package dto

import (
	"time"

	deviceDomain "github.com/allisson/keyguard/internal/device/domain"
	signingService "github.com/allisson/keyguard/internal/signing/service"
)

// EnrollDeviceResponse is returned by the enroll endpoint.
type EnrollDeviceResponse struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// MapDeviceToEnrollResponse converts a device to an enroll response.
func MapDeviceToEnrollResponse(device *deviceDomain.Device) EnrollDeviceResponse {
	return EnrollDeviceResponse{
		ID:        device.ID.String(),
		Status:    string(device.Status),
		CreatedAt: device.CreatedAt,
	}
}

// DeviceResponse represents a device in admin API responses.
type DeviceResponse struct {
	ID              string         `json:"id"`
	ProjectID       string         `json:"project_id"`
	KeyID           string         `json:"key_id"`
	FingerprintHash string         `json:"fingerprint_hash"`
	PublicKeyPEM    string         `json:"public_key_pem"`
	Status          string         `json:"status"`
	Label           string         `json:"label,omitempty"`
	UserAgent       string         `json:"user_agent,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	LastSeenAt      *time.Time     `json:"last_seen_at"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// MapDeviceToResponse converts a device to an admin API response.
func MapDeviceToResponse(device *deviceDomain.Device) DeviceResponse {
	return DeviceResponse{
		ID:              device.ID.String(),
		ProjectID:       device.ProjectID.String(),
		KeyID:           device.KeyID,
		FingerprintHash: device.FingerprintHash,
		PublicKeyPEM:    signingService.WrapPublicKeyPEM(device.PublicKey),
		Status:          string(device.Status),
		Label:           device.Label,
		UserAgent:       device.UserAgent,
		Metadata:        device.Metadata,
		LastSeenAt:      device.LastSeenAt,
		CreatedAt:       device.CreatedAt,
		UpdatedAt:       device.UpdatedAt,
	}
}

// ListDevicesResponse represents a paginated list of devices.
type ListDevicesResponse struct {
	Data []DeviceResponse `json:"data"`
}

// MapDevicesToListResponse converts devices to a list response.
func MapDevicesToListResponse(devices []*deviceDomain.Device) ListDevicesResponse {
	data := make([]DeviceResponse, 0, len(devices))
	for _, device := range devices {
		data = append(data, MapDeviceToResponse(device))
	}
	return ListDevicesResponse{Data: data}
}

// EnrollmentCodeResponse is returned once when an enrollment code is created.
type EnrollmentCodeResponse struct {
	ID        string     `json:"id"`
	Code      string     `json:"code"`
	ExpiresAt *time.Time `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// MapEnrollmentCodeToResponse converts an enrollment code to a response.
func MapEnrollmentCodeToResponse(code *deviceDomain.EnrollmentCode) EnrollmentCodeResponse {
	return EnrollmentCodeResponse{
		ID:        code.ID.String(),
		Code:      code.Code,
		ExpiresAt: code.ExpiresAt,
		CreatedAt: code.CreatedAt,
	}
}
