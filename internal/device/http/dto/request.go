// Package dto provides data transfer objects for device HTTP handlers.
package dto

import (
	validation "github.com/jellydator/validation"

	deviceDomain "github.com/allisson/keyguard/internal/device/domain"
	customValidation "github.com/allisson/keyguard/internal/validation"
)

// EnrollDeviceRequest is the body of POST /v1/devices/enroll.
type EnrollDeviceRequest struct {
	PublicKey      string         `json:"public_key"`
	KeyID          string         `json:"key_id"`
	Fingerprint    string         `json:"fingerprint"`
	Label          string         `json:"label"`
	UserAgent      string         `json:"user_agent"`
	Metadata       map[string]any `json:"metadata"`
	EnrollmentCode string         `json:"enrollment_code"`
}

// Validate checks if the enroll request is valid.
func (r *EnrollDeviceRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.PublicKey,
			validation.Required,
			customValidation.Base64,
			customValidation.DERSequence(deviceDomain.MinPublicKeyBytes, deviceDomain.MaxPublicKeyBytes),
		),
		validation.Field(&r.KeyID,
			validation.Required,
			customValidation.Identifier,
			validation.Length(1, 128),
		),
		validation.Field(&r.Fingerprint,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 512),
		),
		validation.Field(&r.Label, validation.Length(0, 255)),
		validation.Field(&r.UserAgent, validation.Length(0, 512)),
		validation.Field(&r.EnrollmentCode, customValidation.NoWhitespace, validation.Length(0, 64)),
	)
}

// ToInput converts the request to the use case input.
func (r *EnrollDeviceRequest) ToInput() *deviceDomain.EnrollDeviceInput {
	return &deviceDomain.EnrollDeviceInput{
		PublicKey:      r.PublicKey,
		KeyID:          r.KeyID,
		Fingerprint:    r.Fingerprint,
		Label:          r.Label,
		UserAgent:      r.UserAgent,
		Metadata:       r.Metadata,
		EnrollmentCode: r.EnrollmentCode,
	}
}

// CreateEnrollmentCodeRequest is the body of POST /v1/admin/projects/:project_id/enrollment-codes.
type CreateEnrollmentCodeRequest struct {
	// TTLSeconds is the code lifetime. Zero means the code never expires.
	TTLSeconds int `json:"ttl_seconds"`
}

// Validate checks if the request is valid.
func (r *CreateEnrollmentCodeRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.TTLSeconds, validation.Min(0), validation.Max(30*24*3600)),
	)
}
