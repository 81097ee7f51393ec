// Package domain defines the inputs and outcomes of signed request verification.
package domain

import "github.com/google/uuid"

// Rejection messages returned in Result.Error. Clients match on these strings.
const (
	ErrMsgUnsupportedAlgorithm = "unsupported algorithm"
	ErrMsgInvalidTimestamp     = "invalid timestamp"
	ErrMsgTimestampOutOfWindow = "timestamp outside allowed window"
	ErrMsgDeviceNotFound       = "device not found"
	ErrMsgDeviceNotActive      = "device not active"
	ErrMsgReplayDetected       = "replay detected: nonce already used"
	ErrMsgBodyHashMismatch     = "body hash mismatch"
	ErrMsgInvalidSignature     = "invalid signature"
	ErrMsgVerificationFailed   = "verification failed"
)

// VerifyInput carries the signed headers and the raw request needed to check them.
type VerifyInput struct {
	ProjectID     uuid.UUID
	ProjectSecret string
	Algorithm     string
	Timestamp     string
	Nonce         string
	BodyHash      string
	KeyID         string
	Signature     string
	Method        string
	PathWithQuery string
	Body          []byte
}

// Result is the outcome of a verification. Rejections are values, never errors.
type Result struct {
	Valid    bool   `json:"valid"`
	DeviceID string `json:"device_id,omitempty"`
	KeyID    string `json:"key_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Reject returns an invalid result carrying msg.
func Reject(msg string) *Result {
	return &Result{Valid: false, Error: msg}
}

// Accept returns a valid result for the device.
func Accept(deviceID uuid.UUID, keyID string) *Result {
	return &Result{Valid: true, DeviceID: deviceID.String(), KeyID: keyID}
}
