// Package domain defines audit records written for every proxied upstream call.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/keyguard/internal/errors"
)

// Outcome classifies a proxied call.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// ErrSignatureInvalid indicates an audit record does not match its HMAC signature.
var ErrSignatureInvalid = errors.Wrap(errors.ErrInvalidInput, "audit log signature invalid")

// AuditLog records one attempt to forward a request upstream. Signature is an HMAC over
// every other field and lets operators detect tampering after the fact.
type AuditLog struct {
	ID           uuid.UUID
	RequestID    string
	ProjectID    uuid.UUID
	DeviceID     *uuid.UUID
	Endpoint     string
	Method       string
	StatusCode   int
	LatencyMs    int64
	Outcome      Outcome
	ErrorSummary string
	Signature    []byte
	CreatedAt    time.Time
}

// IsSigned reports whether the record carries a signature.
func (a *AuditLog) IsSigned() bool {
	return len(a.Signature) > 0
}

// VerificationReport summarizes an integrity check over a time range.
type VerificationReport struct {
	TotalChecked  int64
	SignedCount   int64
	UnsignedCount int64
	ValidCount    int64
	InvalidCount  int64
	InvalidLogs   []uuid.UUID
}

// Passed reports whether no record failed verification.
func (r *VerificationReport) Passed() bool {
	return r.InvalidCount == 0
}
