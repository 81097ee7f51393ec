// Package service provides HMAC signing of audit records.
package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	auditDomain "github.com/allisson/keyguard/internal/audit/domain"
	vaultDomain "github.com/allisson/keyguard/internal/vault/domain"
)

const signingKeyInfo = "keyguard-audit-signing-v1"

// AuditSigner signs and verifies audit records.
type AuditSigner interface {
	// Sign returns the HMAC-SHA256 of the record under a key derived from rootKey.
	Sign(rootKey []byte, log *auditDomain.AuditLog) ([]byte, error)

	// Verify returns ErrSignatureInvalid when the record's signature does not match.
	Verify(rootKey []byte, log *auditDomain.AuditLog) error
}

type auditSigner struct{}

// NewAuditSigner creates an AuditSigner using HKDF-SHA256 key derivation and HMAC-SHA256.
func NewAuditSigner() AuditSigner {
	return &auditSigner{}
}

// deriveSigningKey separates the audit signing key from the vault encryption key.
func (a *auditSigner) deriveSigningKey(rootKey []byte) ([]byte, error) {
	reader := hkdf.New(sha256.New, rootKey, nil, []byte(signingKeyInfo))

	signingKey := make([]byte, 32)
	if _, err := io.ReadFull(reader, signingKey); err != nil {
		return nil, err
	}
	return signingKey, nil
}

// canonicalize encodes every field except Signature. Variable-length fields are
// length-prefixed so distinct records never share an encoding.
func (a *auditSigner) canonicalize(log *auditDomain.AuditLog) []byte {
	buf := make([]byte, 0, 256)

	buf = append(buf, log.ID[:]...)
	buf = append(buf, log.ProjectID[:]...)
	if log.DeviceID != nil {
		buf = append(buf, 1)
		buf = append(buf, log.DeviceID[:]...)
	} else {
		buf = append(buf, 0)
	}

	buf = appendLengthPrefixed(buf, []byte(log.RequestID))
	buf = appendLengthPrefixed(buf, []byte(log.Endpoint))
	buf = appendLengthPrefixed(buf, []byte(log.Method))
	buf = binary.BigEndian.AppendUint32(buf, uint32(log.StatusCode)) //nolint:gosec // http status
	buf = binary.BigEndian.AppendUint64(buf, uint64(log.LatencyMs))  //nolint:gosec // non-negative
	buf = appendLengthPrefixed(buf, []byte(log.Outcome))
	buf = appendLengthPrefixed(buf, []byte(log.ErrorSummary))
	buf = binary.BigEndian.AppendUint64(buf, uint64(log.CreatedAt.UnixMicro())) //nolint:gosec // post-epoch

	return buf
}

func appendLengthPrefixed(buf []byte, data []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(data))) //nolint:gosec // bounded by column sizes
	return append(buf, data...)
}

// Sign computes the record signature.
func (a *auditSigner) Sign(rootKey []byte, log *auditDomain.AuditLog) ([]byte, error) {
	signingKey, err := a.deriveSigningKey(rootKey)
	if err != nil {
		return nil, fmt.Errorf("failed to derive signing key: %w", err)
	}
	defer vaultDomain.Zero(signingKey)

	mac := hmac.New(sha256.New, signingKey)
	mac.Write(a.canonicalize(log))
	return mac.Sum(nil), nil
}

// Verify recomputes the signature and compares it in constant time.
func (a *auditSigner) Verify(rootKey []byte, log *auditDomain.AuditLog) error {
	expected, err := a.Sign(rootKey, log)
	if err != nil {
		return fmt.Errorf("failed to compute expected signature: %w", err)
	}

	if !hmac.Equal(log.Signature, expected) {
		return auditDomain.ErrSignatureInvalid
	}
	return nil
}
