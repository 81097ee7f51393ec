// Package domain defines the KeyGuard request-signing protocol: the canonical payload
// both signer and verifier compute, the body digest, and the headers that carry them.
package domain

const (
	// ProtocolVersion prefixes every canonical payload.
	ProtocolVersion = "kg-v1"

	// AlgorithmECDSAP256SHA256 is the only algorithm identifier accepted by the verifier.
	// Signatures are ECDSA over P-256 with SHA-256, encoded as IEEE-P1363 (r || s).
	AlgorithmECDSAP256SHA256 = "ECDSA_P256_SHA256"
)

// MaxNonceLength is the longest X-KG-Nonce accepted, in bytes. It matches the nonce column width.
const MaxNonceLength = 128

// Headers carried by every signed request.
const (
	HeaderAlgorithm     = "X-KG-Algorithm"
	HeaderTimestamp     = "X-KG-Timestamp"
	HeaderNonce         = "X-KG-Nonce"
	HeaderBodySHA256    = "X-KG-Body-SHA256"
	HeaderKeyID         = "X-KG-Key-Id"
	HeaderProjectSecret = "X-KG-Project-Secret" //nolint:gosec // header name, not a credential
	HeaderSignature     = "X-KG-Signature"
)

// SignedHeaders lists the headers required on protected calls, in canonical order.
var SignedHeaders = []string{
	HeaderAlgorithm,
	HeaderTimestamp,
	HeaderNonce,
	HeaderBodySHA256,
	HeaderKeyID,
	HeaderProjectSecret,
	HeaderSignature,
}
