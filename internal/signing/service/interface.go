// Package service provides signature verification for the KeyGuard signing protocol.
package service

// SignatureVerifier verifies a device signature over a canonical payload.
// Implementations never panic and never return errors: every failure is false.
type SignatureVerifier interface {
	// Algorithm returns the algorithm identifier this verifier handles.
	Algorithm() string

	// Verify reports whether signatureBase64 is a valid signature of payload under the
	// SPKI public key publicKeySPKIBase64.
	Verify(publicKeySPKIBase64, signatureBase64 string, payload []byte) bool
}
