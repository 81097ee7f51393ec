package service

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"

	signingDomain "github.com/allisson/keyguard/internal/signing/domain"
)

// ECDSAP256Verifier verifies ECDSA P-256/SHA-256 signatures supplied in IEEE-P1363 form
// against SPKI public keys.
type ECDSAP256Verifier struct{}

// NewECDSAP256Verifier creates a new ECDSAP256Verifier.
func NewECDSAP256Verifier() *ECDSAP256Verifier {
	return &ECDSAP256Verifier{}
}

// Algorithm returns the ECDSA_P256_SHA256 identifier.
func (v *ECDSAP256Verifier) Algorithm() string {
	return signingDomain.AlgorithmECDSAP256SHA256
}

// Verify decodes the key and signature, converts the signature to DER and verifies it.
// Malformed keys, malformed signatures and non P-256 keys all yield false.
func (v *ECDSAP256Verifier) Verify(publicKeySPKIBase64, signatureBase64 string, payload []byte) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	pub, err := ParseP256PublicKey(publicKeySPKIBase64)
	if err != nil {
		return false
	}

	rawSig, err := base64.StdEncoding.DecodeString(signatureBase64)
	if err != nil {
		return false
	}

	derSig, err := P1363ToDER(rawSig)
	if err != nil {
		return false
	}

	digest := sha256.Sum256(payload)
	return ecdsa.VerifyASN1(pub, digest[:], derSig)
}

// ParseP256PublicKey decodes a base64 SPKI public key and checks it is on P-256.
func ParseP256PublicKey(spkiBase64 string) (*ecdsa.PublicKey, error) {
	der, err := base64.StdEncoding.DecodeString(spkiBase64)
	if err != nil {
		return nil, err
	}

	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, err
	}

	pub, ok := parsed.(*ecdsa.PublicKey)
	if !ok || pub.Curve != elliptic.P256() {
		return nil, errNotP256
	}
	return pub, nil
}
