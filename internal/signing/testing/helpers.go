// Package testing provides shared test utilities for producing signed KeyGuard requests.
package testing

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/google/uuid"

	signingDomain "github.com/allisson/keyguard/internal/signing/domain"
)

// DeviceKey is a test device signing key.
type DeviceKey struct {
	Private      *ecdsa.PrivateKey
	PublicKeyB64 string // SPKI, base64
	KeyID        string
}

// NewDeviceKey generates a fresh P-256 device key.
func NewDeviceKey(keyID string) *DeviceKey {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		panic(err)
	}
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		panic(err)
	}
	return &DeviceKey{
		Private:      priv,
		PublicKeyB64: base64.StdEncoding.EncodeToString(der),
		KeyID:        keyID,
	}
}

// SignP1363 signs payload and returns the raw 64-byte r || s signature.
func (k *DeviceKey) SignP1363(payload []byte) []byte {
	digest := sha256.Sum256(payload)
	r, s, err := ecdsa.Sign(rand.Reader, k.Private, digest[:])
	if err != nil {
		panic(err)
	}
	out := make([]byte, 64)
	r.FillBytes(out[:32])
	s.FillBytes(out[32:])
	return out
}

// Sign signs payload and returns the base64 P1363 signature.
func (k *DeviceKey) Sign(payload []byte) string {
	return base64.StdEncoding.EncodeToString(k.SignP1363(payload))
}

// SignedHeaders holds the header values of one signed request.
type SignedHeaders struct {
	Algorithm     string
	Timestamp     string
	Nonce         string
	BodyHash      string
	KeyID         string
	ProjectSecret string
	Signature     string
}

// SignRequest produces signed headers for the given request metadata at time at.
func (k *DeviceKey) SignRequest(
	method, pathWithQuery string,
	body []byte,
	projectSecret string,
	at time.Time,
) SignedHeaders {
	h := SignedHeaders{
		Algorithm:     signingDomain.AlgorithmECDSAP256SHA256,
		Timestamp:     at.UTC().Format(time.RFC3339Nano),
		Nonce:         uuid.NewString(),
		BodyHash:      signingDomain.HashBody(body),
		KeyID:         k.KeyID,
		ProjectSecret: projectSecret,
	}
	payload := signingDomain.BuildCanonicalPayload(signingDomain.CanonicalInput{
		Timestamp:     h.Timestamp,
		Method:        method,
		PathWithQuery: pathWithQuery,
		BodyHash:      h.BodyHash,
		Nonce:         h.Nonce,
		ProjectSecret: projectSecret,
		KeyID:         k.KeyID,
	})
	h.Signature = k.Sign([]byte(payload))
	return h
}

// Apply sets the signed headers on r.
func (h SignedHeaders) Apply(r *http.Request) {
	r.Header.Set(signingDomain.HeaderAlgorithm, h.Algorithm)
	r.Header.Set(signingDomain.HeaderTimestamp, h.Timestamp)
	r.Header.Set(signingDomain.HeaderNonce, h.Nonce)
	r.Header.Set(signingDomain.HeaderBodySHA256, h.BodyHash)
	r.Header.Set(signingDomain.HeaderKeyID, h.KeyID)
	r.Header.Set(signingDomain.HeaderProjectSecret, h.ProjectSecret)
	r.Header.Set(signingDomain.HeaderSignature, h.Signature)
}
