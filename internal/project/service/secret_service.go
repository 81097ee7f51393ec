// Package service provides project secret generation and Argon2id verification.
package service

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"

	"github.com/allisson/go-pwdhash"

	apperrors "github.com/allisson/keyguard/internal/errors"
	projectDomain "github.com/allisson/keyguard/internal/project/domain"
)

// SecretService generates and verifies project secrets.
type SecretService interface {
	// GenerateSecret returns the plaintext secret (shown once), its public prefix and
	// the Argon2id hash to store.
	GenerateSecret() (plainSecret, prefix, hashedSecret string, err error)

	// CompareSecret reports whether plainSecret matches hashedSecret in constant time.
	CompareSecret(plainSecret, hashedSecret string) bool
}

type secretService struct {
	hasher *pwdhash.PasswordHasher
}

// GenerateSecret creates a kgp_<prefix>_<body> secret with a 6-byte hex prefix and
// a 32-byte random body.
func (s *secretService) GenerateSecret() (string, string, string, error) {
	prefixBytes := make([]byte, projectDomain.SecretPrefixLength/2)
	if _, err := rand.Read(prefixBytes); err != nil {
		return "", "", "", apperrors.Wrap(err, "failed to generate secret prefix")
	}
	body := make([]byte, 32)
	if _, err := rand.Read(body); err != nil {
		return "", "", "", apperrors.Wrap(err, "failed to generate random secret")
	}

	prefix := hex.EncodeToString(prefixBytes)
	plainSecret := projectDomain.FormatSecret(prefix, base64.RawURLEncoding.EncodeToString(body))

	hashedSecret, err := s.hasher.Hash([]byte(plainSecret))
	if err != nil {
		return "", "", "", apperrors.Wrap(err, "failed to hash secret")
	}

	return plainSecret, prefix, hashedSecret, nil
}

// CompareSecret verifies plainSecret against the stored Argon2id hash.
func (s *secretService) CompareSecret(plainSecret, hashedSecret string) bool {
	ok, err := s.hasher.Verify([]byte(plainSecret), hashedSecret)
	if err != nil {
		return false
	}
	return ok
}

// NewSecretService creates a SecretService using the Moderate Argon2id policy.
func NewSecretService() SecretService {
	hasher, err := pwdhash.New(
		pwdhash.WithPolicy(pwdhash.PolicyModerate),
	)
	if err != nil {
		panic(err)
	}

	return &secretService{hasher: hasher}
}
