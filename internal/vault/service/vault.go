// Package service implements the credential vault protecting upstream provider keys at rest.
package service

import (
	"encoding/base64"

	vaultDomain "github.com/allisson/keyguard/internal/vault/domain"
)

// Vault encrypts and decrypts provider credentials.
type Vault interface {
	// Encrypt returns base64(iv(12) || tag(16) || ciphertext).
	Encrypt(plaintext []byte) (string, error)

	// Decrypt reverses Encrypt. Returns ErrInvalidCiphertext for malformed blobs and
	// ErrDecryptionFailed when authentication fails.
	Decrypt(blob string) ([]byte, error)
}

type aesGCMVault struct {
	cipher *AESGCMCipher
}

// NewVault creates a Vault backed by AES-256-GCM using the 32-byte key.
func NewVault(key []byte) (Vault, error) {
	c, err := NewAESGCM(key)
	if err != nil {
		return nil, err
	}
	return &aesGCMVault{cipher: c}, nil
}

// Encrypt seals plaintext under a fresh random IV.
func (v *aesGCMVault) Encrypt(plaintext []byte) (string, error) {
	nonce, tag, ciphertext, err := v.cipher.Seal(plaintext)
	if err != nil {
		return "", err
	}

	out := make([]byte, 0, len(nonce)+len(tag)+len(ciphertext))
	out = append(out, nonce...)
	out = append(out, tag...)
	out = append(out, ciphertext...)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt splits the blob into iv, tag and ciphertext and opens it.
func (v *aesGCMVault) Decrypt(blob string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, vaultDomain.ErrInvalidCiphertext
	}
	if len(raw) < gcmNonceSize+gcmTagSize {
		return nil, vaultDomain.ErrInvalidCiphertext
	}

	nonce := raw[:gcmNonceSize]
	tag := raw[gcmNonceSize : gcmNonceSize+gcmTagSize]
	ciphertext := raw[gcmNonceSize+gcmTagSize:]

	return v.cipher.Open(nonce, tag, ciphertext)
}
