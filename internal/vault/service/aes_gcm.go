package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	vaultDomain "github.com/allisson/keyguard/internal/vault/domain"
)

const (
	// gcmNonceSize is the IV size (96 bits) prepended to every blob.
	gcmNonceSize = 12
	// gcmTagSize is the authentication tag size (128 bits).
	gcmTagSize = 16
)

// AESGCMCipher wraps AES-256-GCM with a fresh random 96-bit nonce per encryption.
//
// The cipher instance is stateless and safe for concurrent use from multiple goroutines.
type AESGCMCipher struct {
	aead cipher.AEAD
}

// NewAESGCM creates a new AES-256-GCM cipher instance.
// The key must be exactly 32 bytes (256 bits).
func NewAESGCM(key []byte) (*AESGCMCipher, error) {
	if len(key) != 32 {
		return nil, vaultDomain.ErrInvalidKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &AESGCMCipher{aead: aead}, nil
}

// Seal encrypts plaintext and returns nonce, tag and ciphertext separately.
func (a *AESGCMCipher) Seal(plaintext []byte) (nonce, tag, ciphertext []byte, err error) {
	nonce = make([]byte, a.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	// Seal appends the tag after the ciphertext
	sealed := a.aead.Seal(nil, nonce, plaintext, nil)
	split := len(sealed) - gcmTagSize
	return nonce, sealed[split:], sealed[:split], nil
}

// Open authenticates and decrypts ciphertext. Returns ErrDecryptionFailed when the tag
// does not verify.
func (a *AESGCMCipher) Open(nonce, tag, ciphertext []byte) ([]byte, error) {
	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := a.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, vaultDomain.ErrDecryptionFailed
	}
	return plaintext, nil
}
