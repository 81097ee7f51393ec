// Package domain defines the credential vault errors and key material types.
package domain

import (
	"github.com/allisson/keyguard/internal/errors"
)

// Credential vault error definitions.
//
// Vault failures must fail the proxy closed: callers map every one of these to
// an unavailable provider credential, never to a forward without a key.
var (
	// ErrInvalidKeySize indicates the vault key is not exactly 32 bytes.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "vault key must be 32 bytes")

	// ErrVaultKeyNotSet indicates VAULT_KEY was not configured.
	ErrVaultKeyNotSet = errors.Wrap(errors.ErrInvalidInput, "vault key not set")

	// ErrInvalidVaultKeyBase64 indicates VAULT_KEY is not valid base64.
	ErrInvalidVaultKeyBase64 = errors.Wrap(errors.ErrInvalidInput, "vault key is not valid base64")

	// ErrInvalidKMSKeyURI indicates KMS_KEY_URI cannot be parsed or names an unknown provider.
	ErrInvalidKMSKeyURI = errors.Wrap(errors.ErrInvalidInput, "invalid KMS key URI")

	// ErrInvalidCiphertext indicates the encrypted blob is malformed (bad base64 or too short).
	ErrInvalidCiphertext = errors.Wrap(errors.ErrInvalidInput, "invalid ciphertext")

	// ErrDecryptionFailed indicates authentication of the ciphertext failed:
	// it was tampered with or encrypted under another key.
	//
	// For security reasons, the specific cause is not disclosed.
	ErrDecryptionFailed = errors.Wrap(errors.ErrInvalidInput, "decryption failed")
)
