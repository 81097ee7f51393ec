package domain

import (
	"encoding/base64"
	"fmt"
)

const (
	// MinPublicKeyBytes and MaxPublicKeyBytes bound the decoded SPKI length.
	// A P-256 SPKI is 91 bytes uncompressed, 59 compressed.
	MinPublicKeyBytes = 59
	MaxPublicKeyBytes = 200

	derSequenceTag = 0x30
)

// ValidatePublicKey checks the structural shape of a base64 SPKI public key before it is
// stored. The key is parsed for real only at verification time.
func ValidatePublicKey(spkiBase64 string) error {
	raw, err := base64.StdEncoding.DecodeString(spkiBase64)
	if err != nil {
		return fmt.Errorf("%w: not valid base64", ErrInvalidPublicKey)
	}
	if len(raw) < MinPublicKeyBytes || len(raw) > MaxPublicKeyBytes {
		return fmt.Errorf(
			"%w: decoded length %d outside [%d, %d]",
			ErrInvalidPublicKey, len(raw), MinPublicKeyBytes, MaxPublicKeyBytes,
		)
	}
	if raw[0] != derSequenceTag {
		return fmt.Errorf("%w: does not start with a DER SEQUENCE", ErrInvalidPublicKey)
	}
	return nil
}
