package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// EmptyBodyHash is the SHA-256 of the empty byte string.
const EmptyBodyHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

// HashBody returns the lowercase hex SHA-256 digest of the raw body.
// A nil body hashes the same as an empty one.
func HashBody(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
