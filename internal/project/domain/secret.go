package domain

import (
	"strings"
)

const (
	// SecretScheme prefixes every project secret.
	SecretScheme = "kgp"
	// SecretPrefixLength is the number of hex characters in the public prefix.
	SecretPrefixLength = 12
)

// FormatSecret assembles a project secret from its public prefix and private body.
func FormatSecret(prefix, body string) string {
	return SecretScheme + "_" + prefix + "_" + body
}

// ParseSecretPrefix extracts the public prefix of a project secret.
// Returns false when the secret is not in the kgp_<prefix>_<body> form.
func ParseSecretPrefix(secret string) (string, bool) {
	rest, ok := strings.CutPrefix(secret, SecretScheme+"_")
	if !ok {
		return "", false
	}
	prefix, body, ok := strings.Cut(rest, "_")
	if !ok || len(prefix) != SecretPrefixLength || body == "" {
		return "", false
	}
	for _, r := range prefix {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return "", false
		}
	}
	return prefix, true
}
