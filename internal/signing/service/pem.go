package service

import "strings"

const pemLineLength = 64

// WrapPublicKeyPEM formats bare base64 SPKI as PEM text, 64 characters per line.
// Formatting only: the key bytes are not decoded or validated.
func WrapPublicKeyPEM(spkiBase64 string) string {
	var b strings.Builder
	b.WriteString("-----BEGIN PUBLIC KEY-----\n")
	for len(spkiBase64) > pemLineLength {
		b.WriteString(spkiBase64[:pemLineLength])
		b.WriteByte('\n')
		spkiBase64 = spkiBase64[pemLineLength:]
	}
	if spkiBase64 != "" {
		b.WriteString(spkiBase64)
		b.WriteByte('\n')
	}
	b.WriteString("-----END PUBLIC KEY-----\n")
	return b.String()
}
