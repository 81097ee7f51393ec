package domain

import "strings"

// CanonicalInput holds the request metadata covered by a signature.
type CanonicalInput struct {
	Timestamp     string
	Method        string
	PathWithQuery string // raw request target exactly as received, never re-encoded
	BodyHash      string
	Nonce         string
	ProjectSecret string
	KeyID         string
}

// BuildCanonicalPayload returns the deterministic string a device signs:
//
//	kg-v1|{timestamp}|{METHOD}|{path+query}|{bodyHashHex}|{nonce}|{projectSecret}|{keyId}
//
// Only the method is normalized (upper-cased). Every other field is used verbatim.
func BuildCanonicalPayload(in CanonicalInput) string {
	return strings.Join([]string{
		ProtocolVersion,
		in.Timestamp,
		strings.ToUpper(in.Method),
		in.PathWithQuery,
		in.BodyHash,
		in.Nonce,
		in.ProjectSecret,
		in.KeyID,
	}, "|")
}
