// Package domain defines the request model of the upstream provider proxy.
package domain

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/allisson/keyguard/internal/errors"
)

// Error codes written to the caller when nothing was relayed from upstream.
const (
	ErrCodeUpstreamUnavailable    = "upstream_unavailable"
	ErrCodeProviderKeyUnavailable = "provider_key_unavailable"
)

// ErrUpstreamUnavailable indicates the upstream provider could not be reached.
var ErrUpstreamUnavailable = errors.Wrap(errors.ErrUnavailable, "upstream provider unavailable")

// ForwardRequest describes one call to relay upstream.
type ForwardRequest struct {
	// Endpoint is the upstream path and query, without the proxy prefix.
	Endpoint    string
	Method      string
	Body        []byte
	Header      http.Header
	RequestID   string
	ProjectID   uuid.UUID
	DeviceID    uuid.UUID
	ProviderKey string
}

// IsStream reports whether the JSON body asks for a streamed response ("stream": true).
// Bodies that are not JSON objects are treated as buffered.
func (r *ForwardRequest) IsStream() bool {
	if len(r.Body) == 0 {
		return false
	}
	var payload struct {
		Stream bool `json:"stream"`
	}
	if err := json.Unmarshal(r.Body, &payload); err != nil {
		return false
	}
	return payload.Stream
}

// hopByHopHeaders are never forwarded in either direction.
var hopByHopHeaders = map[string]struct{}{
	"Connection":          {},
	"Keep-Alive":          {},
	"Proxy-Authenticate":  {},
	"Proxy-Authorization": {},
	"Te":                  {},
	"Trailer":             {},
	"Transfer-Encoding":   {},
	"Upgrade":             {},
}

// strippedRequestHeaders are replaced or recomputed for the upstream call.
var strippedRequestHeaders = map[string]struct{}{
	"Authorization":   {},
	"Host":            {},
	"Content-Length":  {},
	"Cookie":          {},
	"Accept-Encoding": {},
}

// UpstreamHeader returns the headers to send upstream: the client's headers minus hop-by-hop
// headers, credentials and every X-KG-* header, plus the provider credential.
func (r *ForwardRequest) UpstreamHeader() http.Header {
	out := make(http.Header, len(r.Header)+1)
	for name, values := range r.Header {
		canonical := http.CanonicalHeaderKey(name)
		if _, ok := hopByHopHeaders[canonical]; ok {
			continue
		}
		if _, ok := strippedRequestHeaders[canonical]; ok {
			continue
		}
		if strings.HasPrefix(canonical, "X-Kg-") {
			continue
		}
		out[canonical] = append([]string(nil), values...)
	}
	out.Set("Authorization", "Bearer "+r.ProviderKey)
	return out
}
