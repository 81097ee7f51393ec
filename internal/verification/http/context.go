// Package http provides the signature verification middleware, the per-device rate limiter
// and the verify endpoint.
package http

import (
	"context"

	"github.com/google/uuid"
)

// VerifiedRequest describes a request that passed every verification gate.
type VerifiedRequest struct {
	ProjectID uuid.UUID
	DeviceID  uuid.UUID
	KeyID     string
	Body      []byte
}

type verifiedRequestKey struct{}

// WithVerifiedRequest stores the verified request in the context.
func WithVerifiedRequest(ctx context.Context, req *VerifiedRequest) context.Context {
	return context.WithValue(ctx, verifiedRequestKey{}, req)
}

// GetVerifiedRequest retrieves the verified request from the context.
func GetVerifiedRequest(ctx context.Context) (*VerifiedRequest, bool) {
	req, ok := ctx.Value(verifiedRequestKey{}).(*VerifiedRequest)
	return req, ok
}
