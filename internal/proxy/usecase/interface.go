// Package usecase forwards verified requests to the upstream provider.
package usecase

import (
	"context"
	"net/http"

	proxyDomain "github.com/allisson/keyguard/internal/proxy/domain"
)

// Forwarder relays requests upstream and writes the provider's response to w.
type Forwarder interface {
	// Forward streams when the body requests it and buffers otherwise. It returns
	// ErrUpstreamUnavailable, with nothing written to w, when no upstream response was
	// obtained. Each call records exactly one audit log.
	Forward(ctx context.Context, w http.ResponseWriter, req *proxyDomain.ForwardRequest) error
}
