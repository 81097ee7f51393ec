package usecase

import (
	"context"
	"net/http"
	"time"

	"github.com/allisson/keyguard/internal/metrics"
	proxyDomain "github.com/allisson/keyguard/internal/proxy/domain"
)

// forwarderWithMetrics decorates Forwarder with metrics instrumentation.
type forwarderWithMetrics struct {
	next    Forwarder
	metrics metrics.BusinessMetrics
}

// NewForwarderWithMetrics wraps a Forwarder with metrics recording.
func NewForwarderWithMetrics(forwarder Forwarder, m metrics.BusinessMetrics) Forwarder {
	return &forwarderWithMetrics{
		next:    forwarder,
		metrics: m,
	}
}

// Forward records metrics for upstream forwarding. Streamed calls use operation
// "forward_stream".
func (f *forwarderWithMetrics) Forward(
	ctx context.Context,
	w http.ResponseWriter,
	req *proxyDomain.ForwardRequest,
) error {
	operation := "forward"
	if req.IsStream() {
		operation = "forward_stream"
	}

	start := time.Now()
	err := f.next.Forward(ctx, w, req)

	metrics.Observe(ctx, f.metrics, metrics.DomainProxy, operation, start, metrics.StatusFromError(err))

	return err
}
