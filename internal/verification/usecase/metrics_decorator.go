package usecase

import (
	"context"
	"time"

	"github.com/allisson/keyguard/internal/metrics"
	verificationDomain "github.com/allisson/keyguard/internal/verification/domain"
)

// pipelineWithMetrics decorates Pipeline with metrics instrumentation.
type pipelineWithMetrics struct {
	next    Pipeline
	metrics metrics.BusinessMetrics
}

// NewPipelineWithMetrics wraps a Pipeline with metrics recording. Rejected requests are
// recorded with status "rejected".
func NewPipelineWithMetrics(pipeline Pipeline, m metrics.BusinessMetrics) Pipeline {
	return &pipelineWithMetrics{
		next:    pipeline,
		metrics: m,
	}
}

// Verify records metrics for request verification.
func (p *pipelineWithMetrics) Verify(
	ctx context.Context,
	input *verificationDomain.VerifyInput,
) *verificationDomain.Result {
	start := time.Now()
	result := p.next.Verify(ctx, input)

	status := metrics.StatusSuccess
	if !result.Valid {
		status = metrics.StatusRejected
	}
	metrics.Observe(ctx, p.metrics, metrics.DomainVerification, "request_verify", start, status)

	return result
}
