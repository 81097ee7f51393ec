// Package usecase records and verifies audit logs of proxied calls.
package usecase

import (
	"context"
	"time"

	auditDomain "github.com/allisson/keyguard/internal/audit/domain"
)

// AuditLogRepository defines persistence operations for audit logs.
type AuditLogRepository interface {
	Create(ctx context.Context, log *auditDomain.AuditLog) error

	// ListByTimeRange returns logs with start <= created_at < end ordered by created_at.
	ListByTimeRange(ctx context.Context, start, end time.Time, offset, limit int) ([]*auditDomain.AuditLog, error)

	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)

	CountOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// AuditLogUseCase defines audit operations.
type AuditLogUseCase interface {
	// Record signs and stores log. Failures are logged and never returned: an audit outage
	// must not change the outcome of the call being audited.
	Record(ctx context.Context, log *auditDomain.AuditLog)

	// VerifyBatch checks the signatures of every log created in [start, end).
	VerifyBatch(ctx context.Context, start, end time.Time) (*auditDomain.VerificationReport, error)

	// DeleteOlderThan removes logs older than days, or only counts them when dryRun is set.
	DeleteOlderThan(ctx context.Context, days int, dryRun bool) (int64, error)
}
