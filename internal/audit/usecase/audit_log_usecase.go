package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/keyguard/internal/audit/domain"
	auditService "github.com/allisson/keyguard/internal/audit/service"
	apperrors "github.com/allisson/keyguard/internal/errors"
)

const verifyBatchSize = 500

var errSigningKeyMissing = apperrors.Wrap(apperrors.ErrInvalidInput, "audit signing key is not configured")

type auditLogUseCase struct {
	auditLogRepo AuditLogRepository
	signer       auditService.AuditSigner
	signingKey   []byte
	logger       *slog.Logger
}

// NewAuditLogUseCase creates a new AuditLogUseCase. signingKey is the root key the HMAC key
// is derived from. Every stored log is signed, so Record drops logs while the key is empty.
func NewAuditLogUseCase(
	auditLogRepo AuditLogRepository,
	signer auditService.AuditSigner,
	signingKey []byte,
	logger *slog.Logger,
) AuditLogUseCase {
	return &auditLogUseCase{
		auditLogRepo: auditLogRepo,
		signer:       signer,
		signingKey:   signingKey,
		logger:       logger,
	}
}

// Record fills ID and CreatedAt when unset, signs and persists the log. The insert runs
// detached from ctx cancellation so a client hanging up still leaves a record.
func (a *auditLogUseCase) Record(ctx context.Context, log *auditDomain.AuditLog) {
	if log.ID == uuid.Nil {
		log.ID = uuid.Must(uuid.NewV7())
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	// Stored timestamps keep microseconds only; the signature must survive the round trip.
	log.CreatedAt = log.CreatedAt.Truncate(time.Microsecond)

	if len(a.signingKey) == 0 {
		a.logFailure(log, errSigningKeyMissing)
		return
	}

	signature, err := a.signer.Sign(a.signingKey, log)
	if err != nil {
		a.logFailure(log, err)
		return
	}
	log.Signature = signature

	if err := a.auditLogRepo.Create(context.WithoutCancel(ctx), log); err != nil {
		a.logFailure(log, err)
	}
}

func (a *auditLogUseCase) logFailure(log *auditDomain.AuditLog, err error) {
	if a.logger == nil {
		return
	}
	a.logger.Error("failed to record audit log",
		slog.String("request_id", log.RequestID),
		slog.String("project_id", log.ProjectID.String()),
		slog.String("endpoint", log.Endpoint),
		slog.Any("error", err),
	)
}

// VerifyBatch pages through the range and verifies every signed log.
func (a *auditLogUseCase) VerifyBatch(
	ctx context.Context,
	start, end time.Time,
) (*auditDomain.VerificationReport, error) {
	if len(a.signingKey) == 0 {
		return nil, errSigningKeyMissing
	}

	report := &auditDomain.VerificationReport{InvalidLogs: make([]uuid.UUID, 0)}

	for offset := 0; ; offset += verifyBatchSize {
		logs, err := a.auditLogRepo.ListByTimeRange(ctx, start, end, offset, verifyBatchSize)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to list audit logs")
		}

		for _, log := range logs {
			report.TotalChecked++
			if !log.IsSigned() {
				report.UnsignedCount++
				continue
			}
			report.SignedCount++

			if err := a.signer.Verify(a.signingKey, log); err != nil {
				report.InvalidCount++
				report.InvalidLogs = append(report.InvalidLogs, log.ID)
				continue
			}
			report.ValidCount++
		}

		if len(logs) < verifyBatchSize {
			break
		}
	}

	return report, nil
}

// DeleteOlderThan removes logs created more than days ago.
func (a *auditLogUseCase) DeleteOlderThan(ctx context.Context, days int, dryRun bool) (int64, error) {
	if days < 0 {
		return 0, apperrors.Wrap(apperrors.ErrInvalidInput, "days must be non-negative")
	}

	before := time.Now().UTC().AddDate(0, 0, -days)

	if dryRun {
		count, err := a.auditLogRepo.CountOlderThan(ctx, before)
		if err != nil {
			return 0, apperrors.Wrap(err, "failed to count audit logs")
		}
		return count, nil
	}

	count, err := a.auditLogRepo.DeleteOlderThan(ctx, before)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete audit logs")
	}
	return count, nil
}
