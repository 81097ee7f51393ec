package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/keyguard/internal/audit/domain"
	auditService "github.com/allisson/keyguard/internal/audit/service"
	"github.com/allisson/keyguard/internal/audit/usecase/mocks"
	apperrors "github.com/allisson/keyguard/internal/errors"
)

var testSigningKey = bytes.Repeat([]byte{0x24}, 32)

func newTestUseCase(t *testing.T, key []byte) (AuditLogUseCase, *mocks.MockAuditLogRepository) {
	t.Helper()
	repo := &mocks.MockAuditLogRepository{}
	t.Cleanup(func() { repo.AssertExpectations(t) })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAuditLogUseCase(repo, auditService.NewAuditSigner(), key, logger), repo
}

func newEntry() *auditDomain.AuditLog {
	return &auditDomain.AuditLog{
		RequestID:  "req-1",
		ProjectID:  uuid.Must(uuid.NewV7()),
		Endpoint:   "/v1/chat/completions",
		Method:     "POST",
		StatusCode: 200,
		LatencyMs:  12,
		Outcome:    auditDomain.OutcomeSuccess,
	}
}

func TestAuditLogUseCase_Record(t *testing.T) {
	t.Run("Success_SignsAndStores", func(t *testing.T) {
		uc, repo := newTestUseCase(t, testSigningKey)
		entry := newEntry()

		var stored *auditDomain.AuditLog
		repo.On("Create", mock.Anything, entry).
			Run(func(args mock.Arguments) { stored = args.Get(1).(*auditDomain.AuditLog) }).
			Return(nil).
			Once()

		uc.Record(context.Background(), entry)

		require.NotNil(t, stored)
		assert.NotEqual(t, uuid.Nil, stored.ID)
		assert.False(t, stored.CreatedAt.IsZero())
		assert.Equal(t, stored.CreatedAt, stored.CreatedAt.Truncate(time.Microsecond))
		assert.True(t, stored.IsSigned())
		assert.NoError(t, auditService.NewAuditSigner().Verify(testSigningKey, stored))
	})

	t.Run("MissingKey_NotStored", func(t *testing.T) {
		uc, repo := newTestUseCase(t, nil)
		entry := newEntry()

		uc.Record(context.Background(), entry)

		assert.False(t, entry.IsSigned())
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("RepositoryError_Swallowed", func(t *testing.T) {
		uc, repo := newTestUseCase(t, testSigningKey)

		repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()

		assert.NotPanics(t, func() { uc.Record(context.Background(), newEntry()) })
	})

	t.Run("Success_CancelledContext", func(t *testing.T) {
		uc, repo := newTestUseCase(t, testSigningKey)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		repo.On("Create", mock.MatchedBy(func(c context.Context) bool { return c.Err() == nil }), mock.Anything).
			Return(nil).
			Once()

		uc.Record(ctx, newEntry())
	})
}

func TestAuditLogUseCase_VerifyBatch(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	signer := auditService.NewAuditSigner()

	signed := func(t *testing.T) *auditDomain.AuditLog {
		entry := newEntry()
		entry.ID = uuid.Must(uuid.NewV7())
		entry.CreatedAt = start.Add(time.Hour)
		signature, err := signer.Sign(testSigningKey, entry)
		require.NoError(t, err)
		entry.Signature = signature
		return entry
	}

	t.Run("Success_Mixed", func(t *testing.T) {
		uc, repo := newTestUseCase(t, testSigningKey)

		valid := signed(t)
		tampered := signed(t)
		tampered.StatusCode = 500
		unsigned := newEntry()
		unsigned.ID = uuid.Must(uuid.NewV7())

		repo.On("ListByTimeRange", ctx, start, end, 0, verifyBatchSize).
			Return([]*auditDomain.AuditLog{valid, tampered, unsigned}, nil).
			Once()

		report, err := uc.VerifyBatch(ctx, start, end)

		require.NoError(t, err)
		assert.Equal(t, int64(3), report.TotalChecked)
		assert.Equal(t, int64(2), report.SignedCount)
		assert.Equal(t, int64(1), report.UnsignedCount)
		assert.Equal(t, int64(1), report.ValidCount)
		assert.Equal(t, int64(1), report.InvalidCount)
		assert.Equal(t, []uuid.UUID{tampered.ID}, report.InvalidLogs)
		assert.False(t, report.Passed())
	})

	t.Run("Success_Paginates", func(t *testing.T) {
		uc, repo := newTestUseCase(t, testSigningKey)

		page := make([]*auditDomain.AuditLog, verifyBatchSize)
		for i := range page {
			page[i] = signed(t)
		}

		repo.On("ListByTimeRange", ctx, start, end, 0, verifyBatchSize).Return(page, nil).Once()
		repo.On("ListByTimeRange", ctx, start, end, verifyBatchSize, verifyBatchSize).
			Return([]*auditDomain.AuditLog{}, nil).
			Once()

		report, err := uc.VerifyBatch(ctx, start, end)

		require.NoError(t, err)
		assert.Equal(t, int64(verifyBatchSize), report.ValidCount)
		assert.True(t, report.Passed())
	})

	t.Run("Error_NoKey", func(t *testing.T) {
		uc, _ := newTestUseCase(t, nil)

		_, err := uc.VerifyBatch(ctx, start, end)

		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	})

	t.Run("Error_Repository", func(t *testing.T) {
		uc, repo := newTestUseCase(t, testSigningKey)

		repo.On("ListByTimeRange", ctx, start, end, 0, verifyBatchSize).Return(nil, errors.New("db down")).Once()

		_, err := uc.VerifyBatch(ctx, start, end)

		assert.Error(t, err)
	})
}

func TestAuditLogUseCase_DeleteOlderThan(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_Delete", func(t *testing.T) {
		uc, repo := newTestUseCase(t, testSigningKey)
		repo.On("DeleteOlderThan", ctx, mock.MatchedBy(func(before time.Time) bool {
			return before.Before(time.Now().UTC().AddDate(0, 0, -29))
		})).Return(int64(5), nil).Once()

		count, err := uc.DeleteOlderThan(ctx, 30, false)

		require.NoError(t, err)
		assert.Equal(t, int64(5), count)
	})

	t.Run("Success_DryRun", func(t *testing.T) {
		uc, repo := newTestUseCase(t, testSigningKey)
		repo.On("CountOlderThan", ctx, mock.Anything).Return(int64(2), nil).Once()

		count, err := uc.DeleteOlderThan(ctx, 30, true)

		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("Error_NegativeDays", func(t *testing.T) {
		uc, _ := newTestUseCase(t, testSigningKey)

		_, err := uc.DeleteOlderThan(ctx, -1, false)

		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	})
}
