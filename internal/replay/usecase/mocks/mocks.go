// Package mocks provides testify mocks for the replay guard interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	replayDomain "github.com/allisson/keyguard/internal/replay/domain"
)

// MockNonceRepository is a mock implementation of NonceRepository.
type MockNonceRepository struct {
	mock.Mock
}

func (m *MockNonceRepository) Create(ctx context.Context, nonce *replayDomain.Nonce) error {
	return m.Called(ctx, nonce).Error(0)
}

func (m *MockNonceRepository) Exists(
	ctx context.Context,
	projectID uuid.UUID,
	keyID, value string,
	now time.Time,
) (bool, error) {
	args := m.Called(ctx, projectID, keyID, value, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockNonceRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNonceRepository) CountExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// MockReplayGuard is a mock implementation of ReplayGuard.
type MockReplayGuard struct {
	mock.Mock
}

func (m *MockReplayGuard) Exists(ctx context.Context, projectID uuid.UUID, keyID, nonce string) (bool, error) {
	args := m.Called(ctx, projectID, keyID, nonce)
	return args.Bool(0), args.Error(1)
}

func (m *MockReplayGuard) Record(ctx context.Context, projectID uuid.UUID, keyID, nonce string) error {
	return m.Called(ctx, projectID, keyID, nonce).Error(0)
}

func (m *MockReplayGuard) Sweep(ctx context.Context, dryRun bool) (int64, error) {
	args := m.Called(ctx, dryRun)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReplayGuard) Start(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
