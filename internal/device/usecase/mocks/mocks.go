// Package mocks provides testify mocks for the device registry interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	deviceDomain "github.com/allisson/keyguard/internal/device/domain"
)

func device(args mock.Arguments) *deviceDomain.Device {
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*deviceDomain.Device)
}

// MockDeviceRepository is a mock implementation of DeviceRepository.
type MockDeviceRepository struct {
	mock.Mock
}

func (m *MockDeviceRepository) Create(ctx context.Context, d *deviceDomain.Device) error {
	return m.Called(ctx, d).Error(0)
}

func (m *MockDeviceRepository) Update(ctx context.Context, d *deviceDomain.Device) error {
	return m.Called(ctx, d).Error(0)
}

func (m *MockDeviceRepository) Get(ctx context.Context, deviceID uuid.UUID) (*deviceDomain.Device, error) {
	args := m.Called(ctx, deviceID)
	return device(args), args.Error(1)
}

func (m *MockDeviceRepository) GetForUpdate(ctx context.Context, deviceID uuid.UUID) (*deviceDomain.Device, error) {
	args := m.Called(ctx, deviceID)
	return device(args), args.Error(1)
}

func (m *MockDeviceRepository) GetByKeyID(
	ctx context.Context,
	projectID uuid.UUID,
	keyID string,
) (*deviceDomain.Device, error) {
	args := m.Called(ctx, projectID, keyID)
	return device(args), args.Error(1)
}

func (m *MockDeviceRepository) GetByFingerprintHash(
	ctx context.Context,
	fingerprintHash string,
) (*deviceDomain.Device, error) {
	args := m.Called(ctx, fingerprintHash)
	return device(args), args.Error(1)
}

func (m *MockDeviceRepository) List(
	ctx context.Context,
	projectID uuid.UUID,
	offset, limit int,
) ([]*deviceDomain.Device, error) {
	args := m.Called(ctx, projectID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*deviceDomain.Device), args.Error(1)
}

func (m *MockDeviceRepository) UpdateLastSeen(ctx context.Context, deviceID uuid.UUID, lastSeenAt time.Time) error {
	return m.Called(ctx, deviceID, lastSeenAt).Error(0)
}

// MockEnrollmentCodeRepository is a mock implementation of EnrollmentCodeRepository.
type MockEnrollmentCodeRepository struct {
	mock.Mock
}

func (m *MockEnrollmentCodeRepository) Create(ctx context.Context, code *deviceDomain.EnrollmentCode) error {
	return m.Called(ctx, code).Error(0)
}

func (m *MockEnrollmentCodeRepository) GetByCodeForUpdate(
	ctx context.Context,
	code string,
) (*deviceDomain.EnrollmentCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*deviceDomain.EnrollmentCode), args.Error(1)
}

func (m *MockEnrollmentCodeRepository) Update(ctx context.Context, code *deviceDomain.EnrollmentCode) error {
	return m.Called(ctx, code).Error(0)
}

// MockDeviceUseCase is a mock implementation of DeviceUseCase.
type MockDeviceUseCase struct {
	mock.Mock
}

func (m *MockDeviceUseCase) Enroll(
	ctx context.Context,
	projectID uuid.UUID,
	input *deviceDomain.EnrollDeviceInput,
) (*deviceDomain.EnrollDeviceOutput, error) {
	args := m.Called(ctx, projectID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*deviceDomain.EnrollDeviceOutput), args.Error(1)
}

func (m *MockDeviceUseCase) Get(ctx context.Context, deviceID uuid.UUID) (*deviceDomain.Device, error) {
	args := m.Called(ctx, deviceID)
	return device(args), args.Error(1)
}

func (m *MockDeviceUseCase) GetByKeyID(
	ctx context.Context,
	projectID uuid.UUID,
	keyID string,
) (*deviceDomain.Device, error) {
	args := m.Called(ctx, projectID, keyID)
	return device(args), args.Error(1)
}

func (m *MockDeviceUseCase) List(
	ctx context.Context,
	projectID uuid.UUID,
	offset, limit int,
) ([]*deviceDomain.Device, error) {
	args := m.Called(ctx, projectID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*deviceDomain.Device), args.Error(1)
}

func (m *MockDeviceUseCase) Approve(ctx context.Context, deviceID uuid.UUID) (*deviceDomain.Device, error) {
	args := m.Called(ctx, deviceID)
	return device(args), args.Error(1)
}

func (m *MockDeviceUseCase) Suspend(ctx context.Context, deviceID uuid.UUID) (*deviceDomain.Device, error) {
	args := m.Called(ctx, deviceID)
	return device(args), args.Error(1)
}

func (m *MockDeviceUseCase) Reactivate(ctx context.Context, deviceID uuid.UUID) (*deviceDomain.Device, error) {
	args := m.Called(ctx, deviceID)
	return device(args), args.Error(1)
}

func (m *MockDeviceUseCase) Revoke(ctx context.Context, deviceID uuid.UUID) (*deviceDomain.Device, error) {
	args := m.Called(ctx, deviceID)
	return device(args), args.Error(1)
}

func (m *MockDeviceUseCase) TouchLastSeen(ctx context.Context, deviceID uuid.UUID, at time.Time) error {
	return m.Called(ctx, deviceID, at).Error(0)
}

func (m *MockDeviceUseCase) CreateEnrollmentCode(
	ctx context.Context,
	projectID uuid.UUID,
	ttl time.Duration,
) (*deviceDomain.EnrollmentCode, error) {
	args := m.Called(ctx, projectID, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*deviceDomain.EnrollmentCode), args.Error(1)
}
