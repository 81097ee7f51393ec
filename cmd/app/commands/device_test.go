package commands

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	deviceDomain "github.com/allisson/keyguard/internal/device/domain"
	deviceMocks "github.com/allisson/keyguard/internal/device/usecase/mocks"
)

func TestRunCreateEnrollmentCode(t *testing.T) {
	ctx := context.Background()
	projectID := uuid.Must(uuid.NewV7())
	expiresAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("text-output", func(t *testing.T) {
		mockUseCase := &deviceMocks.MockDeviceUseCase{}
		mockUseCase.On("CreateEnrollmentCode", ctx, projectID, time.Hour).Return(&deviceDomain.EnrollmentCode{
			ID:        uuid.Must(uuid.NewV7()),
			ProjectID: projectID,
			Code:      "ABCD-EFGH",
			ExpiresAt: &expiresAt,
		}, nil).Once()

		var out bytes.Buffer
		err := RunCreateEnrollmentCode(ctx, mockUseCase, testLogger(), &out, projectID.String(), time.Hour, "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "ABCD-EFGH")
		require.Contains(t, out.String(), "2026-01-02T03:04:05Z")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("json-output-no-expiry", func(t *testing.T) {
		mockUseCase := &deviceMocks.MockDeviceUseCase{}
		mockUseCase.On("CreateEnrollmentCode", ctx, projectID, time.Duration(0)).Return(&deviceDomain.EnrollmentCode{
			ID:        uuid.Must(uuid.NewV7()),
			ProjectID: projectID,
			Code:      "ABCD-EFGH",
		}, nil).Once()

		var out bytes.Buffer
		err := RunCreateEnrollmentCode(ctx, mockUseCase, testLogger(), &out, projectID.String(), 0, "json")

		require.NoError(t, err)
		require.Contains(t, out.String(), `"code": "ABCD-EFGH"`)
		require.Contains(t, out.String(), `"expires_at": null`)
	})

	t.Run("negative-ttl", func(t *testing.T) {
		err := RunCreateEnrollmentCode(
			ctx, &deviceMocks.MockDeviceUseCase{}, testLogger(), &bytes.Buffer{}, projectID.String(), -time.Second, "text",
		)
		require.Error(t, err)
	})
}

func TestRunDeviceTransition(t *testing.T) {
	ctx := context.Background()
	deviceID := uuid.Must(uuid.NewV7())

	tests := []struct {
		action string
		method string
		status deviceDomain.DeviceStatus
	}{
		{DeviceActionApprove, "Approve", deviceDomain.DeviceStatusActive},
		{DeviceActionSuspend, "Suspend", deviceDomain.DeviceStatusSuspended},
		{DeviceActionReactivate, "Reactivate", deviceDomain.DeviceStatusActive},
		{DeviceActionRevoke, "Revoke", deviceDomain.DeviceStatusRevoked},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			mockUseCase := &deviceMocks.MockDeviceUseCase{}
			mockUseCase.On(tt.method, ctx, deviceID).Return(&deviceDomain.Device{
				ID:     deviceID,
				KeyID:  "key-1",
				Status: tt.status,
			}, nil).Once()

			var out bytes.Buffer
			err := RunDeviceTransition(ctx, mockUseCase, testLogger(), &out, tt.action, deviceID.String(), "text")

			require.NoError(t, err)
			require.Contains(t, out.String(), "is now "+string(tt.status))
			mockUseCase.AssertExpectations(t)
		})
	}

	t.Run("already-revoked", func(t *testing.T) {
		mockUseCase := &deviceMocks.MockDeviceUseCase{}
		mockUseCase.On("Revoke", ctx, deviceID).Return(nil, deviceDomain.ErrDeviceAlreadyRevoked).Once()

		err := RunDeviceTransition(
			ctx, mockUseCase, testLogger(), &bytes.Buffer{}, DeviceActionRevoke, deviceID.String(), "json",
		)

		require.ErrorIs(t, err, deviceDomain.ErrDeviceAlreadyRevoked)
	})

	t.Run("unknown-action", func(t *testing.T) {
		err := RunDeviceTransition(
			ctx, &deviceMocks.MockDeviceUseCase{}, testLogger(), &bytes.Buffer{}, "delete", deviceID.String(), "text",
		)
		require.Error(t, err)
		require.Contains(t, err.Error(), "unknown device action")
	})
}
