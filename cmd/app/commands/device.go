package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	deviceDomain "github.com/allisson/keyguard/internal/device/domain"
	deviceUseCase "github.com/allisson/keyguard/internal/device/usecase"
)

// Device lifecycle actions accepted by RunDeviceTransition.
const (
	DeviceActionApprove    = "approve"
	DeviceActionSuspend    = "suspend"
	DeviceActionReactivate = "reactivate"
	DeviceActionRevoke     = "revoke"
)

// RunCreateEnrollmentCode issues a single-use enrollment code for a project. A zero ttl
// issues a code that never expires.
func RunCreateEnrollmentCode(
	ctx context.Context,
	deviceUseCase deviceUseCase.DeviceUseCase,
	logger *slog.Logger,
	writer io.Writer,
	projectIDStr string,
	ttl time.Duration,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}
	projectID, err := parseID("project id", projectIDStr)
	if err != nil {
		return err
	}
	if ttl < 0 {
		return fmt.Errorf("ttl must not be negative, got: %s", ttl)
	}

	code, err := deviceUseCase.CreateEnrollmentCode(ctx, projectID, ttl)
	if err != nil {
		return fmt.Errorf("failed to create enrollment code: %w", err)
	}

	logger.Info("enrollment code created",
		slog.String("project_id", projectID.String()),
		slog.String("code_id", code.ID.String()),
	)

	if format == "json" {
		result := map[string]any{
			"id":         code.ID.String(),
			"project_id": code.ProjectID.String(),
			"code":       code.Code,
			"expires_at": nil,
		}
		if code.ExpiresAt != nil {
			result["expires_at"] = code.ExpiresAt.UTC().Format(time.RFC3339)
		}
		return writeJSON(writer, result)
	}

	_, _ = fmt.Fprintf(writer, "Enrollment Code: %s\n", code.Code)
	_, _ = fmt.Fprintf(writer, "Project ID:      %s\n", code.ProjectID)
	if code.ExpiresAt != nil {
		_, _ = fmt.Fprintf(writer, "Expires At:      %s\n", code.ExpiresAt.UTC().Format(time.RFC3339))
	} else {
		_, _ = fmt.Fprintln(writer, "Expires At:      never")
	}
	return nil
}

// RunDeviceTransition applies a lifecycle action (approve, suspend, reactivate, revoke) to a
// device and prints its new status.
func RunDeviceTransition(
	ctx context.Context,
	useCase deviceUseCase.DeviceUseCase,
	logger *slog.Logger,
	writer io.Writer,
	action string,
	deviceIDStr string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}
	deviceID, err := parseID("device id", deviceIDStr)
	if err != nil {
		return err
	}

	var apply func(context.Context, uuid.UUID) (*deviceDomain.Device, error)
	switch action {
	case DeviceActionApprove:
		apply = useCase.Approve
	case DeviceActionSuspend:
		apply = useCase.Suspend
	case DeviceActionReactivate:
		apply = useCase.Reactivate
	case DeviceActionRevoke:
		apply = useCase.Revoke
	default:
		return fmt.Errorf("unknown device action: %s", action)
	}

	device, err := apply(ctx, deviceID)
	if err != nil {
		return fmt.Errorf("failed to %s device: %w", action, err)
	}

	logger.Info("device status changed",
		slog.String("device_id", device.ID.String()),
		slog.String("action", action),
		slog.String("status", string(device.Status)),
	)

	if format == "json" {
		return writeJSON(writer, map[string]any{
			"id":     device.ID.String(),
			"key_id": device.KeyID,
			"status": string(device.Status),
		})
	}

	_, _ = fmt.Fprintf(writer, "Device %s (%s) is now %s\n", device.ID, device.KeyID, device.Status)
	return nil
}
