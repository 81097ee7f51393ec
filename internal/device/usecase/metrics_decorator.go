package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	deviceDomain "github.com/allisson/keyguard/internal/device/domain"
	"github.com/allisson/keyguard/internal/metrics"
)

// deviceUseCaseWithMetrics decorates DeviceUseCase with metrics instrumentation.
type deviceUseCaseWithMetrics struct {
	next    DeviceUseCase
	metrics metrics.BusinessMetrics
}

// NewDeviceUseCaseWithMetrics wraps a DeviceUseCase with metrics recording.
func NewDeviceUseCaseWithMetrics(useCase DeviceUseCase, m metrics.BusinessMetrics) DeviceUseCase {
	return &deviceUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (d *deviceUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	metrics.Observe(ctx, d.metrics, metrics.DomainDevice, operation, start, metrics.StatusFromError(err))
}

// Enroll records metrics for device enrollment.
func (d *deviceUseCaseWithMetrics) Enroll(
	ctx context.Context,
	projectID uuid.UUID,
	input *deviceDomain.EnrollDeviceInput,
) (*deviceDomain.EnrollDeviceOutput, error) {
	start := time.Now()
	output, err := d.next.Enroll(ctx, projectID, input)
	d.record(ctx, "device_enroll", start, err)
	return output, err
}

// Get records metrics for device retrieval.
func (d *deviceUseCaseWithMetrics) Get(ctx context.Context, deviceID uuid.UUID) (*deviceDomain.Device, error) {
	start := time.Now()
	device, err := d.next.Get(ctx, deviceID)
	d.record(ctx, "device_get", start, err)
	return device, err
}

// GetByKeyID records metrics for key id lookups.
func (d *deviceUseCaseWithMetrics) GetByKeyID(
	ctx context.Context,
	projectID uuid.UUID,
	keyID string,
) (*deviceDomain.Device, error) {
	start := time.Now()
	device, err := d.next.GetByKeyID(ctx, projectID, keyID)
	d.record(ctx, "device_get_by_key_id", start, err)
	return device, err
}

// List records metrics for device listing.
func (d *deviceUseCaseWithMetrics) List(
	ctx context.Context,
	projectID uuid.UUID,
	offset, limit int,
) ([]*deviceDomain.Device, error) {
	start := time.Now()
	devices, err := d.next.List(ctx, projectID, offset, limit)
	d.record(ctx, "device_list", start, err)
	return devices, err
}

// Approve records metrics for device approval.
func (d *deviceUseCaseWithMetrics) Approve(ctx context.Context, deviceID uuid.UUID) (*deviceDomain.Device, error) {
	start := time.Now()
	device, err := d.next.Approve(ctx, deviceID)
	d.record(ctx, "device_approve", start, err)
	return device, err
}

// Suspend records metrics for device suspension.
func (d *deviceUseCaseWithMetrics) Suspend(ctx context.Context, deviceID uuid.UUID) (*deviceDomain.Device, error) {
	start := time.Now()
	device, err := d.next.Suspend(ctx, deviceID)
	d.record(ctx, "device_suspend", start, err)
	return device, err
}

// Reactivate records metrics for device reactivation.
func (d *deviceUseCaseWithMetrics) Reactivate(
	ctx context.Context,
	deviceID uuid.UUID,
) (*deviceDomain.Device, error) {
	start := time.Now()
	device, err := d.next.Reactivate(ctx, deviceID)
	d.record(ctx, "device_reactivate", start, err)
	return device, err
}

// Revoke records metrics for device revocation.
func (d *deviceUseCaseWithMetrics) Revoke(ctx context.Context, deviceID uuid.UUID) (*deviceDomain.Device, error) {
	start := time.Now()
	device, err := d.next.Revoke(ctx, deviceID)
	d.record(ctx, "device_revoke", start, err)
	return device, err
}

// TouchLastSeen records metrics for last-seen updates.
func (d *deviceUseCaseWithMetrics) TouchLastSeen(ctx context.Context, deviceID uuid.UUID, at time.Time) error {
	start := time.Now()
	err := d.next.TouchLastSeen(ctx, deviceID, at)
	d.record(ctx, "device_touch_last_seen", start, err)
	return err
}

// CreateEnrollmentCode records metrics for enrollment code creation.
func (d *deviceUseCaseWithMetrics) CreateEnrollmentCode(
	ctx context.Context,
	projectID uuid.UUID,
	ttl time.Duration,
) (*deviceDomain.EnrollmentCode, error) {
	start := time.Now()
	code, err := d.next.CreateEnrollmentCode(ctx, projectID, ttl)
	d.record(ctx, "enrollment_code_create", start, err)
	return code, err
}
