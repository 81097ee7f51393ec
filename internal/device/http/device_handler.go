// Package http provides the device enrollment endpoint and operator device endpoints.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	deviceDomain "github.com/allisson/keyguard/internal/device/domain"
	"github.com/allisson/keyguard/internal/device/http/dto"
	deviceUseCase "github.com/allisson/keyguard/internal/device/usecase"
	apperrors "github.com/allisson/keyguard/internal/errors"
	"github.com/allisson/keyguard/internal/httputil"
	projectHTTP "github.com/allisson/keyguard/internal/project/http"
	customValidation "github.com/allisson/keyguard/internal/validation"
)

// DeviceHandler handles device enrollment and operator lifecycle requests.
type DeviceHandler struct {
	deviceUseCase deviceUseCase.DeviceUseCase
	logger        *slog.Logger
}

// NewDeviceHandler creates a new device handler.
func NewDeviceHandler(deviceUseCase deviceUseCase.DeviceUseCase, logger *slog.Logger) *DeviceHandler {
	return &DeviceHandler{
		deviceUseCase: deviceUseCase,
		logger:        logger,
	}
}

// EnrollHandler enrolls a device under the authenticated project.
// POST /v1/devices/enroll - Requires X-KG-Project-Secret.
// Returns 201 Created, or 200 OK when the fingerprint was already enrolled.
func (h *DeviceHandler) EnrollHandler(c *gin.Context) {
	project, ok := projectHTTP.GetProject(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req dto.EnrollDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	output, err := h.deviceUseCase.Enroll(c.Request.Context(), project.ID, req.ToInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	status := http.StatusOK
	if output.Created {
		status = http.StatusCreated
		h.logger.Info("device enrolled",
			slog.String("device_id", output.Device.ID.String()),
			slog.String("project_id", project.ID.String()),
			slog.String("status", string(output.Device.Status)),
		)
	}

	c.JSON(status, dto.MapDeviceToEnrollResponse(output.Device))
}

// ListHandler lists the devices of a project.
// GET /v1/admin/projects/:project_id/devices?offset=0&limit=50
func (h *DeviceHandler) ListHandler(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid project ID format: must be a valid UUID"), h.logger)
		return
	}

	page, err := httputil.ParsePage(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	devices, err := h.deviceUseCase.List(c.Request.Context(), projectID, page.Offset, page.Limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDevicesToListResponse(devices))
}

// GetHandler retrieves a device by ID.
// GET /v1/admin/devices/:id
func (h *DeviceHandler) GetHandler(c *gin.Context) {
	deviceID, ok := h.parseDeviceID(c)
	if !ok {
		return
	}

	device, err := h.deviceUseCase.Get(c.Request.Context(), deviceID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDeviceToResponse(device))
}

// ApproveHandler moves a PENDING device to ACTIVE.
// POST /v1/admin/devices/:id/approve
func (h *DeviceHandler) ApproveHandler(c *gin.Context) {
	h.transition(c, "approved", h.deviceUseCase.Approve)
}

// SuspendHandler moves an ACTIVE device to SUSPENDED.
// POST /v1/admin/devices/:id/suspend
func (h *DeviceHandler) SuspendHandler(c *gin.Context) {
	h.transition(c, "suspended", h.deviceUseCase.Suspend)
}

// ReactivateHandler moves a SUSPENDED device to ACTIVE.
// POST /v1/admin/devices/:id/reactivate
func (h *DeviceHandler) ReactivateHandler(c *gin.Context) {
	h.transition(c, "reactivated", h.deviceUseCase.Reactivate)
}

// RevokeHandler moves a device to REVOKED.
// POST /v1/admin/devices/:id/revoke
func (h *DeviceHandler) RevokeHandler(c *gin.Context) {
	h.transition(c, "revoked", h.deviceUseCase.Revoke)
}

// CreateEnrollmentCodeHandler issues a single-use enrollment code.
// POST /v1/admin/projects/:project_id/enrollment-codes
// Returns 201 Created with the code. The code is shown only once.
func (h *DeviceHandler) CreateEnrollmentCodeHandler(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid project ID format: must be a valid UUID"), h.logger)
		return
	}

	var req dto.CreateEnrollmentCodeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httputil.HandleBadRequestGin(c, err, h.logger)
			return
		}
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	code, err := h.deviceUseCase.CreateEnrollmentCode(
		c.Request.Context(),
		projectID,
		time.Duration(req.TTLSeconds)*time.Second,
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapEnrollmentCodeToResponse(code))
}

func (h *DeviceHandler) parseDeviceID(c *gin.Context) (uuid.UUID, bool) {
	deviceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid device ID format: must be a valid UUID"), h.logger)
		return uuid.Nil, false
	}
	return deviceID, true
}

func (h *DeviceHandler) transition(
	c *gin.Context,
	action string,
	apply func(ctx context.Context, deviceID uuid.UUID) (*deviceDomain.Device, error),
) {
	deviceID, ok := h.parseDeviceID(c)
	if !ok {
		return
	}

	device, err := apply(c.Request.Context(), deviceID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.logger.Info("device "+action,
		slog.String("device_id", device.ID.String()),
		slog.String("status", string(device.Status)),
	)

	c.JSON(http.StatusOK, dto.MapDeviceToResponse(device))
}
