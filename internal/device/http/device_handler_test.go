package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	deviceDomain "github.com/allisson/keyguard/internal/device/domain"
	"github.com/allisson/keyguard/internal/device/http/dto"
	"github.com/allisson/keyguard/internal/device/usecase/mocks"
	projectDomain "github.com/allisson/keyguard/internal/project/domain"
	projectHTTP "github.com/allisson/keyguard/internal/project/http"
	signingTesting "github.com/allisson/keyguard/internal/signing/testing"
)

func setupTestHandler(t *testing.T) (*DeviceHandler, *mocks.MockDeviceUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	mockUseCase := &mocks.MockDeviceUseCase{}
	t.Cleanup(func() { mockUseCase.AssertExpectations(t) })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDeviceHandler(mockUseCase, logger), mockUseCase
}

func createTestContext(method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	return c, w
}

func withProject(c *gin.Context, project *projectDomain.Project) {
	c.Request = c.Request.WithContext(projectHTTP.WithProject(c.Request.Context(), project))
}

func newTestDevice(status deviceDomain.DeviceStatus) *deviceDomain.Device {
	key := signingTesting.NewDeviceKey("key-1")
	now := time.Now().UTC()
	return &deviceDomain.Device{
		ID:              uuid.Must(uuid.NewV7()),
		ProjectID:       uuid.Must(uuid.NewV7()),
		KeyID:           key.KeyID,
		FingerprintHash: deviceDomain.HashFingerprint("fp-1"),
		PublicKey:       key.PublicKeyB64,
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestDeviceHandler_EnrollHandler(t *testing.T) {
	project := &projectDomain.Project{ID: uuid.Must(uuid.NewV7()), Status: projectDomain.ProjectStatusActive}
	key := signingTesting.NewDeviceKey("key-1")

	validRequest := dto.EnrollDeviceRequest{
		PublicKey:   key.PublicKeyB64,
		KeyID:       "key-1",
		Fingerprint: "fp-1",
		Label:       "laptop",
	}

	t.Run("Success_Created", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		device := newTestDevice(deviceDomain.DeviceStatusPending)

		mockUseCase.On("Enroll", mock.Anything, project.ID, mock.MatchedBy(func(in *deviceDomain.EnrollDeviceInput) bool {
			return in.KeyID == "key-1" && in.Fingerprint == "fp-1" && in.Label == "laptop"
		})).Return(&deviceDomain.EnrollDeviceOutput{Device: device, Created: true}, nil).Once()

		c, w := createTestContext(http.MethodPost, "/v1/devices/enroll", validRequest)
		withProject(c, project)

		handler.EnrollHandler(c)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response dto.EnrollDeviceResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, device.ID.String(), response.ID)
		assert.Equal(t, "PENDING", response.Status)
	})

	t.Run("Success_IdempotentRepeat", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		device := newTestDevice(deviceDomain.DeviceStatusActive)

		mockUseCase.On("Enroll", mock.Anything, project.ID, mock.Anything).
			Return(&deviceDomain.EnrollDeviceOutput{Device: device, Created: false}, nil).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/devices/enroll", validRequest)
		withProject(c, project)

		handler.EnrollHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Error_NoProject", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		c, w := createTestContext(http.MethodPost, "/v1/devices/enroll", validRequest)

		handler.EnrollHandler(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Error_InvalidJSON", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		c, w := createTestContext(http.MethodPost, "/v1/devices/enroll", nil)
		c.Request.Body = io.NopCloser(bytes.NewReader([]byte("invalid json")))
		withProject(c, project)

		handler.EnrollHandler(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Error_InvalidPublicKey", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		request := validRequest
		request.PublicKey = "not-base64!!"

		c, w := createTestContext(http.MethodPost, "/v1/devices/enroll", request)
		withProject(c, project)

		handler.EnrollHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "validation_error", response["error"])
	})

	t.Run("Error_MissingKeyID", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		request := validRequest
		request.KeyID = ""

		c, w := createTestContext(http.MethodPost, "/v1/devices/enroll", request)
		withProject(c, project)

		handler.EnrollHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_InvalidEnrollmentCode", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("Enroll", mock.Anything, project.ID, mock.Anything).
			Return(nil, deviceDomain.ErrInvalidEnrollmentCode).
			Once()

		request := validRequest
		request.EnrollmentCode = "ABCD-EFGH-IJKL-MNOP"

		c, w := createTestContext(http.MethodPost, "/v1/devices/enroll", request)
		withProject(c, project)

		handler.EnrollHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_FingerprintConflict", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("Enroll", mock.Anything, project.ID, mock.Anything).
			Return(nil, deviceDomain.ErrFingerprintConflict).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/devices/enroll", validRequest)
		withProject(c, project)

		handler.EnrollHandler(c)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestDeviceHandler_ListHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		projectID := uuid.Must(uuid.NewV7())
		devices := []*deviceDomain.Device{
			newTestDevice(deviceDomain.DeviceStatusActive),
			newTestDevice(deviceDomain.DeviceStatusPending),
		}

		mockUseCase.On("List", mock.Anything, projectID, 0, 10).Return(devices, nil).Once()

		c, w := createTestContext(http.MethodGet, "/v1/admin/projects/"+projectID.String()+"/devices?limit=10", nil)
		c.Params = gin.Params{{Key: "project_id", Value: projectID.String()}}

		handler.ListHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.ListDevicesResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Len(t, response.Data, 2)
		assert.Contains(t, response.Data[0].PublicKeyPEM, "-----BEGIN PUBLIC KEY-----")
	})

	t.Run("Error_InvalidProjectID", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		c, w := createTestContext(http.MethodGet, "/v1/admin/projects/nope/devices", nil)
		c.Params = gin.Params{{Key: "project_id", Value: "nope"}}

		handler.ListHandler(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Error_InvalidPagination", func(t *testing.T) {
		handler, _ := setupTestHandler(t)
		projectID := uuid.Must(uuid.NewV7())

		c, w := createTestContext(http.MethodGet, "/v1/admin/projects/x/devices?offset=-1", nil)
		c.Params = gin.Params{{Key: "project_id", Value: projectID.String()}}

		handler.ListHandler(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDeviceHandler_GetHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		device := newTestDevice(deviceDomain.DeviceStatusActive)

		mockUseCase.On("Get", mock.Anything, device.ID).Return(device, nil).Once()

		c, w := createTestContext(http.MethodGet, "/v1/admin/devices/"+device.ID.String(), nil)
		c.Params = gin.Params{{Key: "id", Value: device.ID.String()}}

		handler.GetHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.DeviceResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, device.KeyID, response.KeyID)
		assert.Equal(t, "ACTIVE", response.Status)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		deviceID := uuid.Must(uuid.NewV7())

		mockUseCase.On("Get", mock.Anything, deviceID).Return(nil, deviceDomain.ErrDeviceNotFound).Once()

		c, w := createTestContext(http.MethodGet, "/v1/admin/devices/"+deviceID.String(), nil)
		c.Params = gin.Params{{Key: "id", Value: deviceID.String()}}

		handler.GetHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Error_InvalidID", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		c, w := createTestContext(http.MethodGet, "/v1/admin/devices/bad", nil)
		c.Params = gin.Params{{Key: "id", Value: "bad"}}

		handler.GetHandler(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDeviceHandler_Transitions(t *testing.T) {
	tests := []struct {
		name   string
		method string
		call   func(h *DeviceHandler, c *gin.Context)
		result deviceDomain.DeviceStatus
	}{
		{"Approve", "Approve", (*DeviceHandler).ApproveHandler, deviceDomain.DeviceStatusActive},
		{"Suspend", "Suspend", (*DeviceHandler).SuspendHandler, deviceDomain.DeviceStatusSuspended},
		{"Reactivate", "Reactivate", (*DeviceHandler).ReactivateHandler, deviceDomain.DeviceStatusActive},
		{"Revoke", "Revoke", (*DeviceHandler).RevokeHandler, deviceDomain.DeviceStatusRevoked},
	}

	for _, tt := range tests {
		t.Run(tt.name+"_Success", func(t *testing.T) {
			handler, mockUseCase := setupTestHandler(t)
			device := newTestDevice(tt.result)

			mockUseCase.On(tt.method, mock.Anything, device.ID).Return(device, nil).Once()

			c, w := createTestContext(http.MethodPost, "/v1/admin/devices/"+device.ID.String(), nil)
			c.Params = gin.Params{{Key: "id", Value: device.ID.String()}}

			tt.call(handler, c)

			assert.Equal(t, http.StatusOK, w.Code)

			var response dto.DeviceResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, string(tt.result), response.Status)
		})

		t.Run(tt.name+"_InvalidTransition", func(t *testing.T) {
			handler, mockUseCase := setupTestHandler(t)
			deviceID := uuid.Must(uuid.NewV7())

			mockUseCase.On(tt.method, mock.Anything, deviceID).
				Return(nil, deviceDomain.ErrInvalidDeviceTransition).
				Once()

			c, w := createTestContext(http.MethodPost, "/v1/admin/devices/"+deviceID.String(), nil)
			c.Params = gin.Params{{Key: "id", Value: deviceID.String()}}

			tt.call(handler, c)

			assert.Equal(t, http.StatusConflict, w.Code)
		})
	}
}

func TestDeviceHandler_CreateEnrollmentCodeHandler(t *testing.T) {
	t.Run("Success_WithTTL", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		projectID := uuid.Must(uuid.NewV7())
		expiresAt := time.Now().Add(time.Hour).UTC()
		code := &deviceDomain.EnrollmentCode{
			ID:        uuid.Must(uuid.NewV7()),
			ProjectID: projectID,
			Code:      "ABCD-EFGH-IJKL-MNOP",
			ExpiresAt: &expiresAt,
			CreatedAt: time.Now().UTC(),
		}

		mockUseCase.On("CreateEnrollmentCode", mock.Anything, projectID, time.Hour).Return(code, nil).Once()

		c, w := createTestContext(
			http.MethodPost,
			"/v1/admin/projects/"+projectID.String()+"/enrollment-codes",
			dto.CreateEnrollmentCodeRequest{TTLSeconds: 3600},
		)
		c.Params = gin.Params{{Key: "project_id", Value: projectID.String()}}

		handler.CreateEnrollmentCodeHandler(c)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response dto.EnrollmentCodeResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, code.Code, response.Code)
		assert.NotNil(t, response.ExpiresAt)
	})

	t.Run("Success_EmptyBody", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		projectID := uuid.Must(uuid.NewV7())
		code := &deviceDomain.EnrollmentCode{
			ID:        uuid.Must(uuid.NewV7()),
			ProjectID: projectID,
			Code:      "ABCD-EFGH-IJKL-MNOP",
			CreatedAt: time.Now().UTC(),
		}

		mockUseCase.On("CreateEnrollmentCode", mock.Anything, projectID, time.Duration(0)).Return(code, nil).Once()

		c, w := createTestContext(http.MethodPost, "/v1/admin/projects/x/enrollment-codes", nil)
		c.Params = gin.Params{{Key: "project_id", Value: projectID.String()}}

		handler.CreateEnrollmentCodeHandler(c)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("Error_NegativeTTL", func(t *testing.T) {
		handler, _ := setupTestHandler(t)
		projectID := uuid.Must(uuid.NewV7())

		c, w := createTestContext(
			http.MethodPost,
			"/v1/admin/projects/x/enrollment-codes",
			dto.CreateEnrollmentCodeRequest{TTLSeconds: -5},
		)
		c.Params = gin.Params{{Key: "project_id", Value: projectID.String()}}

		handler.CreateEnrollmentCodeHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_UseCase", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		projectID := uuid.Must(uuid.NewV7())

		mockUseCase.On("CreateEnrollmentCode", mock.Anything, projectID, time.Duration(0)).
			Return(nil, errors.New("db down")).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/admin/projects/x/enrollment-codes", nil)
		c.Params = gin.Params{{Key: "project_id", Value: projectID.String()}}

		handler.CreateEnrollmentCodeHandler(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
