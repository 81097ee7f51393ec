package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auditMocks "github.com/allisson/keyguard/internal/audit/usecase/mocks"
	"github.com/allisson/keyguard/internal/config"
	deviceDomain "github.com/allisson/keyguard/internal/device/domain"
	deviceHTTP "github.com/allisson/keyguard/internal/device/http"
	deviceMocks "github.com/allisson/keyguard/internal/device/usecase/mocks"
	"github.com/allisson/keyguard/internal/metrics"
	projectDomain "github.com/allisson/keyguard/internal/project/domain"
	projectMocks "github.com/allisson/keyguard/internal/project/usecase/mocks"
	proxyHTTP "github.com/allisson/keyguard/internal/proxy/http"
	proxyMocks "github.com/allisson/keyguard/internal/proxy/usecase/mocks"
	signingTesting "github.com/allisson/keyguard/internal/signing/testing"
	verificationDomain "github.com/allisson/keyguard/internal/verification/domain"
	verificationHTTP "github.com/allisson/keyguard/internal/verification/http"
	verificationMocks "github.com/allisson/keyguard/internal/verification/usecase/mocks"
)

const (
	testAdminToken    = "admin-token-for-tests"
	testProjectSecret = "kgp_0123456789ab_c2VjcmV0"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type routerMocks struct {
	projects  *projectMocks.MockProjectUseCase
	devices   *deviceMocks.MockDeviceUseCase
	pipeline  *verificationMocks.MockPipeline
	forwarder *proxyMocks.MockForwarder
	audit     *auditMocks.MockAuditLogUseCase
}

func newTestConfig() *config.Config {
	return &config.Config{
		MaxBodyBytes:            1 << 20,
		AdminToken:              testAdminToken,
		RateLimitEnabled:        true,
		RateLimitRequestsPerSec: 100,
		RateLimitBurst:          100,
		MetricsNamespace:        "keyguard_test",
	}
}

func setupTestServer(t *testing.T, cfg *config.Config) (*Server, *routerMocks) {
	t.Helper()
	logger := discardLogger()

	m := &routerMocks{
		projects:  &projectMocks.MockProjectUseCase{},
		devices:   &deviceMocks.MockDeviceUseCase{},
		pipeline:  &verificationMocks.MockPipeline{},
		forwarder: &proxyMocks.MockForwarder{},
		audit:     &auditMocks.MockAuditLogUseCase{},
	}

	server := NewServer(nil, "localhost", 0, logger)
	server.SetupRouter(cfg, RouterDependencies{
		ProjectUseCase: m.projects,
		Pipeline:       m.pipeline,
		DeviceHandler:  deviceHTTP.NewDeviceHandler(m.devices, logger),
		VerifyHandler:  verificationHTTP.NewVerifyHandler(logger),
		ProxyHandler:   proxyHTTP.NewProxyHandler(m.forwarder, m.projects, m.audit, logger),
	})
	t.Cleanup(func() {
		server.cancel()
		m.projects.AssertExpectations(t)
		m.devices.AssertExpectations(t)
		m.pipeline.AssertExpectations(t)
		m.forwarder.AssertExpectations(t)
	})

	return server, m
}

func TestHealthHandler(t *testing.T) {
	server, _ := setupTestServer(t, newTestConfig())

	w := httptest.NewRecorder()
	server.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestReadinessHandler(t *testing.T) {
	t.Run("Nil database", func(t *testing.T) {
		server := NewServer(nil, "localhost", 0, discardLogger())

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)
		server.readinessHandler(c)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.JSONEq(t, `{"status":"not_ready","components":{"database":"error"}}`, w.Body.String())
	})

	t.Run("Database reachable", func(t *testing.T) {
		db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer func() { _ = db.Close() }()
		dbMock.ExpectPing()

		server := NewServer(db, "localhost", 0, discardLogger())

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)
		server.readinessHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ready","components":{"database":"ok"}}`, w.Body.String())
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("Database unreachable", func(t *testing.T) {
		db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer func() { _ = db.Close() }()
		dbMock.ExpectPing().WillReturnError(errors.New("connection refused"))

		server := NewServer(db, "localhost", 0, discardLogger())

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)
		server.readinessHandler(c)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestCustomLoggerMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	router := gin.New()
	router.Use(requestid.New(requestid.WithGenerator(func() string { return "req-42" })))
	router.Use(CustomLoggerMiddleware(logger))
	router.GET("/missing", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "/missing", entry["path"])
	assert.Equal(t, float64(http.StatusNotFound), entry["status"])
	assert.Equal(t, "req-42", entry["request_id"])
}

func TestAdminTokenMiddleware(t *testing.T) {
	router := gin.New()
	router.GET("/admin", AdminTokenMiddleware(testAdminToken, discardLogger()), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"Missing token", "", http.StatusUnauthorized},
		{"Wrong token", "not-the-token", http.StatusUnauthorized},
		{"Prefix of token", testAdminToken[:5], http.StatusUnauthorized},
		{"Valid token", testAdminToken, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.token != "" {
				req.Header.Set(HeaderAdminToken, tt.token)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestRouter_AdminRoutes(t *testing.T) {
	device := &deviceDomain.Device{
		ID:        uuid.Must(uuid.NewV7()),
		ProjectID: uuid.Must(uuid.NewV7()),
		KeyID:     "key-1",
		PublicKey: signingTesting.NewDeviceKey("key-1").PublicKeyB64,
		Status:    deviceDomain.DeviceStatusActive,
	}

	t.Run("Enabled", func(t *testing.T) {
		server, m := setupTestServer(t, newTestConfig())
		m.devices.On("Get", mock.Anything, device.ID).Return(device, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/v1/admin/devices/"+device.ID.String(), nil)
		req.Header.Set(HeaderAdminToken, testAdminToken)
		w := httptest.NewRecorder()
		server.GetHandler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), device.ID.String())
	})

	t.Run("Rejected without token", func(t *testing.T) {
		server, _ := setupTestServer(t, newTestConfig())

		req := httptest.NewRequest(http.MethodPost, "/v1/admin/devices/"+device.ID.String()+"/approve", nil)
		w := httptest.NewRecorder()
		server.GetHandler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Disabled without admin token", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.AdminToken = ""
		server, _ := setupTestServer(t, cfg)

		req := httptest.NewRequest(http.MethodGet, "/v1/admin/devices/"+device.ID.String(), nil)
		req.Header.Set(HeaderAdminToken, "")
		w := httptest.NewRecorder()
		server.GetHandler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRouter_Verify(t *testing.T) {
	project := &projectDomain.Project{ID: uuid.Must(uuid.NewV7()), Status: projectDomain.ProjectStatusActive}
	key := signingTesting.NewDeviceKey("key-1")
	deviceID := uuid.Must(uuid.NewV7())
	body := []byte(`{"hello":"world"}`)

	t.Run("Missing project secret", func(t *testing.T) {
		server, _ := setupTestServer(t, newTestConfig())

		req := httptest.NewRequest(http.MethodPost, "/v1/verify", bytes.NewReader(body))
		w := httptest.NewRecorder()
		server.GetHandler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Signed request accepted", func(t *testing.T) {
		server, m := setupTestServer(t, newTestConfig())
		m.projects.On("Authenticate", mock.Anything, testProjectSecret).Return(project, nil).Once()
		m.pipeline.On("Verify", mock.Anything, mock.MatchedBy(func(in *verificationDomain.VerifyInput) bool {
			return in.ProjectID == project.ID && in.KeyID == "key-1" && in.PathWithQuery == "/v1/verify"
		})).Return(verificationDomain.Accept(deviceID, "key-1")).Once()

		req := httptest.NewRequest(http.MethodPost, "/v1/verify", bytes.NewReader(body))
		key.SignRequest(http.MethodPost, "/v1/verify", body, testProjectSecret, time.Now()).Apply(req)
		w := httptest.NewRecorder()
		server.GetHandler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var result verificationDomain.Result
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.True(t, result.Valid)
		assert.Equal(t, deviceID.String(), result.DeviceID)
	})
}

func TestRouter_Proxy(t *testing.T) {
	project := &projectDomain.Project{ID: uuid.Must(uuid.NewV7()), Status: projectDomain.ProjectStatusActive}
	key := signingTesting.NewDeviceKey("key-1")
	deviceID := uuid.Must(uuid.NewV7())
	body := []byte(`{"model":"m"}`)
	target := "/v1/proxy/v1/chat/completions"

	server, m := setupTestServer(t, newTestConfig())
	m.projects.On("Authenticate", mock.Anything, testProjectSecret).Return(project, nil).Once()
	m.projects.On("ProviderKey", mock.Anything, project).Return("sk-provider", nil).Once()
	m.pipeline.On("Verify", mock.Anything, mock.Anything).Return(verificationDomain.Accept(deviceID, "key-1")).Once()
	m.forwarder.On("Forward", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			args.Get(1).(http.ResponseWriter).WriteHeader(http.StatusAccepted)
		}).
		Return(nil).
		Once()

	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	key.SignRequest(http.MethodPost, target, body, testProjectSecret, time.Now()).Apply(req)
	w := httptest.NewRecorder()
	server.GetHandler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestServer_StartRequiresRouter(t *testing.T) {
	server := NewServer(nil, "localhost", 0, discardLogger())
	err := server.Start(context.Background())
	assert.Error(t, err)
}

func TestServer_ShutdownGracefully(t *testing.T) {
	server, _ := setupTestServer(t, newTestConfig())

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start(context.Background())
	}()

	time.Sleep(100 * time.Millisecond)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Shutdown(shutdownCtx))

	select {
	case err := <-errChan:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestMetricsServer_Endpoints(t *testing.T) {
	provider, err := metrics.NewProvider("keyguard_test")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	metricsServer := NewMetricsServer("localhost", 0, discardLogger(), provider)

	w := httptest.NewRecorder()
	metricsServer.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")

	w = httptest.NewRecorder()
	metricsServer.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsServer_WithoutProvider(t *testing.T) {
	metricsServer := NewMetricsServer("localhost", 0, discardLogger(), nil)

	w := httptest.NewRecorder()
	metricsServer.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListener_StartShutdown(t *testing.T) {
	ln := newListener("test server", "127.0.0.1", 0, discardLogger())

	errChan := make(chan error, 1)
	go func() {
		errChan <- ln.serve(http.NotFoundHandler())
	}()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, ln.shutdown(context.Background()))
	select {
	case err := <-errChan:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not stop")
	}
}

func TestServer_NoMetricsEndpoint(t *testing.T) {
	server, _ := setupTestServer(t, newTestConfig())

	w := httptest.NewRecorder()
	server.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
