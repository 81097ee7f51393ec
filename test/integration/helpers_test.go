// Package integration provides end-to-end tests for the KeyGuard gateway against both
// PostgreSQL and MySQL.
package integration

import (
	"bytes"
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/allisson/keyguard/internal/app"
	"github.com/allisson/keyguard/internal/config"
	httpServer "github.com/allisson/keyguard/internal/http"
	projectDomain "github.com/allisson/keyguard/internal/project/domain"
	signingDomain "github.com/allisson/keyguard/internal/signing/domain"
	signingTesting "github.com/allisson/keyguard/internal/signing/testing"
	"github.com/allisson/keyguard/internal/testutil"
)

const (
	adminToken          = "integration-admin-token"
	upstreamProviderKey = "sk-upstream-integration"
)

// upstreamRequest is what the fake provider observed for one call.
type upstreamRequest struct {
	Method        string
	Path          string
	Authorization string
	Body          string
}

// fakeUpstream is an LLM provider stand-in. Requests with "stream":true get an event stream.
type fakeUpstream struct {
	server   *httptest.Server
	mu       sync.Mutex
	requests []upstreamRequest
}

func newFakeUpstream() *fakeUpstream {
	u := &fakeUpstream{}
	u.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		u.mu.Lock()
		u.requests = append(u.requests, upstreamRequest{
			Method:        r.Method,
			Path:          r.URL.RequestURI(),
			Authorization: r.Header.Get("Authorization"),
			Body:          string(body),
		})
		u.mu.Unlock()

		if strings.Contains(string(body), `"stream":true`) {
			w.Header().Set("Content-Type", "text/event-stream")
			w.WriteHeader(http.StatusOK)
			flusher := w.(http.Flusher)
			for i := range 3 {
				_, _ = fmt.Fprintf(w, "data: {\"chunk\":%d}\n\n", i)
				flusher.Flush()
			}
			_, _ = io.WriteString(w, "data: [DONE]\n\n")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"chatcmpl-1","object":"chat.completion"}`)
	}))
	return u
}

func (u *fakeUpstream) last() upstreamRequest {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.requests[len(u.requests)-1]
}

func (u *fakeUpstream) count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.requests)
}

// integrationTestContext holds all dependencies and state for integration testing.
type integrationTestContext struct {
	container     *app.Container
	db            *sql.DB
	server        *httptest.Server
	upstream      *fakeUpstream
	projectID     string
	projectSecret string
	dbDriver      string
}

// setupIntegrationTest builds the full container against a real database and a fake upstream.
func setupIntegrationTest(t *testing.T, dbDriver string) *integrationTestContext {
	t.Helper()

	gin.SetMode(gin.TestMode)

	var db *sql.DB
	var dsn string
	if dbDriver == "postgres" {
		testutil.SkipIfNoPostgres(t)
		db = testutil.SetupPostgresDB(t)
		dsn = testutil.GetPostgresTestDSN()
	} else {
		testutil.SkipIfNoMySQL(t)
		db = testutil.SetupMySQLDB(t)
		dsn = testutil.GetMySQLTestDSN()
	}

	vaultKey := make([]byte, 32)
	_, err := rand.Read(vaultKey)
	require.NoError(t, err)

	upstream := newFakeUpstream()

	cfg := &config.Config{
		ServerHost:           "localhost",
		ServerPort:           8080,
		DBDriver:             dbDriver,
		DBConnectionString:   dsn,
		DBMaxOpenConnections: 10,
		DBMaxIdleConnections: 5,
		DBConnMaxLifetime:    time.Hour,
		LogLevel:             "error",
		VaultKey:             base64.StdEncoding.EncodeToString(vaultKey),
		UpstreamBaseURL:      upstream.server.URL,
		UpstreamTimeout:      5 * time.Second,
		MaxBodyBytes:         1 << 20,
		SignatureWindow:      120 * time.Second,
		NonceTTL:             120 * time.Second,
		NonceSweepInterval:   time.Minute,
		AdminToken:           adminToken,
	}

	container := app.NewContainer(cfg)

	projectUseCase, err := container.ProjectUseCase()
	require.NoError(t, err, "failed to get project use case")

	output, err := projectUseCase.Create(context.Background(), &projectDomain.CreateProjectInput{
		Name:        "integration",
		ProviderKey: upstreamProviderKey,
	})
	require.NoError(t, err, "failed to create project")

	srv, err := container.HTTPServer()
	require.NoError(t, err, "failed to get HTTP server")

	handler := srv.GetHandler()
	require.NotNil(t, handler, "handler should not be nil after SetupRouter")

	return &integrationTestContext{
		container:     container,
		db:            db,
		server:        httptest.NewServer(handler),
		upstream:      upstream,
		projectID:     output.ID.String(),
		projectSecret: output.PlainSecret,
		dbDriver:      dbDriver,
	}
}

// teardownIntegrationTest cleans up all resources.
func teardownIntegrationTest(t *testing.T, ctx *integrationTestContext) {
	t.Helper()

	ctx.server.Close()
	ctx.upstream.server.Close()

	if err := ctx.container.Shutdown(context.Background()); err != nil {
		t.Logf("Warning: container shutdown error: %v", err)
	}
	testutil.TeardownDB(t, ctx.db)
}

func (ctx *integrationTestContext) do(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req) //nolint:gosec // localhost test server
	require.NoError(t, err, "failed to perform request")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")
	_ = resp.Body.Close()

	return resp, body
}

func (ctx *integrationTestContext) newRequest(t *testing.T, method, path string, body []byte) *http.Request {
	t.Helper()

	req, err := http.NewRequest(method, ctx.server.URL+path, bytes.NewReader(body))
	require.NoError(t, err, "failed to create request")
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// admin performs an operator request.
func (ctx *integrationTestContext) admin(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := ctx.newRequest(t, method, path, raw)
	req.Header.Set(httpServer.HeaderAdminToken, adminToken)
	return ctx.do(t, req)
}

// enroll registers key under the test project.
func (ctx *integrationTestContext) enroll(
	t *testing.T,
	key *signingTesting.DeviceKey,
	fingerprint, code string,
) (*http.Response, map[string]any) {
	t.Helper()

	raw, err := json.Marshal(map[string]any{
		"public_key":      key.PublicKeyB64,
		"key_id":          key.KeyID,
		"fingerprint":     fingerprint,
		"label":           "integration device",
		"enrollment_code": code,
	})
	require.NoError(t, err)

	req := ctx.newRequest(t, http.MethodPost, "/v1/devices/enroll", raw)
	req.Header.Set(signingDomain.HeaderProjectSecret, ctx.projectSecret)

	resp, body := ctx.do(t, req)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded), string(body))
	return resp, decoded
}

// signed builds a request signed by key at the current time.
func (ctx *integrationTestContext) signed(
	t *testing.T,
	key *signingTesting.DeviceKey,
	method, path string,
	body []byte,
) *http.Request {
	t.Helper()

	req := ctx.newRequest(t, method, path, body)
	key.SignRequest(method, path, body, ctx.projectSecret, time.Now()).Apply(req)
	return req
}
