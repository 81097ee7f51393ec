package integration

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	signingTesting "github.com/allisson/keyguard/internal/signing/testing"
)

var databases = []struct {
	name     string
	dbDriver string
}{
	{"PostgreSQL", "postgres"},
	{"MySQL", "mysql"},
}

// TestIntegration_Health_BasicChecks validates the liveness and readiness endpoints.
func TestIntegration_Health_BasicChecks(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range databases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			t.Run("01_HealthCheck", func(t *testing.T) {
				resp, body := ctx.do(t, ctx.newRequest(t, http.MethodGet, "/health", nil))
				assert.Equal(t, http.StatusOK, resp.StatusCode)
				assert.JSONEq(t, `{"status":"healthy"}`, string(body))
			})

			t.Run("02_ReadinessCheck", func(t *testing.T) {
				resp, body := ctx.do(t, ctx.newRequest(t, http.MethodGet, "/ready", nil))
				assert.Equal(t, http.StatusOK, resp.StatusCode)
				assert.JSONEq(t, `{"status":"ready","components":{"database":"ok"}}`, string(body))
			})
		})
	}
}

// TestIntegration_Device_Lifecycle walks a device from enrollment through approval, signed
// verification, suspension and revocation.
func TestIntegration_Device_Lifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range databases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			key := signingTesting.NewDeviceKey("lifecycle-key")
			var deviceID string

			t.Run("01_EnrollPending", func(t *testing.T) {
				resp, body := ctx.enroll(t, key, "fingerprint-lifecycle", "")
				assert.Equal(t, http.StatusCreated, resp.StatusCode)
				assert.Equal(t, "PENDING", body["status"])
				deviceID, _ = body["id"].(string)
				require.NotEmpty(t, deviceID)
			})

			t.Run("02_EnrollIsIdempotent", func(t *testing.T) {
				resp, body := ctx.enroll(t, key, "fingerprint-lifecycle", "")
				assert.Equal(t, http.StatusOK, resp.StatusCode)
				assert.Equal(t, deviceID, body["id"])
			})

			t.Run("03_PendingDeviceRejected", func(t *testing.T) {
				resp, _ := ctx.do(t, ctx.signed(t, key, http.MethodPost, "/v1/verify", nil))
				assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			})

			t.Run("04_ApproveDevice", func(t *testing.T) {
				resp, body := ctx.admin(t, http.MethodPost, "/v1/admin/devices/"+deviceID+"/approve", nil)
				require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

				var device map[string]any
				require.NoError(t, json.Unmarshal(body, &device))
				assert.Equal(t, "ACTIVE", device["status"])
				assert.True(t, strings.HasPrefix(device["public_key_pem"].(string), "-----BEGIN PUBLIC KEY-----"))
			})

			t.Run("05_VerifySigned", func(t *testing.T) {
				resp, body := ctx.do(t, ctx.signed(t, key, http.MethodPost, "/v1/verify", []byte(`{"ping":1}`)))
				require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

				var result map[string]any
				require.NoError(t, json.Unmarshal(body, &result))
				assert.Equal(t, true, result["valid"])
				assert.Equal(t, deviceID, result["device_id"])
				assert.Equal(t, key.KeyID, result["key_id"])
			})

			t.Run("06_ReplayRejected", func(t *testing.T) {
				req := ctx.signed(t, key, http.MethodPost, "/v1/verify", nil)
				replay := req.Clone(req.Context())
				replay.Body = http.NoBody

				resp, _ := ctx.do(t, req)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				resp, _ = ctx.do(t, replay)
				assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			})

			t.Run("07_TamperedBodyRejected", func(t *testing.T) {
				req := ctx.signed(t, key, http.MethodPost, "/v1/verify", []byte(`{"a":1}`))
				tampered := ctx.newRequest(t, http.MethodPost, "/v1/verify", []byte(`{"a":2}`))
				tampered.Header = req.Header.Clone()

				resp, _ := ctx.do(t, tampered)
				assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			})

			t.Run("08_SuspendAndReactivate", func(t *testing.T) {
				resp, _ := ctx.admin(t, http.MethodPost, "/v1/admin/devices/"+deviceID+"/suspend", nil)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				resp, _ = ctx.do(t, ctx.signed(t, key, http.MethodPost, "/v1/verify", nil))
				assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

				resp, _ = ctx.admin(t, http.MethodPost, "/v1/admin/devices/"+deviceID+"/reactivate", nil)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				resp, _ = ctx.do(t, ctx.signed(t, key, http.MethodPost, "/v1/verify", nil))
				assert.Equal(t, http.StatusOK, resp.StatusCode)
			})

			t.Run("09_RevokeIsTerminal", func(t *testing.T) {
				resp, _ := ctx.admin(t, http.MethodPost, "/v1/admin/devices/"+deviceID+"/revoke", nil)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				resp, _ = ctx.admin(t, http.MethodPost, "/v1/admin/devices/"+deviceID+"/reactivate", nil)
				assert.Equal(t, http.StatusConflict, resp.StatusCode)

				resp, _ = ctx.do(t, ctx.signed(t, key, http.MethodPost, "/v1/verify", nil))
				assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			})

			t.Run("10_ListDevices", func(t *testing.T) {
				resp, body := ctx.admin(t, http.MethodGet, "/v1/admin/projects/"+ctx.projectID+"/devices", nil)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				var list struct {
					Data []map[string]any `json:"data"`
				}
				require.NoError(t, json.Unmarshal(body, &list))
				require.Len(t, list.Data, 1)
				assert.Equal(t, "REVOKED", list.Data[0]["status"])
			})
		})
	}
}

// TestIntegration_EnrollmentCode_Flow checks that a valid code activates a device on enrollment
// and cannot be used twice.
func TestIntegration_EnrollmentCode_Flow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range databases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			resp, body := ctx.admin(
				t,
				http.MethodPost,
				"/v1/admin/projects/"+ctx.projectID+"/enrollment-codes",
				map[string]any{"ttl_seconds": 600},
			)
			require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

			var code map[string]any
			require.NoError(t, json.Unmarshal(body, &code))
			plainCode, _ := code["code"].(string)
			require.NotEmpty(t, plainCode)

			first := signingTesting.NewDeviceKey("code-key-1")
			resp, enrolled := ctx.enroll(t, first, "fingerprint-code-1", plainCode)
			require.Equal(t, http.StatusCreated, resp.StatusCode)
			assert.Equal(t, "ACTIVE", enrolled["status"])

			resp, _ = ctx.do(t, ctx.signed(t, first, http.MethodPost, "/v1/verify", nil))
			assert.Equal(t, http.StatusOK, resp.StatusCode)

			second := signingTesting.NewDeviceKey("code-key-2")
			resp, _ = ctx.enroll(t, second, "fingerprint-code-2", plainCode)
			assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		})
	}
}

// TestIntegration_Proxy_Forwarding checks buffered and streamed forwarding with the project's
// provider key injected upstream.
func TestIntegration_Proxy_Forwarding(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range databases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			key := signingTesting.NewDeviceKey("proxy-key")
			resp, body := ctx.enroll(t, key, "fingerprint-proxy", "")
			require.Equal(t, http.StatusCreated, resp.StatusCode)
			deviceID, _ := body["id"].(string)

			resp, _ = ctx.admin(t, http.MethodPost, "/v1/admin/devices/"+deviceID+"/approve", nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			t.Run("01_Buffered", func(t *testing.T) {
				payload := []byte(`{"model":"gpt-4o-mini","messages":[{"role":"user","content":"hi"}]}`)
				path := "/v1/proxy/v1/chat/completions?trace=1"

				resp, body := ctx.do(t, ctx.signed(t, key, http.MethodPost, path, payload))
				require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
				assert.JSONEq(t, `{"id":"chatcmpl-1","object":"chat.completion"}`, string(body))

				last := ctx.upstream.last()
				assert.Equal(t, "/v1/chat/completions?trace=1", last.Path)
				assert.Equal(t, "Bearer "+upstreamProviderKey, last.Authorization)
				assert.Equal(t, string(payload), last.Body)
			})

			t.Run("02_Streamed", func(t *testing.T) {
				payload := []byte(`{"model":"gpt-4o-mini","stream":true}`)
				path := "/v1/proxy/v1/chat/completions"

				resp, body := ctx.do(t, ctx.signed(t, key, http.MethodPost, path, payload))
				require.Equal(t, http.StatusOK, resp.StatusCode)
				assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
				assert.Equal(t,
					"data: {\"chunk\":0}\n\ndata: {\"chunk\":1}\n\ndata: {\"chunk\":2}\n\ndata: [DONE]\n\n",
					string(body),
				)
			})

			t.Run("03_UnsignedNotForwarded", func(t *testing.T) {
				before := ctx.upstream.count()

				req := ctx.newRequest(t, http.MethodPost, "/v1/proxy/v1/chat/completions", []byte(`{}`))
				resp, _ := ctx.do(t, req)
				assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
				assert.Equal(t, before, ctx.upstream.count())
			})
		})
	}
}
