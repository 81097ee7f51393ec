// Package http provides the upstream provider proxy endpoint.
package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	auditDomain "github.com/allisson/keyguard/internal/audit/domain"
	auditUseCase "github.com/allisson/keyguard/internal/audit/usecase"
	apperrors "github.com/allisson/keyguard/internal/errors"
	"github.com/allisson/keyguard/internal/httputil"
	projectHTTP "github.com/allisson/keyguard/internal/project/http"
	projectUseCase "github.com/allisson/keyguard/internal/project/usecase"
	proxyDomain "github.com/allisson/keyguard/internal/proxy/domain"
	proxyUseCase "github.com/allisson/keyguard/internal/proxy/usecase"
	verificationHTTP "github.com/allisson/keyguard/internal/verification/http"
)

// RoutePrefix is stripped from the request URI to form the upstream endpoint.
const RoutePrefix = "/v1/proxy"

// ProxyHandler relays verified requests to the upstream provider.
type ProxyHandler struct {
	forwarder      proxyUseCase.Forwarder
	projectUseCase projectUseCase.ProjectUseCase
	auditUseCase   auditUseCase.AuditLogUseCase
	logger         *slog.Logger
}

// NewProxyHandler creates a new proxy handler.
func NewProxyHandler(
	forwarder proxyUseCase.Forwarder,
	projectUseCase projectUseCase.ProjectUseCase,
	auditUseCase auditUseCase.AuditLogUseCase,
	logger *slog.Logger,
) *ProxyHandler {
	return &ProxyHandler{
		forwarder:      forwarder,
		projectUseCase: projectUseCase,
		auditUseCase:   auditUseCase,
		logger:         logger,
	}
}

// ProxyHandler forwards the request under /v1/proxy to the provider with the project's key.
// ANY /v1/proxy/*path - Requires project authentication and signed headers.
// Relays the upstream status and body. Returns 502 when the provider key cannot be decrypted
// or the provider is unreachable.
func (h *ProxyHandler) ProxyHandler(c *gin.Context) {
	ctx := c.Request.Context()

	verified, ok := verificationHTTP.GetVerifiedRequest(ctx)
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}
	project, ok := projectHTTP.GetProject(ctx)
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	endpoint := strings.TrimPrefix(c.Request.RequestURI, RoutePrefix)
	if endpoint == "" {
		endpoint = "/"
	}
	requestID := requestid.Get(c)

	providerKey, err := h.projectUseCase.ProviderKey(ctx, project)
	if err != nil {
		h.logger.Error("provider key unavailable",
			slog.String("project_id", project.ID.String()),
			slog.Any("error", err),
		)
		deviceID := verified.DeviceID
		h.auditUseCase.Record(ctx, &auditDomain.AuditLog{
			RequestID:    requestID,
			ProjectID:    project.ID,
			DeviceID:     &deviceID,
			Endpoint:     endpoint,
			Method:       c.Request.Method,
			StatusCode:   http.StatusBadGateway,
			Outcome:      auditDomain.OutcomeFailure,
			ErrorSummary: proxyDomain.ErrCodeProviderKeyUnavailable,
		})
		httputil.AbortWithError(
			c,
			http.StatusBadGateway,
			proxyDomain.ErrCodeProviderKeyUnavailable,
			"The provider credential for this project is unavailable",
		)
		return
	}

	req := &proxyDomain.ForwardRequest{
		Endpoint:    endpoint,
		Method:      c.Request.Method,
		Body:        verified.Body,
		Header:      c.Request.Header,
		RequestID:   requestID,
		ProjectID:   project.ID,
		DeviceID:    verified.DeviceID,
		ProviderKey: providerKey,
	}

	if err := h.forwarder.Forward(ctx, c.Writer, req); err != nil {
		h.logger.Warn("proxy request failed",
			slog.String("endpoint", endpoint),
			slog.Any("error", err),
		)
		httputil.AbortWithError(
			c,
			http.StatusBadGateway,
			proxyDomain.ErrCodeUpstreamUnavailable,
			"The upstream provider is unavailable",
		)
	}
}
