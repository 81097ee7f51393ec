package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/keyguard/internal/errors"
	"github.com/allisson/keyguard/internal/httputil"
	verificationDomain "github.com/allisson/keyguard/internal/verification/domain"
)

// VerifyHandler reports a successful verification.
type VerifyHandler struct {
	logger *slog.Logger
}

// NewVerifyHandler creates a new verify handler.
func NewVerifyHandler(logger *slog.Logger) *VerifyHandler {
	return &VerifyHandler{logger: logger}
}

// VerifyHandler answers a request that passed SignatureVerificationMiddleware.
// POST /v1/verify - Requires signed headers.
// Returns 200 OK with {"valid": true, "device_id": ..., "key_id": ...}. Rejections are written
// by the middleware as 401 with the same shape.
func (h *VerifyHandler) VerifyHandler(c *gin.Context) {
	verified, ok := GetVerifiedRequest(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	c.JSON(http.StatusOK, verificationDomain.Accept(verified.DeviceID, verified.KeyID))
}
