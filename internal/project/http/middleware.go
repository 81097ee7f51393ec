package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/keyguard/internal/errors"
	"github.com/allisson/keyguard/internal/httputil"
	projectUseCase "github.com/allisson/keyguard/internal/project/usecase"
	signingDomain "github.com/allisson/keyguard/internal/signing/domain"
)

// ProjectAuthenticationMiddleware authenticates the X-KG-Project-Secret header and stores the
// project in the request context.
//
// Error handling:
//   - Missing header, unknown prefix or hash mismatch → 401 Unauthorized
//   - Project INACTIVE or REVOKED → 403 Forbidden
//   - Store failures → 500 Internal Server Error
func ProjectAuthenticationMiddleware(
	projectUseCase projectUseCase.ProjectUseCase,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := c.GetHeader(signingDomain.HeaderProjectSecret)
		if secret == "" {
			logger.Debug("project authentication failed: missing project secret")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		project, err := projectUseCase.Authenticate(c.Request.Context(), secret)
		if err != nil {
			logger.Debug("project authentication failed", slog.String("error", err.Error()))
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(WithProject(c.Request.Context(), project))
		c.Next()
	}
}
