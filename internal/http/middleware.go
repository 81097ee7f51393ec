package http

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	"github.com/allisson/keyguard/internal/httputil"
)

// HeaderAdminToken carries the operator token on admin routes.
const HeaderAdminToken = "X-KG-Admin-Token"

// CustomLoggerMiddleware logs one structured line per request.
func CustomLoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		attrs := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
			slog.String("request_id", requestid.Get(c)),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error("http request", attrs...)
		case status >= http.StatusBadRequest:
			logger.Warn("http request", attrs...)
		default:
			logger.Info("http request", attrs...)
		}
	}
}

// AdminTokenMiddleware requires X-KG-Admin-Token to equal token, compared in constant time.
func AdminTokenMiddleware(token string, logger *slog.Logger) gin.HandlerFunc {
	expected := []byte(token)
	return func(c *gin.Context) {
		provided := []byte(c.GetHeader(HeaderAdminToken))
		if len(provided) == 0 || subtle.ConstantTimeCompare(provided, expected) != 1 {
			logger.Warn("admin authentication failed", slog.String("client_ip", c.ClientIP()))
			httputil.AbortWithError(c, http.StatusUnauthorized, "unauthorized", "Authentication is required")
			return
		}
		c.Next()
	}
}
