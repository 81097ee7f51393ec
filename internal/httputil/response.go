// Package httputil holds the gin helpers shared by the KeyGuard handlers:
// error replies and list pagination.
package httputil

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/keyguard/internal/errors"
)

// ErrorResponse is the body of every KeyGuard error reply.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func newErrorResponse(c *gin.Context, code, message string) ErrorResponse {
	return ErrorResponse{Error: code, Message: message, RequestID: requestid.Get(c)}
}

type errorMapping struct {
	status  int
	code    string
	message string
}

// errorMappings lists the public face of each error kind. An empty message
// means the error text itself is returned.
var errorMappings = map[error]errorMapping{
	apperrors.ErrNotFound:     {http.StatusNotFound, "not_found", "The requested resource was not found"},
	apperrors.ErrConflict:     {http.StatusConflict, "conflict", "A conflict occurred with existing data"},
	apperrors.ErrInvalidInput: {http.StatusUnprocessableEntity, "invalid_input", ""},
	apperrors.ErrUnauthorized: {http.StatusUnauthorized, "unauthorized", "Authentication is required"},
	apperrors.ErrForbidden: {
		http.StatusForbidden, "forbidden", "You don't have permission to access this resource",
	},
	apperrors.ErrUnavailable: {
		http.StatusBadGateway, "unavailable", "A required upstream dependency is unavailable",
	},
}

var internalErrorMapping = errorMapping{http.StatusInternalServerError, "internal_error", "An internal error occurred"}

// HandleErrorGin writes the JSON error body for err's kind. Errors without a
// kind become a 500 whose details are only logged.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	m, ok := errorMappings[apperrors.Kind(err)]
	if !ok {
		m = internalErrorMapping
	}
	message := m.message
	if message == "" {
		message = err.Error()
	}

	if logger != nil {
		level := slog.LevelWarn
		if m.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c, level, "request failed",
			slog.Int("status_code", m.status),
			slog.String("error_code", m.code),
			slog.Any("error", err),
		)
	}

	c.JSON(m.status, newErrorResponse(c, m.code, message))
}

// HandleBadRequestGin writes a 400 response for malformed JSON, headers or parameters.
func HandleBadRequestGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("bad request", slog.Any("error", err))
	}

	c.JSON(http.StatusBadRequest, newErrorResponse(c, "bad_request", err.Error()))
}

// HandleValidationErrorGin writes a 422 response for DTO validation errors.
func HandleValidationErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("validation failed", slog.Any("error", err))
	}

	c.JSON(http.StatusUnprocessableEntity, newErrorResponse(c, "validation_error", err.Error()))
}

// AbortWithError writes status with a code-only error body and aborts the handler chain.
func AbortWithError(c *gin.Context, status int, code string, message string) {
	c.AbortWithStatusJSON(status, newErrorResponse(c, code, message))
}
