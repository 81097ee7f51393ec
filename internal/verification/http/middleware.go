package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/allisson/keyguard/internal/errors"
	"github.com/allisson/keyguard/internal/httputil"
	projectHTTP "github.com/allisson/keyguard/internal/project/http"
	signingDomain "github.com/allisson/keyguard/internal/signing/domain"
	verificationDomain "github.com/allisson/keyguard/internal/verification/domain"
	verificationUseCase "github.com/allisson/keyguard/internal/verification/usecase"
)

// SignatureVerificationMiddleware verifies the signed headers of the request.
//
// MUST be used after ProjectAuthenticationMiddleware. The body is read once (bounded by
// maxBodyBytes), hashed, and restored so downstream handlers can read it again.
//
// Error handling:
//   - Missing signed header or nonce longer than MaxNonceLength → 400 Bad Request
//   - Body larger than maxBodyBytes → 413 Request Entity Too Large
//   - Any verification gate fails → 401 with {"valid": false, "error": "..."}
func SignatureVerificationMiddleware(
	pipeline verificationUseCase.Pipeline,
	maxBodyBytes int64,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		project, ok := projectHTTP.GetProject(c.Request.Context())
		if !ok {
			logger.Error("signature verification middleware: no project in context")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		for _, header := range signingDomain.SignedHeaders {
			if c.GetHeader(header) == "" {
				httputil.HandleBadRequestGin(c, fmt.Errorf("missing required header: %s", header), logger)
				c.Abort()
				return
			}
		}

		if len(c.GetHeader(signingDomain.HeaderNonce)) > signingDomain.MaxNonceLength {
			httputil.HandleBadRequestGin(c,
				fmt.Errorf("header %s exceeds %d bytes", signingDomain.HeaderNonce, signingDomain.MaxNonceLength), logger)
			c.Abort()
			return
		}

		body, err := readBody(c, maxBodyBytes)
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				httputil.AbortWithError(c, http.StatusRequestEntityTooLarge, "payload_too_large",
					fmt.Sprintf("request body exceeds %d bytes", maxBodyBytes))
				return
			}
			httputil.HandleBadRequestGin(c, fmt.Errorf("failed to read request body"), logger)
			c.Abort()
			return
		}

		result := pipeline.Verify(c.Request.Context(), &verificationDomain.VerifyInput{
			ProjectID:     project.ID,
			ProjectSecret: c.GetHeader(signingDomain.HeaderProjectSecret),
			Algorithm:     c.GetHeader(signingDomain.HeaderAlgorithm),
			Timestamp:     c.GetHeader(signingDomain.HeaderTimestamp),
			Nonce:         c.GetHeader(signingDomain.HeaderNonce),
			BodyHash:      c.GetHeader(signingDomain.HeaderBodySHA256),
			KeyID:         c.GetHeader(signingDomain.HeaderKeyID),
			Signature:     c.GetHeader(signingDomain.HeaderSignature),
			Method:        c.Request.Method,
			PathWithQuery: c.Request.RequestURI,
			Body:          body,
		})
		if !result.Valid {
			logger.Info("request verification rejected",
				slog.String("project_id", project.ID.String()),
				slog.String("key_id", c.GetHeader(signingDomain.HeaderKeyID)),
				slog.String("reason", result.Error),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, result)
			return
		}

		deviceID, err := uuid.Parse(result.DeviceID)
		if err != nil {
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(WithVerifiedRequest(c.Request.Context(), &VerifiedRequest{
			ProjectID: project.ID,
			DeviceID:  deviceID,
			KeyID:     result.KeyID,
			Body:      body,
		}))
		c.Next()
	}
}

func readBody(c *gin.Context, maxBodyBytes int64) ([]byte, error) {
	if c.Request.Body == nil {
		return nil, nil
	}
	if maxBodyBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, err
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}
