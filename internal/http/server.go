// Package http provides the API server, its router and the metrics server.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	"github.com/allisson/keyguard/internal/config"
	deviceHTTP "github.com/allisson/keyguard/internal/device/http"
	"github.com/allisson/keyguard/internal/metrics"
	projectHTTP "github.com/allisson/keyguard/internal/project/http"
	projectUseCase "github.com/allisson/keyguard/internal/project/usecase"
	proxyHTTP "github.com/allisson/keyguard/internal/proxy/http"
	verificationHTTP "github.com/allisson/keyguard/internal/verification/http"
	verificationUseCase "github.com/allisson/keyguard/internal/verification/usecase"
)

// Server is the KeyGuard API server.
type Server struct {
	*listener
	db     *sql.DB
	router *gin.Engine

	// ctx scopes background work owned by the router, such as rate limiter cleanup.
	ctx    context.Context
	cancel context.CancelFunc
}

// RouterDependencies holds the components the API routes are built from.
type RouterDependencies struct {
	ProjectUseCase projectUseCase.ProjectUseCase
	Pipeline       verificationUseCase.Pipeline
	DeviceHandler  *deviceHTTP.DeviceHandler
	VerifyHandler  *verificationHTTP.VerifyHandler
	ProxyHandler   *proxyHTTP.ProxyHandler
	// MeterProvider enables HTTP metrics when set.
	MeterProvider metric.MeterProvider
}

// NewServer creates a new API server. Call SetupRouter before Start.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	// No WriteTimeout: streamed proxy responses outlive any fixed bound.
	return &Server{
		listener: newListener("http server", host, port, logger),
		db:       db,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// SetupRouter registers middleware and routes.
func (s *Server) SetupRouter(cfg *config.Config, deps RouterDependencies) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}
	if deps.MeterProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(deps.MeterProvider, cfg.MetricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	projectAuth := projectHTTP.ProjectAuthenticationMiddleware(deps.ProjectUseCase, s.logger)
	signature := verificationHTTP.SignatureVerificationMiddleware(deps.Pipeline, cfg.MaxBodyBytes, s.logger)

	v1 := router.Group("/v1")
	{
		v1.POST("/devices/enroll", projectAuth, deps.DeviceHandler.EnrollHandler)
		v1.POST("/verify", projectAuth, signature, deps.VerifyHandler.VerifyHandler)

		proxyChain := []gin.HandlerFunc{projectAuth, signature}
		if cfg.RateLimitEnabled {
			proxyChain = append(proxyChain, verificationHTTP.DeviceRateLimitMiddleware(
				s.ctx,
				cfg.RateLimitRequestsPerSec,
				cfg.RateLimitBurst,
				s.logger,
			))
		}
		proxyChain = append(proxyChain, deps.ProxyHandler.ProxyHandler)
		v1.Any("/proxy/*path", proxyChain...)

		if cfg.AdminToken == "" {
			s.logger.Warn("ADMIN_TOKEN not set - admin endpoints disabled")
		} else {
			admin := v1.Group("/admin", AdminTokenMiddleware(cfg.AdminToken, s.logger))
			{
				admin.GET("/projects/:project_id/devices", deps.DeviceHandler.ListHandler)
				admin.POST(
					"/projects/:project_id/enrollment-codes",
					deps.DeviceHandler.CreateEnrollmentCodeHandler,
				)
				admin.GET("/devices/:id", deps.DeviceHandler.GetHandler)
				admin.POST("/devices/:id/approve", deps.DeviceHandler.ApproveHandler)
				admin.POST("/devices/:id/suspend", deps.DeviceHandler.SuspendHandler)
				admin.POST("/devices/:id/reactivate", deps.DeviceHandler.ReactivateHandler)
				admin.POST("/devices/:id/revoke", deps.DeviceHandler.RevokeHandler)
			}
		}
	}

	s.router = router
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start serves requests until Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return fmt.Errorf("router not initialized: call SetupRouter first")
	}
	return s.serve(s.router)
}

// Shutdown gracefully shuts down the HTTP server and stops router background work.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	return s.shutdown(ctx)
}

// healthHandler reports liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports readiness by pinging the database.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{"database": "ok"}

	if s.db == nil {
		components["database"] = "error"
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "components": components})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Warn("readiness check failed", slog.Any("error", err))
		components["database"] = "error"
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "components": components})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready", "components": components})
}
