// Package app provides the dependency injection container that assembles KeyGuard.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	auditService "github.com/allisson/keyguard/internal/audit/service"
	auditUseCase "github.com/allisson/keyguard/internal/audit/usecase"
	"github.com/allisson/keyguard/internal/config"
	"github.com/allisson/keyguard/internal/database"
	deviceHTTP "github.com/allisson/keyguard/internal/device/http"
	deviceUseCase "github.com/allisson/keyguard/internal/device/usecase"
	"github.com/allisson/keyguard/internal/http"
	"github.com/allisson/keyguard/internal/metrics"
	projectService "github.com/allisson/keyguard/internal/project/service"
	projectUseCase "github.com/allisson/keyguard/internal/project/usecase"
	proxyHTTP "github.com/allisson/keyguard/internal/proxy/http"
	proxyUseCase "github.com/allisson/keyguard/internal/proxy/usecase"
	replayUseCase "github.com/allisson/keyguard/internal/replay/usecase"
	vaultDomain "github.com/allisson/keyguard/internal/vault/domain"
	vaultService "github.com/allisson/keyguard/internal/vault/service"
	verificationHTTP "github.com/allisson/keyguard/internal/verification/http"
	verificationUseCase "github.com/allisson/keyguard/internal/verification/usecase"
)

// Container holds all application dependencies. Components are created on first access.
type Container struct {
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	txManager       database.TxManager
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Credential vault
	kmsService vaultService.KMSService
	vaultKey   []byte
	vault      vaultService.Vault

	// Projects
	secretService  projectService.SecretService
	projectRepo    projectUseCase.ProjectRepository
	projectUseCase projectUseCase.ProjectUseCase

	// Devices
	deviceRepo         deviceUseCase.DeviceRepository
	enrollmentCodeRepo deviceUseCase.EnrollmentCodeRepository
	deviceUseCase      deviceUseCase.DeviceUseCase
	deviceHandler      *deviceHTTP.DeviceHandler

	// Replay protection and verification
	nonceRepo     replayUseCase.NonceRepository
	replayGuard   replayUseCase.ReplayGuard
	pipeline      verificationUseCase.Pipeline
	verifyHandler *verificationHTTP.VerifyHandler

	// Audit
	auditSigner     auditService.AuditSigner
	auditLogRepo    auditUseCase.AuditLogRepository
	auditLogUseCase auditUseCase.AuditLogUseCase

	// Proxy
	forwarder    proxyUseCase.Forwarder
	proxyHandler *proxyHTTP.ProxyHandler

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	mu                     sync.Mutex
	loggerInit             sync.Once
	dbInit                 sync.Once
	txManagerInit          sync.Once
	metricsProviderInit    sync.Once
	businessMetricsInit    sync.Once
	kmsServiceInit         sync.Once
	vaultKeyInit           sync.Once
	vaultInit              sync.Once
	secretServiceInit      sync.Once
	projectRepoInit        sync.Once
	projectUseCaseInit     sync.Once
	deviceRepoInit         sync.Once
	enrollmentCodeRepoInit sync.Once
	deviceUseCaseInit      sync.Once
	deviceHandlerInit      sync.Once
	nonceRepoInit          sync.Once
	replayGuardInit        sync.Once
	pipelineInit           sync.Once
	verifyHandlerInit      sync.Once
	auditSignerInit        sync.Once
	auditLogRepoInit       sync.Once
	auditLogUseCaseInit    sync.Once
	forwarderInit          sync.Once
	proxyHandlerInit       sync.Once
	httpServerInit         sync.Once
	metricsServerInit      sync.Once
	initErrors             map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the JSON logger configured with LOG_LEVEL.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
func (c *Container) TxManager() (database.TxManager, error) {
	var err error
	c.txManagerInit.Do(func() {
		c.txManager, err = c.initTxManager()
		if err != nil {
			c.initErrors["txManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// MetricsProvider returns the Prometheus-backed meter provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		c.metricsProvider, err = c.initMetricsProvider()
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. It is a no-op when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// HTTPServer returns the API server with its router set up.
func (c *Container) HTTPServer() (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		c.metricsServer, err = c.initMetricsServer()
		if err != nil {
			c.initErrors["metricsServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown releases every initialized resource. The vault key is zeroed.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.vaultKey != nil {
		vaultDomain.Zero(c.vaultKey)
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(shutdownErrors...))
	}

	return nil
}

func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(context.Background(), database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func (c *Container) initTxManager() (database.TxManager, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

func (c *Container) initMetricsProvider() (*metrics.Provider, error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}
	provider, err := metrics.NewProvider(c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics provider: %w", err)
	}
	return provider, nil
}

func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return metrics.NewNoOpBusinessMetrics(), nil
	}
	return metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
}

func (c *Container) initHTTPServer() (*http.Server, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}
	projects, err := c.ProjectUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get project use case for http server: %w", err)
	}
	pipeline, err := c.Pipeline()
	if err != nil {
		return nil, fmt.Errorf("failed to get verification pipeline for http server: %w", err)
	}
	deviceHandler, err := c.DeviceHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get device handler for http server: %w", err)
	}
	proxyHandler, err := c.ProxyHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get proxy handler for http server: %w", err)
	}
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}

	deps := http.RouterDependencies{
		ProjectUseCase: projects,
		Pipeline:       pipeline,
		DeviceHandler:  deviceHandler,
		VerifyHandler:  c.VerifyHandler(),
		ProxyHandler:   proxyHandler,
	}
	if provider != nil {
		deps.MeterProvider = provider.MeterProvider()
	}

	server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, c.Logger())
	server.SetupRouter(c.config, deps)

	return server, nil
}

func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, nil
	}
	return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider), nil
}
