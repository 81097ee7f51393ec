package app

import (
	"fmt"
	"net/http"

	proxyHTTP "github.com/allisson/keyguard/internal/proxy/http"
	proxyUseCase "github.com/allisson/keyguard/internal/proxy/usecase"
)

// Forwarder returns the upstream forwarder, wrapped with metrics when enabled.
func (c *Container) Forwarder() (proxyUseCase.Forwarder, error) {
	var err error
	c.forwarderInit.Do(func() {
		c.forwarder, err = c.initForwarder()
		if err != nil {
			c.initErrors["forwarder"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["forwarder"]; exists {
		return nil, storedErr
	}
	return c.forwarder, nil
}

// ProxyHandler returns the handler of ANY /v1/proxy/*path.
func (c *Container) ProxyHandler() (*proxyHTTP.ProxyHandler, error) {
	var err error
	c.proxyHandlerInit.Do(func() {
		c.proxyHandler, err = c.initProxyHandler()
		if err != nil {
			c.initErrors["proxyHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["proxyHandler"]; exists {
		return nil, storedErr
	}
	return c.proxyHandler, nil
}

func (c *Container) initForwarder() (proxyUseCase.Forwarder, error) {
	auditLogUseCase, err := c.AuditLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log use case for forwarder: %w", err)
	}

	// Client without a timeout: buffered calls are bounded by UpstreamTimeout per request and
	// streams end with either side.
	client := &http.Client{}

	baseForwarder := proxyUseCase.NewForwarder(
		proxyUseCase.Config{
			BaseURL: c.config.UpstreamBaseURL,
			Timeout: c.config.UpstreamTimeout,
		},
		client,
		auditLogUseCase,
		c.Logger(),
	)

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for forwarder: %w", err)
		}
		return proxyUseCase.NewForwarderWithMetrics(baseForwarder, businessMetrics), nil
	}

	return baseForwarder, nil
}

func (c *Container) initProxyHandler() (*proxyHTTP.ProxyHandler, error) {
	forwarder, err := c.Forwarder()
	if err != nil {
		return nil, fmt.Errorf("failed to get forwarder for proxy handler: %w", err)
	}
	projects, err := c.ProjectUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get project use case for proxy handler: %w", err)
	}
	auditLogUseCase, err := c.AuditLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log use case for proxy handler: %w", err)
	}

	return proxyHTTP.NewProxyHandler(forwarder, projects, auditLogUseCase, c.Logger()), nil
}
