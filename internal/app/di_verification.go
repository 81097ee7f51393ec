package app

import (
	"fmt"

	replayRepository "github.com/allisson/keyguard/internal/replay/repository"
	replayUseCase "github.com/allisson/keyguard/internal/replay/usecase"
	signingService "github.com/allisson/keyguard/internal/signing/service"
	verificationHTTP "github.com/allisson/keyguard/internal/verification/http"
	verificationUseCase "github.com/allisson/keyguard/internal/verification/usecase"
)

// NonceRepository returns the nonce repository for the configured driver.
func (c *Container) NonceRepository() (replayUseCase.NonceRepository, error) {
	var err error
	c.nonceRepoInit.Do(func() {
		c.nonceRepo, err = c.initNonceRepository()
		if err != nil {
			c.initErrors["nonceRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["nonceRepo"]; exists {
		return nil, storedErr
	}
	return c.nonceRepo, nil
}

// ReplayGuard returns the nonce replay guard.
func (c *Container) ReplayGuard() (replayUseCase.ReplayGuard, error) {
	var err error
	c.replayGuardInit.Do(func() {
		c.replayGuard, err = c.initReplayGuard()
		if err != nil {
			c.initErrors["replayGuard"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["replayGuard"]; exists {
		return nil, storedErr
	}
	return c.replayGuard, nil
}

// Pipeline returns the request verification pipeline, wrapped with metrics when enabled.
func (c *Container) Pipeline() (verificationUseCase.Pipeline, error) {
	var err error
	c.pipelineInit.Do(func() {
		c.pipeline, err = c.initPipeline()
		if err != nil {
			c.initErrors["pipeline"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["pipeline"]; exists {
		return nil, storedErr
	}
	return c.pipeline, nil
}

// VerifyHandler returns the handler of POST /v1/verify.
func (c *Container) VerifyHandler() *verificationHTTP.VerifyHandler {
	c.verifyHandlerInit.Do(func() {
		c.verifyHandler = verificationHTTP.NewVerifyHandler(c.Logger())
	})
	return c.verifyHandler
}

func (c *Container) initNonceRepository() (replayUseCase.NonceRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for nonce repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return replayRepository.NewMySQLNonceRepository(db), nil
	case "postgres":
		return replayRepository.NewPostgreSQLNonceRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initReplayGuard() (replayUseCase.ReplayGuard, error) {
	nonceRepo, err := c.NonceRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce repository for replay guard: %w", err)
	}

	guardConfig := replayUseCase.Config{
		NonceTTL:      c.config.NonceTTL,
		SweepInterval: c.config.NonceSweepInterval,
	}

	return replayUseCase.NewReplayGuard(guardConfig, nonceRepo, c.Logger()), nil
}

func (c *Container) initPipeline() (verificationUseCase.Pipeline, error) {
	devices, err := c.DeviceUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get device use case for pipeline: %w", err)
	}
	replayGuard, err := c.ReplayGuard()
	if err != nil {
		return nil, fmt.Errorf("failed to get replay guard for pipeline: %w", err)
	}

	basePipeline := verificationUseCase.NewPipeline(
		verificationUseCase.Config{Window: c.config.SignatureWindow},
		signingService.NewDefaultRegistry(),
		devices,
		replayGuard,
		c.Logger(),
	)

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for pipeline: %w", err)
		}
		return verificationUseCase.NewPipelineWithMetrics(basePipeline, businessMetrics), nil
	}

	return basePipeline, nil
}
