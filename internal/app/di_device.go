package app

import (
	"fmt"

	deviceHTTP "github.com/allisson/keyguard/internal/device/http"
	deviceRepository "github.com/allisson/keyguard/internal/device/repository"
	deviceUseCase "github.com/allisson/keyguard/internal/device/usecase"
)

// DeviceRepository returns the device repository for the configured driver.
func (c *Container) DeviceRepository() (deviceUseCase.DeviceRepository, error) {
	var err error
	c.deviceRepoInit.Do(func() {
		c.deviceRepo, err = c.initDeviceRepository()
		if err != nil {
			c.initErrors["deviceRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["deviceRepo"]; exists {
		return nil, storedErr
	}
	return c.deviceRepo, nil
}

// EnrollmentCodeRepository returns the enrollment code repository for the configured driver.
func (c *Container) EnrollmentCodeRepository() (deviceUseCase.EnrollmentCodeRepository, error) {
	var err error
	c.enrollmentCodeRepoInit.Do(func() {
		c.enrollmentCodeRepo, err = c.initEnrollmentCodeRepository()
		if err != nil {
			c.initErrors["enrollmentCodeRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["enrollmentCodeRepo"]; exists {
		return nil, storedErr
	}
	return c.enrollmentCodeRepo, nil
}

// DeviceUseCase returns the device use case, wrapped with metrics when enabled.
func (c *Container) DeviceUseCase() (deviceUseCase.DeviceUseCase, error) {
	var err error
	c.deviceUseCaseInit.Do(func() {
		c.deviceUseCase, err = c.initDeviceUseCase()
		if err != nil {
			c.initErrors["deviceUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["deviceUseCase"]; exists {
		return nil, storedErr
	}
	return c.deviceUseCase, nil
}

// DeviceHandler returns the HTTP handler for enrollment and device administration.
func (c *Container) DeviceHandler() (*deviceHTTP.DeviceHandler, error) {
	var err error
	c.deviceHandlerInit.Do(func() {
		var useCase deviceUseCase.DeviceUseCase
		useCase, err = c.DeviceUseCase()
		if err != nil {
			err = fmt.Errorf("failed to get device use case for device handler: %w", err)
			c.initErrors["deviceHandler"] = err
			return
		}
		c.deviceHandler = deviceHTTP.NewDeviceHandler(useCase, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["deviceHandler"]; exists {
		return nil, storedErr
	}
	return c.deviceHandler, nil
}

func (c *Container) initDeviceRepository() (deviceUseCase.DeviceRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for device repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return deviceRepository.NewMySQLDeviceRepository(db), nil
	case "postgres":
		return deviceRepository.NewPostgreSQLDeviceRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initEnrollmentCodeRepository() (deviceUseCase.EnrollmentCodeRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for enrollment code repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return deviceRepository.NewMySQLEnrollmentCodeRepository(db), nil
	case "postgres":
		return deviceRepository.NewPostgreSQLEnrollmentCodeRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initDeviceUseCase() (deviceUseCase.DeviceUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for device use case: %w", err)
	}
	deviceRepo, err := c.DeviceRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get device repository for device use case: %w", err)
	}
	codeRepo, err := c.EnrollmentCodeRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment code repository for device use case: %w", err)
	}

	baseUseCase := deviceUseCase.NewDeviceUseCase(txManager, deviceRepo, codeRepo)

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for device use case: %w", err)
		}
		return deviceUseCase.NewDeviceUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}
