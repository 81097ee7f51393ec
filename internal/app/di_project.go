package app

import (
	"fmt"

	projectRepository "github.com/allisson/keyguard/internal/project/repository"
	projectService "github.com/allisson/keyguard/internal/project/service"
	projectUseCase "github.com/allisson/keyguard/internal/project/usecase"
)

// SecretService returns the project secret service.
func (c *Container) SecretService() projectService.SecretService {
	c.secretServiceInit.Do(func() {
		c.secretService = projectService.NewSecretService()
	})
	return c.secretService
}

// ProjectRepository returns the project repository for the configured driver.
func (c *Container) ProjectRepository() (projectUseCase.ProjectRepository, error) {
	var err error
	c.projectRepoInit.Do(func() {
		c.projectRepo, err = c.initProjectRepository()
		if err != nil {
			c.initErrors["projectRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["projectRepo"]; exists {
		return nil, storedErr
	}
	return c.projectRepo, nil
}

// ProjectUseCase returns the project use case.
func (c *Container) ProjectUseCase() (projectUseCase.ProjectUseCase, error) {
	var err error
	c.projectUseCaseInit.Do(func() {
		c.projectUseCase, err = c.initProjectUseCase()
		if err != nil {
			c.initErrors["projectUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["projectUseCase"]; exists {
		return nil, storedErr
	}
	return c.projectUseCase, nil
}

func (c *Container) initProjectRepository() (projectUseCase.ProjectRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for project repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return projectRepository.NewMySQLProjectRepository(db), nil
	case "postgres":
		return projectRepository.NewPostgreSQLProjectRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initProjectUseCase() (projectUseCase.ProjectUseCase, error) {
	projectRepo, err := c.ProjectRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get project repository for project use case: %w", err)
	}

	vault, err := c.Vault()
	if err != nil {
		return nil, fmt.Errorf("failed to get vault for project use case: %w", err)
	}

	return projectUseCase.NewProjectUseCase(projectRepo, c.SecretService(), vault, c.Logger()), nil
}
