// Package usecase implements project creation, authentication and provider key access.
package usecase

import (
	"context"

	"github.com/google/uuid"

	projectDomain "github.com/allisson/keyguard/internal/project/domain"
)

// ProjectRepository defines persistence operations for projects.
type ProjectRepository interface {
	Create(ctx context.Context, project *projectDomain.Project) error

	Update(ctx context.Context, project *projectDomain.Project) error

	// Get returns ErrProjectNotFound when the project does not exist.
	Get(ctx context.Context, projectID uuid.UUID) (*projectDomain.Project, error)

	// GetBySecretPrefix returns ErrProjectNotFound when no project has the prefix.
	GetBySecretPrefix(ctx context.Context, prefix string) (*projectDomain.Project, error)
}

// ProjectUseCase defines project operations.
type ProjectUseCase interface {
	// Create generates a project secret and stores the project, encrypting the provider key
	// when one is given. The plaintext secret is returned only here.
	Create(
		ctx context.Context,
		input *projectDomain.CreateProjectInput,
	) (*projectDomain.CreateProjectOutput, error)

	Get(ctx context.Context, projectID uuid.UUID) (*projectDomain.Project, error)

	// Authenticate resolves the project owning plainSecret by its public prefix and verifies
	// the secret against the stored Argon2id hash. The project must be ACTIVE.
	Authenticate(ctx context.Context, plainSecret string) (*projectDomain.Project, error)

	// SetProviderKey encrypts and stores the upstream provider key.
	SetProviderKey(ctx context.Context, projectID uuid.UUID, providerKey string) error

	// ProviderKey decrypts the provider key. Any failure is ErrProviderKeyUnavailable.
	ProviderKey(ctx context.Context, project *projectDomain.Project) (string, error)
}
