package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/keyguard/internal/errors"
	projectDomain "github.com/allisson/keyguard/internal/project/domain"
	projectService "github.com/allisson/keyguard/internal/project/service"
	vaultService "github.com/allisson/keyguard/internal/vault/service"
)

type projectUseCase struct {
	projectRepo   ProjectRepository
	secretService projectService.SecretService
	vault         vaultService.Vault
	logger        *slog.Logger
}

// Create persists a new ACTIVE project.
func (p *projectUseCase) Create(
	ctx context.Context,
	input *projectDomain.CreateProjectInput,
) (*projectDomain.CreateProjectOutput, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, projectDomain.ErrInvalidProjectName
	}

	plainSecret, prefix, hashedSecret, err := p.secretService.GenerateSecret()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	project := &projectDomain.Project{
		ID:           uuid.Must(uuid.NewV7()),
		Name:         name,
		SecretPrefix: prefix,
		SecretHash:   hashedSecret,
		Status:       projectDomain.ProjectStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if input.ProviderKey != "" {
		blob, err := p.vault.Encrypt([]byte(input.ProviderKey))
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to encrypt provider key")
		}
		project.EncryptedProviderKey = &blob
	}

	if err := p.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}

	return &projectDomain.CreateProjectOutput{
		ID:          project.ID,
		PlainSecret: plainSecret,
	}, nil
}

// Get retrieves a project by ID.
func (p *projectUseCase) Get(ctx context.Context, projectID uuid.UUID) (*projectDomain.Project, error) {
	return p.projectRepo.Get(ctx, projectID)
}

// Authenticate performs one prefix lookup and one hash verification.
func (p *projectUseCase) Authenticate(ctx context.Context, plainSecret string) (*projectDomain.Project, error) {
	prefix, ok := projectDomain.ParseSecretPrefix(plainSecret)
	if !ok {
		return nil, projectDomain.ErrInvalidProjectSecret
	}

	project, err := p.projectRepo.GetBySecretPrefix(ctx, prefix)
	if err != nil {
		if apperrors.Is(err, projectDomain.ErrProjectNotFound) {
			return nil, projectDomain.ErrInvalidProjectSecret
		}
		return nil, err
	}

	if !p.secretService.CompareSecret(plainSecret, project.SecretHash) {
		return nil, projectDomain.ErrInvalidProjectSecret
	}

	if !project.IsActive() {
		return nil, projectDomain.ErrProjectNotActive
	}

	return project, nil
}

// SetProviderKey replaces the stored provider key.
func (p *projectUseCase) SetProviderKey(ctx context.Context, projectID uuid.UUID, providerKey string) error {
	if strings.TrimSpace(providerKey) == "" {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "provider key is required")
	}

	project, err := p.projectRepo.Get(ctx, projectID)
	if err != nil {
		return err
	}

	blob, err := p.vault.Encrypt([]byte(providerKey))
	if err != nil {
		return apperrors.Wrap(err, "failed to encrypt provider key")
	}

	project.EncryptedProviderKey = &blob
	project.UpdatedAt = time.Now().UTC()
	return p.projectRepo.Update(ctx, project)
}

// ProviderKey decrypts the project's provider key, failing closed.
func (p *projectUseCase) ProviderKey(ctx context.Context, project *projectDomain.Project) (string, error) {
	if !project.HasProviderKey() {
		return "", projectDomain.ErrProviderKeyUnavailable
	}

	plaintext, err := p.vault.Decrypt(*project.EncryptedProviderKey)
	if err != nil {
		p.logger.Error("failed to decrypt provider key",
			slog.String("project_id", project.ID.String()),
			slog.Any("error", err),
		)
		return "", projectDomain.ErrProviderKeyUnavailable
	}

	return string(plaintext), nil
}

// NewProjectUseCase creates a new ProjectUseCase.
func NewProjectUseCase(
	projectRepo ProjectRepository,
	secretService projectService.SecretService,
	vault vaultService.Vault,
	logger *slog.Logger,
) ProjectUseCase {
	return &projectUseCase{
		projectRepo:   projectRepo,
		secretService: secretService,
		vault:         vault,
		logger:        logger,
	}
}
