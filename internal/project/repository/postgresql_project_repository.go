// Package repository implements project persistence.
//
// PostgreSQL uses native UUID types, MySQL uses BINARY(16). Both join an ambient transaction
// via database.GetTx().
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/allisson/keyguard/internal/database"
	apperrors "github.com/allisson/keyguard/internal/errors"
	projectDomain "github.com/allisson/keyguard/internal/project/domain"
)

const pgProjectColumns = `id, name, secret_prefix, secret_hash, status, encrypted_provider_key, created_at, updated_at`

// PostgreSQLProjectRepository implements Project persistence for PostgreSQL.
type PostgreSQLProjectRepository struct {
	db *sql.DB
}

// Create inserts a new Project.
func (p *PostgreSQLProjectRepository) Create(ctx context.Context, project *projectDomain.Project) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO projects (` + pgProjectColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := querier.ExecContext(
		ctx,
		query,
		project.ID,
		project.Name,
		project.SecretPrefix,
		project.SecretHash,
		project.Status,
		project.EncryptedProviderKey,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.Wrap(apperrors.ErrConflict, "project secret prefix already exists")
		}
		return apperrors.Wrap(err, "failed to create project")
	}
	return nil
}

// Update modifies the mutable fields of a Project.
func (p *PostgreSQLProjectRepository) Update(ctx context.Context, project *projectDomain.Project) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE projects
			  SET name = $1,
				  status = $2,
				  encrypted_provider_key = $3,
				  updated_at = $4
			  WHERE id = $5`

	result, err := querier.ExecContext(
		ctx,
		query,
		project.Name,
		project.Status,
		project.EncryptedProviderKey,
		project.UpdatedAt,
		project.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update project")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return projectDomain.ErrProjectNotFound
	}
	return nil
}

// Get retrieves a Project by ID.
func (p *PostgreSQLProjectRepository) Get(
	ctx context.Context,
	projectID uuid.UUID,
) (*projectDomain.Project, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + pgProjectColumns + ` FROM projects WHERE id = $1`

	return p.scan(querier.QueryRowContext(ctx, query, projectID))
}

// GetBySecretPrefix retrieves a Project by the public prefix of its secret.
func (p *PostgreSQLProjectRepository) GetBySecretPrefix(
	ctx context.Context,
	prefix string,
) (*projectDomain.Project, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + pgProjectColumns + ` FROM projects WHERE secret_prefix = $1`

	return p.scan(querier.QueryRowContext(ctx, query, prefix))
}

func (p *PostgreSQLProjectRepository) scan(row *sql.Row) (*projectDomain.Project, error) {
	var project projectDomain.Project
	var providerKey sql.NullString

	err := row.Scan(
		&project.ID,
		&project.Name,
		&project.SecretPrefix,
		&project.SecretHash,
		&project.Status,
		&providerKey,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, projectDomain.ErrProjectNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get project")
	}

	if providerKey.Valid {
		project.EncryptedProviderKey = &providerKey.String
	}
	return &project, nil
}

// NewPostgreSQLProjectRepository creates a new PostgreSQL Project repository.
func NewPostgreSQLProjectRepository(db *sql.DB) *PostgreSQLProjectRepository {
	return &PostgreSQLProjectRepository{db: db}
}
