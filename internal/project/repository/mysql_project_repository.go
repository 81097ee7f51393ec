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

const mysqlProjectColumns = `id, name, secret_prefix, secret_hash, status, encrypted_provider_key, created_at, updated_at`

// MySQLProjectRepository implements Project persistence for MySQL using BINARY(16) ids.
type MySQLProjectRepository struct {
	db *sql.DB
}

// Create inserts a new Project.
func (m *MySQLProjectRepository) Create(ctx context.Context, project *projectDomain.Project) error {
	querier := database.GetTx(ctx, m.db)

	id, err := project.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal project id")
	}

	query := `INSERT INTO projects (` + mysqlProjectColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
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
func (m *MySQLProjectRepository) Update(ctx context.Context, project *projectDomain.Project) error {
	querier := database.GetTx(ctx, m.db)

	id, err := project.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal project id")
	}

	query := `UPDATE projects
			  SET name = ?,
				  status = ?,
				  encrypted_provider_key = ?,
				  updated_at = ?
			  WHERE id = ?`

	_, err = querier.ExecContext(
		ctx,
		query,
		project.Name,
		project.Status,
		project.EncryptedProviderKey,
		project.UpdatedAt,
		id,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update project")
	}
	return nil
}

// Get retrieves a Project by ID.
func (m *MySQLProjectRepository) Get(ctx context.Context, projectID uuid.UUID) (*projectDomain.Project, error) {
	querier := database.GetTx(ctx, m.db)

	id, err := projectID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal project id")
	}

	query := `SELECT ` + mysqlProjectColumns + ` FROM projects WHERE id = ?`

	return m.scan(querier.QueryRowContext(ctx, query, id))
}

// GetBySecretPrefix retrieves a Project by the public prefix of its secret.
func (m *MySQLProjectRepository) GetBySecretPrefix(
	ctx context.Context,
	prefix string,
) (*projectDomain.Project, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + mysqlProjectColumns + ` FROM projects WHERE secret_prefix = ?`

	return m.scan(querier.QueryRowContext(ctx, query, prefix))
}

func (m *MySQLProjectRepository) scan(row *sql.Row) (*projectDomain.Project, error) {
	var project projectDomain.Project
	var idBytes []byte
	var providerKey sql.NullString

	err := row.Scan(
		&idBytes,
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

	if err := project.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal project id")
	}
	if providerKey.Valid {
		project.EncryptedProviderKey = &providerKey.String
	}
	return &project, nil
}

// NewMySQLProjectRepository creates a new MySQL Project repository.
func NewMySQLProjectRepository(db *sql.DB) *MySQLProjectRepository {
	return &MySQLProjectRepository{db: db}
}
