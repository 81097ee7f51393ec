// Package repository implements nonce persistence for PostgreSQL and MySQL.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/keyguard/internal/database"
	apperrors "github.com/allisson/keyguard/internal/errors"
	replayDomain "github.com/allisson/keyguard/internal/replay/domain"
)

// PostgreSQLNonceRepository implements Nonce persistence for PostgreSQL.
type PostgreSQLNonceRepository struct {
	db *sql.DB
}

// Create inserts a nonce record. A record for the same triple that expired at or before
// nonce.CreatedAt is overwritten in the same statement; a live one yields ErrReplayDetected.
func (p *PostgreSQLNonceRepository) Create(ctx context.Context, nonce *replayDomain.Nonce) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO nonces (project_id, key_id, nonce, expires_at, created_at)
			  VALUES ($1, $2, $3, $4, $5)
			  ON CONFLICT (project_id, key_id, nonce) DO UPDATE
			  SET expires_at = EXCLUDED.expires_at, created_at = EXCLUDED.created_at
			  WHERE nonces.expires_at <= $5`

	result, err := querier.ExecContext(
		ctx,
		query,
		nonce.ProjectID,
		nonce.KeyID,
		nonce.Value,
		nonce.ExpiresAt,
		nonce.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return replayDomain.ErrReplayDetected
		}
		return apperrors.Wrap(err, "failed to create nonce")
	}
	return replayedWhenUnaffected(result)
}

func replayedWhenUnaffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if rows == 0 {
		return replayDomain.ErrReplayDetected
	}
	return nil
}

// Exists reports whether an unexpired record for the triple exists at now.
func (p *PostgreSQLNonceRepository) Exists(
	ctx context.Context,
	projectID uuid.UUID,
	keyID, value string,
	now time.Time,
) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT EXISTS (
				SELECT 1 FROM nonces
				WHERE project_id = $1 AND key_id = $2 AND nonce = $3 AND expires_at > $4
			  )`

	var exists bool
	if err := querier.QueryRowContext(ctx, query, projectID, keyID, value, now).Scan(&exists); err != nil {
		return false, apperrors.Wrap(err, "failed to check nonce")
	}
	return exists, nil
}

// DeleteExpired removes every record expired at or before now.
func (p *PostgreSQLNonceRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM nonces WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired nonces")
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows")
	}
	return count, nil
}

// CountExpired counts records expired at or before now.
func (p *PostgreSQLNonceRepository) CountExpired(ctx context.Context, now time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	var count int64
	err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM nonces WHERE expires_at <= $1`, now).Scan(&count)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count expired nonces")
	}
	return count, nil
}

// NewPostgreSQLNonceRepository creates a new PostgreSQL Nonce repository.
func NewPostgreSQLNonceRepository(db *sql.DB) *PostgreSQLNonceRepository {
	return &PostgreSQLNonceRepository{db: db}
}
