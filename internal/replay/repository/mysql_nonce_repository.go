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

// MySQLNonceRepository implements Nonce persistence for MySQL using BINARY(16) project ids.
type MySQLNonceRepository struct {
	db *sql.DB
}

// Create inserts a nonce record, overwriting a record for the same triple that expired at or
// before nonce.CreatedAt. A live record leaves the row untouched, which the driver reports as
// zero affected rows, and yields ErrReplayDetected.
func (m *MySQLNonceRepository) Create(ctx context.Context, nonce *replayDomain.Nonce) error {
	querier := database.GetTx(ctx, m.db)

	projectID, err := nonce.ProjectID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal project id")
	}

	query := `INSERT INTO nonces (project_id, key_id, nonce, expires_at, created_at)
			  VALUES (?, ?, ?, ?, ?)
			  ON DUPLICATE KEY UPDATE
			    created_at = IF(expires_at <= ?, VALUES(created_at), created_at),
			    expires_at = IF(expires_at <= ?, VALUES(expires_at), expires_at)`

	result, err := querier.ExecContext(
		ctx,
		query,
		projectID,
		nonce.KeyID,
		nonce.Value,
		nonce.ExpiresAt,
		nonce.CreatedAt,
		nonce.CreatedAt,
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

// Exists reports whether an unexpired record for the triple exists at now.
func (m *MySQLNonceRepository) Exists(
	ctx context.Context,
	projectID uuid.UUID,
	keyID, value string,
	now time.Time,
) (bool, error) {
	querier := database.GetTx(ctx, m.db)

	id, err := projectID.MarshalBinary()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to marshal project id")
	}

	query := `SELECT EXISTS (
				SELECT 1 FROM nonces
				WHERE project_id = ? AND key_id = ? AND nonce = ? AND expires_at > ?
			  )`

	var exists bool
	if err := querier.QueryRowContext(ctx, query, id, keyID, value, now).Scan(&exists); err != nil {
		return false, apperrors.Wrap(err, "failed to check nonce")
	}
	return exists, nil
}

// DeleteExpired removes every record expired at or before now.
func (m *MySQLNonceRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM nonces WHERE expires_at <= ?`, now)
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
func (m *MySQLNonceRepository) CountExpired(ctx context.Context, now time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	var count int64
	err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM nonces WHERE expires_at <= ?`, now).Scan(&count)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count expired nonces")
	}
	return count, nil
}

// NewMySQLNonceRepository creates a new MySQL Nonce repository.
func NewMySQLNonceRepository(db *sql.DB) *MySQLNonceRepository {
	return &MySQLNonceRepository{db: db}
}
