package repository

import (
	"context"
	"database/sql"
	"time"

	auditDomain "github.com/allisson/keyguard/internal/audit/domain"
	"github.com/allisson/keyguard/internal/database"
	apperrors "github.com/allisson/keyguard/internal/errors"
)

// MySQLAuditLogRepository implements AuditLog persistence for MySQL using BINARY(16) ids.
type MySQLAuditLogRepository struct {
	db *sql.DB
}

// Create inserts a new AuditLog.
func (m *MySQLAuditLogRepository) Create(ctx context.Context, log *auditDomain.AuditLog) error {
	querier := database.GetTx(ctx, m.db)

	id, err := log.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit log id")
	}
	projectID, err := log.ProjectID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal project id")
	}
	var deviceID any
	if log.DeviceID != nil {
		raw, err := log.DeviceID.MarshalBinary()
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal device id")
		}
		deviceID = raw
	}

	query := `INSERT INTO audit_logs (` + auditLogColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		log.RequestID,
		projectID,
		deviceID,
		log.Endpoint,
		log.Method,
		log.StatusCode,
		log.LatencyMs,
		string(log.Outcome),
		log.ErrorSummary,
		log.Signature,
		log.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create audit log")
	}
	return nil
}

// ListByTimeRange returns logs with start <= created_at < end, oldest first.
func (m *MySQLAuditLogRepository) ListByTimeRange(
	ctx context.Context,
	start, end time.Time,
	offset, limit int,
) ([]*auditDomain.AuditLog, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + auditLogColumns + `
			  FROM audit_logs
			  WHERE created_at >= ? AND created_at < ?
			  ORDER BY created_at ASC, id ASC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, start, end, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit logs")
	}
	defer func() {
		_ = rows.Close()
	}()

	logs := make([]*auditDomain.AuditLog, 0)
	for rows.Next() {
		log, err := scanAuditLog(rows, scanMySQLID)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit logs")
	}
	return logs, nil
}

// DeleteOlderThan removes logs created before the cutoff.
func (m *MySQLAuditLogRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM audit_logs WHERE created_at < ?`, before)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete audit logs")
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows")
	}
	return count, nil
}

// CountOlderThan counts logs created before the cutoff.
func (m *MySQLAuditLogRepository) CountOlderThan(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	var count int64
	err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_logs WHERE created_at < ?`, before).
		Scan(&count)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count audit logs")
	}
	return count, nil
}

// NewMySQLAuditLogRepository creates a new MySQL AuditLog repository.
func NewMySQLAuditLogRepository(db *sql.DB) *MySQLAuditLogRepository {
	return &MySQLAuditLogRepository{db: db}
}
