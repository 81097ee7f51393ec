// Package repository implements audit log persistence for PostgreSQL and MySQL.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/keyguard/internal/audit/domain"
	"github.com/allisson/keyguard/internal/database"
	apperrors "github.com/allisson/keyguard/internal/errors"
)

const auditLogColumns = `id, request_id, project_id, device_id, endpoint, method, status_code, ` +
	`latency_ms, outcome, error_summary, signature, created_at`

// PostgreSQLAuditLogRepository implements AuditLog persistence for PostgreSQL.
type PostgreSQLAuditLogRepository struct {
	db *sql.DB
}

// Create inserts a new AuditLog.
func (p *PostgreSQLAuditLogRepository) Create(ctx context.Context, log *auditDomain.AuditLog) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO audit_logs (` + auditLogColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := querier.ExecContext(
		ctx,
		query,
		log.ID,
		log.RequestID,
		log.ProjectID,
		log.DeviceID,
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
func (p *PostgreSQLAuditLogRepository) ListByTimeRange(
	ctx context.Context,
	start, end time.Time,
	offset, limit int,
) ([]*auditDomain.AuditLog, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + auditLogColumns + `
			  FROM audit_logs
			  WHERE created_at >= $1 AND created_at < $2
			  ORDER BY created_at ASC, id ASC
			  LIMIT $3 OFFSET $4`

	rows, err := querier.QueryContext(ctx, query, start, end, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit logs")
	}
	defer func() {
		_ = rows.Close()
	}()

	logs := make([]*auditDomain.AuditLog, 0)
	for rows.Next() {
		log, err := scanAuditLog(rows, scanPostgreSQLID)
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
func (p *PostgreSQLAuditLogRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM audit_logs WHERE created_at < $1`, before)
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
func (p *PostgreSQLAuditLogRepository) CountOlderThan(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	var count int64
	err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_logs WHERE created_at < $1`, before).
		Scan(&count)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count audit logs")
	}
	return count, nil
}

// NewPostgreSQLAuditLogRepository creates a new PostgreSQL AuditLog repository.
func NewPostgreSQLAuditLogRepository(db *sql.DB) *PostgreSQLAuditLogRepository {
	return &PostgreSQLAuditLogRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// idScanner returns a scan destination for a UUID column and the function decoding it.
type idScanner func(raw []byte) (uuid.UUID, error)

func scanPostgreSQLID(raw []byte) (uuid.UUID, error) {
	return uuid.ParseBytes(raw)
}

func scanMySQLID(raw []byte) (uuid.UUID, error) {
	return uuid.FromBytes(raw)
}

func scanAuditLog(row rowScanner, parseID idScanner) (*auditDomain.AuditLog, error) {
	var log auditDomain.AuditLog
	var id, projectID, deviceID []byte
	var outcome string

	err := row.Scan(
		&id,
		&log.RequestID,
		&projectID,
		&deviceID,
		&log.Endpoint,
		&log.Method,
		&log.StatusCode,
		&log.LatencyMs,
		&outcome,
		&log.ErrorSummary,
		&log.Signature,
		&log.CreatedAt,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to scan audit log")
	}

	if log.ID, err = parseID(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to parse audit log id")
	}
	if log.ProjectID, err = parseID(projectID); err != nil {
		return nil, apperrors.Wrap(err, "failed to parse project id")
	}
	if deviceID != nil {
		parsed, err := parseID(deviceID)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to parse device id")
		}
		log.DeviceID = &parsed
	}
	log.Outcome = auditDomain.Outcome(outcome)

	return &log, nil
}
