package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/allisson/keyguard/internal/database"
	deviceDomain "github.com/allisson/keyguard/internal/device/domain"
	apperrors "github.com/allisson/keyguard/internal/errors"
)

const enrollmentCodeColumns = `id, project_id, code, expires_at, used, used_at, used_by_device_id, created_at`

// PostgreSQLEnrollmentCodeRepository implements EnrollmentCode persistence for PostgreSQL.
type PostgreSQLEnrollmentCodeRepository struct {
	db *sql.DB
}

// Create inserts a new EnrollmentCode.
func (p *PostgreSQLEnrollmentCodeRepository) Create(ctx context.Context, code *deviceDomain.EnrollmentCode) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO enrollment_codes (` + enrollmentCodeColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := querier.ExecContext(
		ctx,
		query,
		code.ID,
		code.ProjectID,
		code.Code,
		code.ExpiresAt,
		code.Used,
		code.UsedAt,
		code.UsedByDeviceID,
		code.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.Wrap(apperrors.ErrConflict, "enrollment code already exists")
		}
		return apperrors.Wrap(err, "failed to create enrollment code")
	}
	return nil
}

// GetByCodeForUpdate retrieves and row-locks an EnrollmentCode.
func (p *PostgreSQLEnrollmentCodeRepository) GetByCodeForUpdate(
	ctx context.Context,
	code string,
) (*deviceDomain.EnrollmentCode, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + enrollmentCodeColumns + ` FROM enrollment_codes WHERE code = $1 FOR UPDATE`

	return scanEnrollmentCode(querier.QueryRowContext(ctx, query, code), scanPostgreSQLID)
}

// Update persists the consumption state of an EnrollmentCode.
func (p *PostgreSQLEnrollmentCodeRepository) Update(ctx context.Context, code *deviceDomain.EnrollmentCode) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE enrollment_codes SET used = $1, used_at = $2, used_by_device_id = $3 WHERE id = $4`

	if _, err := querier.ExecContext(ctx, query, code.Used, code.UsedAt, code.UsedByDeviceID, code.ID); err != nil {
		return apperrors.Wrap(err, "failed to update enrollment code")
	}
	return nil
}

// NewPostgreSQLEnrollmentCodeRepository creates a new PostgreSQL EnrollmentCode repository.
func NewPostgreSQLEnrollmentCodeRepository(db *sql.DB) *PostgreSQLEnrollmentCodeRepository {
	return &PostgreSQLEnrollmentCodeRepository{db: db}
}

// MySQLEnrollmentCodeRepository implements EnrollmentCode persistence for MySQL.
type MySQLEnrollmentCodeRepository struct {
	db *sql.DB
}

// Create inserts a new EnrollmentCode.
func (m *MySQLEnrollmentCodeRepository) Create(ctx context.Context, code *deviceDomain.EnrollmentCode) error {
	querier := database.GetTx(ctx, m.db)

	id, err := code.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal enrollment code id")
	}
	projectID, err := code.ProjectID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal project id")
	}

	query := `INSERT INTO enrollment_codes (` + enrollmentCodeColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		projectID,
		code.Code,
		code.ExpiresAt,
		code.Used,
		code.UsedAt,
		nil,
		code.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.Wrap(apperrors.ErrConflict, "enrollment code already exists")
		}
		return apperrors.Wrap(err, "failed to create enrollment code")
	}
	return nil
}

// GetByCodeForUpdate retrieves and row-locks an EnrollmentCode.
func (m *MySQLEnrollmentCodeRepository) GetByCodeForUpdate(
	ctx context.Context,
	code string,
) (*deviceDomain.EnrollmentCode, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + enrollmentCodeColumns + ` FROM enrollment_codes WHERE code = ? FOR UPDATE`

	return scanEnrollmentCode(querier.QueryRowContext(ctx, query, code), scanMySQLID)
}

// Update persists the consumption state of an EnrollmentCode.
func (m *MySQLEnrollmentCodeRepository) Update(ctx context.Context, code *deviceDomain.EnrollmentCode) error {
	querier := database.GetTx(ctx, m.db)

	id, err := code.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal enrollment code id")
	}
	var usedBy any
	if code.UsedByDeviceID != nil {
		if usedBy, err = code.UsedByDeviceID.MarshalBinary(); err != nil {
			return apperrors.Wrap(err, "failed to marshal device id")
		}
	}

	query := `UPDATE enrollment_codes SET used = ?, used_at = ?, used_by_device_id = ? WHERE id = ?`

	if _, err := querier.ExecContext(ctx, query, code.Used, code.UsedAt, usedBy, id); err != nil {
		return apperrors.Wrap(err, "failed to update enrollment code")
	}
	return nil
}

// NewMySQLEnrollmentCodeRepository creates a new MySQL EnrollmentCode repository.
func NewMySQLEnrollmentCodeRepository(db *sql.DB) *MySQLEnrollmentCodeRepository {
	return &MySQLEnrollmentCodeRepository{db: db}
}

func scanEnrollmentCode(row rowScanner, scanID idScanner) (*deviceDomain.EnrollmentCode, error) {
	var code deviceDomain.EnrollmentCode
	var expiresAt, usedAt sql.NullTime
	var usedBy []byte

	idDest, applyID := scanID(&code.ID)
	projectDest, applyProject := scanID(&code.ProjectID)

	err := row.Scan(
		idDest,
		projectDest,
		&code.Code,
		&expiresAt,
		&code.Used,
		&usedAt,
		&usedBy,
		&code.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, deviceDomain.ErrEnrollmentCodeNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get enrollment code")
	}

	if err := applyID(); err != nil {
		return nil, err
	}
	if err := applyProject(); err != nil {
		return nil, err
	}
	if expiresAt.Valid {
		code.ExpiresAt = &expiresAt.Time
	}
	if usedAt.Valid {
		code.UsedAt = &usedAt.Time
	}
	if len(usedBy) > 0 {
		deviceID, err := parseID(usedBy)
		if err != nil {
			return nil, err
		}
		code.UsedByDeviceID = &deviceID
	}
	return &code, nil
}

// parseID accepts both the 16-byte binary form and the textual form of a UUID.
func parseID(raw []byte) (uuid.UUID, error) {
	if len(raw) == 16 {
		return uuid.FromBytes(raw)
	}
	id, err := uuid.ParseBytes(raw)
	if err != nil {
		return uuid.Nil, apperrors.Wrap(err, "failed to parse id")
	}
	return id, nil
}
