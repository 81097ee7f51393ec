// Package repository implements device and enrollment code persistence for PostgreSQL and MySQL.
//
// PostgreSQL uses native UUID and JSONB types, MySQL uses BINARY(16) and JSON. All methods join
// an ambient transaction via database.GetTx().
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/keyguard/internal/database"
	deviceDomain "github.com/allisson/keyguard/internal/device/domain"
	apperrors "github.com/allisson/keyguard/internal/errors"
)

const deviceColumns = `id, project_id, key_id, fingerprint_hash, public_key, status, label, user_agent, ` +
	`metadata, last_seen_at, created_at, updated_at`

// PostgreSQLDeviceRepository implements Device persistence for PostgreSQL.
type PostgreSQLDeviceRepository struct {
	db *sql.DB
}

// Create inserts a new Device.
func (p *PostgreSQLDeviceRepository) Create(ctx context.Context, device *deviceDomain.Device) error {
	querier := database.GetTx(ctx, p.db)

	metadata, err := marshalMetadata(device.Metadata)
	if err != nil {
		return err
	}

	query := `INSERT INTO devices (` + deviceColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = querier.ExecContext(
		ctx,
		query,
		device.ID,
		device.ProjectID,
		device.KeyID,
		device.FingerprintHash,
		device.PublicKey,
		device.Status,
		device.Label,
		device.UserAgent,
		metadata,
		device.LastSeenAt,
		device.CreatedAt,
		device.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.Wrap(apperrors.ErrConflict, "device already exists")
		}
		return apperrors.Wrap(err, "failed to create device")
	}
	return nil
}

// Update persists the status and descriptive fields of a Device.
func (p *PostgreSQLDeviceRepository) Update(ctx context.Context, device *deviceDomain.Device) error {
	querier := database.GetTx(ctx, p.db)

	metadata, err := marshalMetadata(device.Metadata)
	if err != nil {
		return err
	}

	query := `UPDATE devices
			  SET status = $1,
				  label = $2,
				  user_agent = $3,
				  metadata = $4,
				  updated_at = $5
			  WHERE id = $6`

	result, err := querier.ExecContext(
		ctx,
		query,
		device.Status,
		device.Label,
		device.UserAgent,
		metadata,
		device.UpdatedAt,
		device.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update device")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return deviceDomain.ErrDeviceNotFound
	}
	return nil
}

// Get retrieves a Device by ID.
func (p *PostgreSQLDeviceRepository) Get(ctx context.Context, deviceID uuid.UUID) (*deviceDomain.Device, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + deviceColumns + ` FROM devices WHERE id = $1`

	return scanDevice(querier.QueryRowContext(ctx, query, deviceID), scanPostgreSQLID)
}

// GetForUpdate retrieves a Device by ID and locks its row. Call within a transaction.
func (p *PostgreSQLDeviceRepository) GetForUpdate(
	ctx context.Context,
	deviceID uuid.UUID,
) (*deviceDomain.Device, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + deviceColumns + ` FROM devices WHERE id = $1 FOR UPDATE`

	return scanDevice(querier.QueryRowContext(ctx, query, deviceID), scanPostgreSQLID)
}

// GetByKeyID retrieves a Device by project and key id.
func (p *PostgreSQLDeviceRepository) GetByKeyID(
	ctx context.Context,
	projectID uuid.UUID,
	keyID string,
) (*deviceDomain.Device, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + deviceColumns + ` FROM devices WHERE project_id = $1 AND key_id = $2`

	return scanDevice(querier.QueryRowContext(ctx, query, projectID, keyID), scanPostgreSQLID)
}

// GetByFingerprintHash retrieves a Device by fingerprint hash.
func (p *PostgreSQLDeviceRepository) GetByFingerprintHash(
	ctx context.Context,
	fingerprintHash string,
) (*deviceDomain.Device, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + deviceColumns + ` FROM devices WHERE fingerprint_hash = $1`

	return scanDevice(querier.QueryRowContext(ctx, query, fingerprintHash), scanPostgreSQLID)
}

// List retrieves the devices of a project, newest first.
func (p *PostgreSQLDeviceRepository) List(
	ctx context.Context,
	projectID uuid.UUID,
	offset, limit int,
) ([]*deviceDomain.Device, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + deviceColumns + ` FROM devices
			  WHERE project_id = $1
			  ORDER BY created_at DESC, id DESC
			  LIMIT $2 OFFSET $3`

	rows, err := querier.QueryContext(ctx, query, projectID, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list devices")
	}
	defer func() {
		_ = rows.Close()
	}()

	devices := make([]*deviceDomain.Device, 0)
	for rows.Next() {
		device, err := scanDevice(rows, scanPostgreSQLID)
		if err != nil {
			return nil, err
		}
		devices = append(devices, device)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate devices")
	}
	return devices, nil
}

// UpdateLastSeen sets last_seen_at without touching updated_at.
func (p *PostgreSQLDeviceRepository) UpdateLastSeen(
	ctx context.Context,
	deviceID uuid.UUID,
	lastSeenAt time.Time,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE devices SET last_seen_at = $1 WHERE id = $2`

	if _, err := querier.ExecContext(ctx, query, lastSeenAt, deviceID); err != nil {
		return apperrors.Wrap(err, "failed to update device last seen")
	}
	return nil
}

// NewPostgreSQLDeviceRepository creates a new PostgreSQL Device repository.
func NewPostgreSQLDeviceRepository(db *sql.DB) *PostgreSQLDeviceRepository {
	return &PostgreSQLDeviceRepository{db: db}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// idScanner returns a scan destination for a UUID column and a function applying it.
type idScanner func(target *uuid.UUID) (dest any, apply func() error)

func scanPostgreSQLID(target *uuid.UUID) (any, func() error) {
	return target, func() error { return nil }
}

func scanMySQLID(target *uuid.UUID) (any, func() error) {
	var raw []byte
	return &raw, func() error {
		if err := target.UnmarshalBinary(raw); err != nil {
			return apperrors.Wrap(err, "failed to unmarshal id")
		}
		return nil
	}
}

func scanDevice(row rowScanner, scanID idScanner) (*deviceDomain.Device, error) {
	var device deviceDomain.Device
	var metadata []byte
	var lastSeenAt sql.NullTime

	idDest, applyID := scanID(&device.ID)
	projectDest, applyProject := scanID(&device.ProjectID)

	err := row.Scan(
		idDest,
		projectDest,
		&device.KeyID,
		&device.FingerprintHash,
		&device.PublicKey,
		&device.Status,
		&device.Label,
		&device.UserAgent,
		&metadata,
		&lastSeenAt,
		&device.CreatedAt,
		&device.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, deviceDomain.ErrDeviceNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get device")
	}

	if err := applyID(); err != nil {
		return nil, err
	}
	if err := applyProject(); err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &device.Metadata); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal device metadata")
		}
	}
	if lastSeenAt.Valid {
		device.LastSeenAt = &lastSeenAt.Time
	}
	return &device, nil
}

// marshalMetadata returns the JSON text of metadata, or nil for SQL NULL.
func marshalMetadata(metadata map[string]any) (any, error) {
	if metadata == nil {
		return nil, nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal device metadata")
	}
	return string(data), nil
}
