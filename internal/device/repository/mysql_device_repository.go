package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/keyguard/internal/database"
	deviceDomain "github.com/allisson/keyguard/internal/device/domain"
	apperrors "github.com/allisson/keyguard/internal/errors"
)

// MySQLDeviceRepository implements Device persistence for MySQL using BINARY(16) ids.
type MySQLDeviceRepository struct {
	db *sql.DB
}

// Create inserts a new Device.
func (m *MySQLDeviceRepository) Create(ctx context.Context, device *deviceDomain.Device) error {
	querier := database.GetTx(ctx, m.db)

	id, err := device.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal device id")
	}
	projectID, err := device.ProjectID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal project id")
	}
	metadata, err := marshalMetadata(device.Metadata)
	if err != nil {
		return err
	}

	query := `INSERT INTO devices (` + deviceColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		projectID,
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
func (m *MySQLDeviceRepository) Update(ctx context.Context, device *deviceDomain.Device) error {
	querier := database.GetTx(ctx, m.db)

	id, err := device.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal device id")
	}
	metadata, err := marshalMetadata(device.Metadata)
	if err != nil {
		return err
	}

	query := `UPDATE devices
			  SET status = ?,
				  label = ?,
				  user_agent = ?,
				  metadata = ?,
				  updated_at = ?
			  WHERE id = ?`

	_, err = querier.ExecContext(
		ctx,
		query,
		device.Status,
		device.Label,
		device.UserAgent,
		metadata,
		device.UpdatedAt,
		id,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update device")
	}
	return nil
}

// Get retrieves a Device by ID.
func (m *MySQLDeviceRepository) Get(ctx context.Context, deviceID uuid.UUID) (*deviceDomain.Device, error) {
	querier := database.GetTx(ctx, m.db)

	id, err := deviceID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal device id")
	}

	query := `SELECT ` + deviceColumns + ` FROM devices WHERE id = ?`

	return scanDevice(querier.QueryRowContext(ctx, query, id), scanMySQLID)
}

// GetForUpdate retrieves a Device by ID and locks its row. Call within a transaction.
func (m *MySQLDeviceRepository) GetForUpdate(ctx context.Context, deviceID uuid.UUID) (*deviceDomain.Device, error) {
	querier := database.GetTx(ctx, m.db)

	id, err := deviceID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal device id")
	}

	query := `SELECT ` + deviceColumns + ` FROM devices WHERE id = ? FOR UPDATE`

	return scanDevice(querier.QueryRowContext(ctx, query, id), scanMySQLID)
}

// GetByKeyID retrieves a Device by project and key id.
func (m *MySQLDeviceRepository) GetByKeyID(
	ctx context.Context,
	projectID uuid.UUID,
	keyID string,
) (*deviceDomain.Device, error) {
	querier := database.GetTx(ctx, m.db)

	pid, err := projectID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal project id")
	}

	query := `SELECT ` + deviceColumns + ` FROM devices WHERE project_id = ? AND key_id = ?`

	return scanDevice(querier.QueryRowContext(ctx, query, pid, keyID), scanMySQLID)
}

// GetByFingerprintHash retrieves a Device by fingerprint hash.
func (m *MySQLDeviceRepository) GetByFingerprintHash(
	ctx context.Context,
	fingerprintHash string,
) (*deviceDomain.Device, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + deviceColumns + ` FROM devices WHERE fingerprint_hash = ?`

	return scanDevice(querier.QueryRowContext(ctx, query, fingerprintHash), scanMySQLID)
}

// List retrieves the devices of a project, newest first.
func (m *MySQLDeviceRepository) List(
	ctx context.Context,
	projectID uuid.UUID,
	offset, limit int,
) ([]*deviceDomain.Device, error) {
	querier := database.GetTx(ctx, m.db)

	pid, err := projectID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal project id")
	}

	query := `SELECT ` + deviceColumns + ` FROM devices
			  WHERE project_id = ?
			  ORDER BY created_at DESC, id DESC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, pid, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list devices")
	}
	defer func() {
		_ = rows.Close()
	}()

	devices := make([]*deviceDomain.Device, 0)
	for rows.Next() {
		device, err := scanDevice(rows, scanMySQLID)
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
func (m *MySQLDeviceRepository) UpdateLastSeen(ctx context.Context, deviceID uuid.UUID, lastSeenAt time.Time) error {
	querier := database.GetTx(ctx, m.db)

	id, err := deviceID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal device id")
	}

	if _, err := querier.ExecContext(ctx, `UPDATE devices SET last_seen_at = ? WHERE id = ?`, lastSeenAt, id); err != nil {
		return apperrors.Wrap(err, "failed to update device last seen")
	}
	return nil
}

// NewMySQLDeviceRepository creates a new MySQL Device repository.
func NewMySQLDeviceRepository(db *sql.DB) *MySQLDeviceRepository {
	return &MySQLDeviceRepository{db: db}
}
