package postgres

import (
	"context"
	"database/sql"
	"errors"

	"metro/internal/domain"
	"metro/internal/repository"
)

// DeviceRepository is a PostgreSQL implementation of repository.DeviceRepository.
type DeviceRepository struct {
	q Querier
}

// NewDeviceRepository creates a new PostgreSQL device repository.
func NewDeviceRepository(db *sql.DB) *DeviceRepository {
	return &DeviceRepository{q: db}
}

// Upsert registers a device or rebinds an existing one to a station.
func (r *DeviceRepository) Upsert(ctx context.Context, device *domain.Device) error {
	query := `
		INSERT INTO devices (device_id, station_code, registered_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (device_id) DO UPDATE SET station_code = EXCLUDED.station_code
	`

	_, err := r.q.ExecContext(ctx, query,
		device.DeviceID,
		device.StationCode,
		device.RegisteredAt,
	)

	return err
}

// GetByID retrieves a device registration by device ID.
func (r *DeviceRepository) GetByID(ctx context.Context, deviceID string) (*domain.Device, error) {
	query := `SELECT device_id, station_code, registered_at FROM devices WHERE device_id = $1`

	var device domain.Device
	err := r.q.QueryRowContext(ctx, query, deviceID).Scan(
		&device.DeviceID,
		&device.StationCode,
		&device.RegisteredAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &device, nil
}

// Ensure DeviceRepository implements repository.DeviceRepository.
var _ repository.DeviceRepository = (*DeviceRepository)(nil)
