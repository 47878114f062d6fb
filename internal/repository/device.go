package repository

import (
	"context"

	"metro/internal/domain"
)

// DeviceRepository defines the persistence operations for reader devices.
type DeviceRepository interface {
	// Upsert registers a device or rebinds an existing one to a station.
	Upsert(ctx context.Context, device *domain.Device) error

	// GetByID retrieves a device registration by device ID.
	GetByID(ctx context.Context, deviceID string) (*domain.Device, error)
}
