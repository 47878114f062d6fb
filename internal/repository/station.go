package repository

import (
	"context"

	"metro/internal/domain"
)

// StationRepository defines the persistence operations for stations.
type StationRepository interface {
	// Create persists a new station.
	Create(ctx context.Context, station *domain.Station) error

	// GetByCode retrieves a station by its unique code.
	GetByCode(ctx context.Context, code string) (*domain.Station, error)

	// GetAll retrieves all stations ordered by name.
	GetAll(ctx context.Context) ([]*domain.Station, error)
}
