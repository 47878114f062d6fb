package postgres

import (
	"context"
	"database/sql"
	"errors"

	"metro/internal/domain"
	"metro/internal/repository"
)

// StationRepository is a PostgreSQL implementation of repository.StationRepository.
type StationRepository struct {
	q Querier
}

// NewStationRepository creates a new PostgreSQL station repository.
func NewStationRepository(db *sql.DB) *StationRepository {
	return &StationRepository{q: db}
}

// Create persists a new station.
func (r *StationRepository) Create(ctx context.Context, station *domain.Station) error {
	query := `INSERT INTO stations (id, name, code) VALUES ($1, $2, $3)`

	_, err := r.q.ExecContext(ctx, query, station.ID, station.Name, station.Code)
	if err != nil && isUniqueViolation(err) {
		return repository.ErrDuplicate
	}

	return err
}

// GetByCode retrieves a station by its unique code.
func (r *StationRepository) GetByCode(ctx context.Context, code string) (*domain.Station, error) {
	query := `SELECT id, name, code FROM stations WHERE code = $1`

	var station domain.Station
	err := r.q.QueryRowContext(ctx, query, code).Scan(&station.ID, &station.Name, &station.Code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &station, nil
}

// GetAll retrieves all stations ordered by name.
func (r *StationRepository) GetAll(ctx context.Context) ([]*domain.Station, error) {
	query := `SELECT id, name, code FROM stations ORDER BY name`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []*domain.Station
	for rows.Next() {
		var station domain.Station
		if err := rows.Scan(&station.ID, &station.Name, &station.Code); err != nil {
			return nil, err
		}
		stations = append(stations, &station)
	}

	return stations, rows.Err()
}

// Ensure StationRepository implements repository.StationRepository.
var _ repository.StationRepository = (*StationRepository)(nil)
