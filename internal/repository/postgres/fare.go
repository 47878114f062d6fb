package postgres

import (
	"context"
	"database/sql"
	"errors"

	"metro/internal/domain"
	"metro/internal/repository"
)

// FareRepository is a PostgreSQL implementation of repository.FareRepository.
type FareRepository struct {
	q Querier
}

// NewFareRepository creates a new PostgreSQL fare repository.
func NewFareRepository(db *sql.DB) *FareRepository {
	return &FareRepository{q: db}
}

// Create persists a new fare rule.
func (r *FareRepository) Create(ctx context.Context, rule *domain.FareRule) error {
	query := `
		INSERT INTO fare_rules (id, source_station, destination_station, fare)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.q.ExecContext(ctx, query,
		rule.ID,
		rule.SourceStation,
		rule.DestinationStation,
		rule.Fare,
	)
	if err != nil && isUniqueViolation(err) {
		return repository.ErrDuplicate
	}

	return err
}

// GetByPair retrieves the rule for an ordered station pair.
func (r *FareRepository) GetByPair(ctx context.Context, source, destination string) (*domain.FareRule, error) {
	query := `
		SELECT id, source_station, destination_station, fare
		FROM fare_rules
		WHERE source_station = $1 AND destination_station = $2
	`

	var rule domain.FareRule
	err := r.q.QueryRowContext(ctx, query, source, destination).Scan(
		&rule.ID,
		&rule.SourceStation,
		&rule.DestinationStation,
		&rule.Fare,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &rule, nil
}

// UpdateFare changes the amount of an existing rule.
func (r *FareRepository) UpdateFare(ctx context.Context, id string, fare float64) error {
	query := `UPDATE fare_rules SET fare = $1 WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, fare, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Ensure FareRepository implements repository.FareRepository.
var _ repository.FareRepository = (*FareRepository)(nil)
