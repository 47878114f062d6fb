package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"metro/internal/domain"
	"metro/internal/repository"
)

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// NewTripRepositoryWithTx creates a trip repository using a transaction.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx}
}

const tripColumns = `id, user_id, fingerprint_id, source_station, destination_station, fare, source_timestamp, destination_timestamp, status`

// CreateStarted persists a new trip in STARTED state. The insert only
// happens if the user has no other STARTED trip; the partial unique index
// on (user_id) WHERE status = 'STARTED' backs the same invariant under
// concurrent inserts.
func (r *TripRepository) CreateStarted(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (id, user_id, fingerprint_id, source_station, source_timestamp, status)
		SELECT $1, $2, $3, $4, $5, $6
		WHERE NOT EXISTS (
			SELECT 1 FROM trips WHERE user_id = $2 AND status = $6
		)
	`

	result, err := r.q.ExecContext(ctx, query,
		trip.ID,
		trip.UserID,
		trip.FingerprintID,
		trip.SourceStation,
		trip.SourceTimestamp,
		domain.TripStatusStarted,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrDuplicate
	}

	trip.Status = domain.TripStatusStarted
	return nil
}

// GetByID retrieves a trip by ID.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`
	return r.scanTrip(r.q.QueryRowContext(ctx, query, id))
}

// GetLatestStarted retrieves the most recent STARTED trip across all users.
func (r *TripRepository) GetLatestStarted(ctx context.Context) (*domain.Trip, error) {
	query := `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE status = $1
		ORDER BY source_timestamp DESC
		LIMIT 1
	`
	return r.scanTrip(r.q.QueryRowContext(ctx, query, domain.TripStatusStarted))
}

// GetLatestStartedByUser retrieves the user's most recent STARTED trip.
func (r *TripRepository) GetLatestStartedByUser(ctx context.Context, userID string) (*domain.Trip, error) {
	query := `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE user_id = $1 AND status = $2
		ORDER BY source_timestamp DESC
		LIMIT 1
	`
	return r.scanTrip(r.q.QueryRowContext(ctx, query, userID, domain.TripStatusStarted))
}

// ListByFingerprint retrieves trips for a fingerprint, newest first.
func (r *TripRepository) ListByFingerprint(ctx context.Context, fingerprintID int64, limit int) ([]*domain.Trip, error) {
	query := `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE fingerprint_id = $1
		ORDER BY source_timestamp DESC
		LIMIT $2
	`

	rows, err := r.q.QueryContext(ctx, query, fingerprintID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*domain.Trip
	for rows.Next() {
		trip, err := scanTripRow(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}

	return trips, rows.Err()
}

// SetDestination binds the destination station of a trip.
func (r *TripRepository) SetDestination(ctx context.Context, tripID, station string) error {
	query := `UPDATE trips SET destination_station = $1 WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, station, tripID)
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

// Complete transitions a trip from STARTED to COMPLETED. The status guard
// in the WHERE clause makes the transition a compare-and-set: a replayed
// destination scan loses the race and affects zero rows.
func (r *TripRepository) Complete(ctx context.Context, tripID string, fare float64, at time.Time) error {
	query := `
		UPDATE trips
		SET status = $1, fare = $2, destination_timestamp = $3
		WHERE id = $4 AND status = $5
	`

	result, err := r.q.ExecContext(ctx, query,
		domain.TripStatusCompleted,
		fare,
		at,
		tripID,
		domain.TripStatusStarted,
	)
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

// CancelStale cancels STARTED trips older than the cutoff.
func (r *TripRepository) CancelStale(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE trips
		SET status = $1
		WHERE status = $2 AND source_timestamp < $3
	`

	result, err := r.q.ExecContext(ctx, query,
		domain.TripStatusCancelled,
		domain.TripStatusStarted,
		cutoff,
	)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (r *TripRepository) scanTrip(row *sql.Row) (*domain.Trip, error) {
	trip, err := scanTripRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return trip, nil
}

func scanTripRow(row rowScanner) (*domain.Trip, error) {
	var trip domain.Trip
	var destinationStation sql.NullString
	var fare sql.NullFloat64
	var destinationTimestamp sql.NullTime

	err := row.Scan(
		&trip.ID,
		&trip.UserID,
		&trip.FingerprintID,
		&trip.SourceStation,
		&destinationStation,
		&fare,
		&trip.SourceTimestamp,
		&destinationTimestamp,
		&trip.Status,
	)
	if err != nil {
		return nil, err
	}

	if destinationStation.Valid {
		trip.DestinationStation = destinationStation.String
	}
	if fare.Valid {
		trip.Fare = fare.Float64
	}
	if destinationTimestamp.Valid {
		trip.DestinationTimestamp = destinationTimestamp.Time
	}

	return &trip, nil
}

// Ensure TripRepository implements repository.TripRepository.
var _ repository.TripRepository = (*TripRepository)(nil)
