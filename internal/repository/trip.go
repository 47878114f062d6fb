package repository

import (
	"context"
	"time"

	"metro/internal/domain"
)

// TripRepository defines the persistence operations for trips.
type TripRepository interface {
	// CreateStarted persists a new trip in STARTED state. The insert is
	// conditional: if the user already has a STARTED trip it returns
	// ErrDuplicate and writes nothing.
	CreateStarted(ctx context.Context, trip *domain.Trip) error

	// GetByID retrieves a trip by ID.
	GetByID(ctx context.Context, id string) (*domain.Trip, error)

	// GetLatestStarted retrieves the most recent STARTED trip, across all
	// users. Returns ErrNotFound if none exists.
	GetLatestStarted(ctx context.Context) (*domain.Trip, error)

	// GetLatestStartedByUser retrieves the user's most recent STARTED trip.
	// Returns ErrNotFound if none exists.
	GetLatestStartedByUser(ctx context.Context, userID string) (*domain.Trip, error)

	// ListByFingerprint retrieves trips for a fingerprint, newest first.
	ListByFingerprint(ctx context.Context, fingerprintID int64, limit int) ([]*domain.Trip, error)

	// SetDestination binds the destination station of a trip without
	// changing its status.
	SetDestination(ctx context.Context, tripID, station string) error

	// Complete transitions a trip from STARTED to COMPLETED, recording
	// fare and destination timestamp. The transition is a compare-and-set:
	// if the trip is no longer STARTED it returns ErrNotFound and writes
	// nothing.
	Complete(ctx context.Context, tripID string, fare float64, at time.Time) error

	// CancelStale transitions STARTED trips whose source timestamp is
	// older than the cutoff to CANCELLED, returning how many were
	// cancelled.
	CancelStale(ctx context.Context, cutoff time.Time) (int64, error)
}
