package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"metro/internal/domain"
	internalRedis "metro/internal/redis"
	"metro/internal/repository"
	"metro/internal/repository/postgres"
)

// StationResolver resolves the station a reader is installed at.
type StationResolver interface {
	StationFor(ctx context.Context, deviceID string) (string, error)
}

// scanLockTTL bounds how long a destination reconciliation may hold a
// rider's scan lock.
const scanLockTTL = 10 * time.Second

// TripService owns the trip state machine: source scans open a trip,
// destination scans reconcile it into a fare-charging completion.
type TripService struct {
	db       *sql.DB
	tripRepo repository.TripRepository
	userRepo repository.UserRepository
	fares    *FareService
	stations StationResolver
	locks    *internalRedis.LockStore
	cache    *internalRedis.CacheStore
}

// NewTripService creates a new TripService. db may be nil, in which case
// destination reconciliation runs against the plain repositories without a
// surrounding transaction; the completion compare-and-set still prevents
// double debits.
func NewTripService(
	db *sql.DB,
	tripRepo repository.TripRepository,
	userRepo repository.UserRepository,
	fares *FareService,
	stations StationResolver,
	locks *internalRedis.LockStore,
	cache *internalRedis.CacheStore,
) *TripService {
	return &TripService{
		db:       db,
		tripRepo: tripRepo,
		userRepo: userRepo,
		fares:    fares,
		stations: stations,
		locks:    locks,
		cache:    cache,
	}
}

// OnSourceScan opens a trip for the rider at the station the scanning
// reader is installed at. A rider with an open trip cannot open another;
// the conditional insert enforces that at write time instead of racing.
func (s *TripService) OnSourceScan(ctx context.Context, fingerprintID int64, deviceID string, at time.Time) (*domain.Trip, error) {
	if fingerprintID <= 0 {
		return nil, ErrInvalidFingerprintID
	}

	user, err := s.userRepo.GetByFingerprint(ctx, fingerprintID)
	if err != nil {
		return nil, err
	}

	station, err := s.stations.StationFor(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	trip := &domain.Trip{
		ID:              uuid.New().String(),
		UserID:          user.ID,
		FingerprintID:   fingerprintID,
		SourceStation:   station,
		SourceTimestamp: at,
		Status:          domain.TripStatusStarted,
	}

	if err := s.tripRepo.CreateStarted(ctx, trip); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrActiveTripExists
		}
		return nil, err
	}

	return trip, nil
}

// BindDestination records where the rider intends to exit. Status is
// unchanged; the fare is only computed when the destination scan arrives.
// The bound station is not validated against the source station: a
// zero-distance trip is representable and prices like any other pair.
func (s *TripService) BindDestination(ctx context.Context, tripID, station string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	if station == "" {
		return nil, ErrInvalidStation
	}

	if err := s.tripRepo.SetDestination(ctx, tripID, station); err != nil {
		return nil, err
	}

	return s.tripRepo.GetByID(ctx, tripID)
}

// DestinationScanResult is the outcome of a reconciled destination scan.
type DestinationScanResult struct {
	Trip       *domain.Trip
	Fare       float64
	NewBalance float64
}

// OnDestinationScan reconciles the rider's newest open trip: prices it
// from the trip's source and previously bound destination, completes the
// trip, and debits the rider, all inside one database transaction. The
// STARTED-to-COMPLETED compare-and-set gates the debit, so a redelivered
// scan event either loses the CAS or finds no open trip; it never debits
// twice. The scanned station is accepted from the reader but the bound
// destination is what the rider is charged for.
func (s *TripService) OnDestinationScan(ctx context.Context, fingerprintID int64, deviceID string, at time.Time) (*DestinationScanResult, error) {
	if fingerprintID <= 0 {
		return nil, ErrInvalidFingerprintID
	}

	user, err := s.userRepo.GetByFingerprint(ctx, fingerprintID)
	if err != nil {
		return nil, err
	}

	if s.locks != nil {
		acquired, err := s.locks.AcquireScanLock(ctx, fingerprintID, scanLockTTL)
		if err == nil && !acquired {
			return nil, ErrScanInProgress
		}
		if err == nil {
			defer func() { _ = s.locks.ReleaseScanLock(ctx, fingerprintID) }()
		}
	}

	trip, err := s.tripRepo.GetLatestStartedByUser(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoActiveTrip
		}
		return nil, err
	}

	fare, err := s.fares.Resolve(ctx, trip.SourceStation, trip.DestinationStation)
	if err != nil {
		return nil, err
	}

	tripRepo := s.tripRepo
	userRepo := s.userRepo

	var tx *sql.Tx
	if s.db != nil {
		tx, err = s.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, err
		}

		defer func() {
			if err != nil {
				_ = tx.Rollback()
			}
		}()

		// Transaction-scoped repositories: the completion and the debit
		// commit or roll back together.
		tripRepo = postgres.NewTripRepositoryWithTx(tx)
		userRepo = postgres.NewUserRepositoryWithTx(tx)
	}

	if err = tripRepo.Complete(ctx, trip.ID, fare, at); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			err = ErrTripAlreadyCompleted
		}
		return nil, err
	}

	var newBalance float64
	newBalance, err = userRepo.AdjustBalance(ctx, user.ID, -fare)
	if err != nil {
		return nil, err
	}

	if tx != nil {
		if err = tx.Commit(); err != nil {
			return nil, err
		}
	}

	if s.cache != nil {
		_ = s.cache.InvalidateUser(ctx, fingerprintID)
	}

	trip.Status = domain.TripStatusCompleted
	trip.Fare = fare
	trip.DestinationTimestamp = at

	return &DestinationScanResult{
		Trip:       trip,
		Fare:       fare,
		NewBalance: newBalance,
	}, nil
}

// GetTrip retrieves a trip by ID.
func (s *TripService) GetTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	return s.tripRepo.GetByID(ctx, tripID)
}

// GetActiveTrip retrieves the newest STARTED trip across all riders. The
// rider client polls this while waiting for its own scan to land; there is
// no per-user scoping because the client has no authenticated identity.
func (s *TripService) GetActiveTrip(ctx context.Context) (*domain.Trip, error) {
	return s.tripRepo.GetLatestStarted(ctx)
}

// defaultHistoryLimit caps trip history responses.
const defaultHistoryLimit = 50

// ListTrips retrieves a rider's trips, newest first.
func (s *TripService) ListTrips(ctx context.Context, fingerprintID int64, limit int) ([]*domain.Trip, error) {
	if fingerprintID <= 0 {
		return nil, ErrInvalidFingerprintID
	}

	if limit <= 0 || limit > defaultHistoryLimit {
		limit = defaultHistoryLimit
	}

	return s.tripRepo.ListByFingerprint(ctx, fingerprintID, limit)
}
