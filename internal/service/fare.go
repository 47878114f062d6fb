package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"metro/internal/domain"
	"metro/internal/repository"
)

// FareService resolves fares for station pairs and manages fare rules.
type FareService struct {
	fareRepo    repository.FareRepository
	stationRepo repository.StationRepository
	defaultFare float64
}

// NewFareService creates a new FareService.
func NewFareService(fareRepo repository.FareRepository, stationRepo repository.StationRepository, defaultFare float64) *FareService {
	return &FareService{
		fareRepo:    fareRepo,
		stationRepo: stationRepo,
		defaultFare: defaultFare,
	}
}

// Resolve returns the fare for the ordered (source, destination) pair.
// Rules are directional; when no exact rule exists the default fare
// applies. An unbound destination therefore resolves to the default fare
// rather than failing the scan.
func (s *FareService) Resolve(ctx context.Context, source, destination string) (float64, error) {
	rule, err := s.fareRepo.GetByPair(ctx, source, destination)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.defaultFare, nil
		}
		return 0, err
	}

	return rule.Fare, nil
}

// UpsertRuleRequest contains the parameters for saving a fare rule.
type UpsertRuleRequest struct {
	SourceStation      string
	DestinationStation string
	Fare               float64
}

// UpsertRule updates the rule for the pair, or creates it. On first
// creation the reverse direction is backfilled with the same amount as a
// convenience; the backfill is one-time, so later updates to one direction
// leave the other untouched.
func (s *FareService) UpsertRule(ctx context.Context, req UpsertRuleRequest) (*domain.FareRule, error) {
	if req.SourceStation == "" || req.DestinationStation == "" {
		return nil, ErrInvalidStation
	}

	if req.Fare < 0 {
		return nil, ErrInvalidFareAmount
	}

	// Both endpoints must be known stations.
	if _, err := s.stationRepo.GetByCode(ctx, req.SourceStation); err != nil {
		return nil, err
	}
	if _, err := s.stationRepo.GetByCode(ctx, req.DestinationStation); err != nil {
		return nil, err
	}

	existing, err := s.fareRepo.GetByPair(ctx, req.SourceStation, req.DestinationStation)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if existing != nil {
		if err := s.fareRepo.UpdateFare(ctx, existing.ID, req.Fare); err != nil {
			return nil, err
		}
		existing.Fare = req.Fare
		return existing, nil
	}

	rule := &domain.FareRule{
		ID:                 uuid.New().String(),
		SourceStation:      req.SourceStation,
		DestinationStation: req.DestinationStation,
		Fare:               req.Fare,
	}

	if err := s.fareRepo.Create(ctx, rule); err != nil {
		return nil, err
	}

	if req.SourceStation != req.DestinationStation {
		if err := s.backfillReverse(ctx, req); err != nil {
			return nil, err
		}
	}

	return rule, nil
}

// backfillReverse creates the reverse-direction rule unless one exists.
func (s *FareService) backfillReverse(ctx context.Context, req UpsertRuleRequest) error {
	_, err := s.fareRepo.GetByPair(ctx, req.DestinationStation, req.SourceStation)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	reverse := &domain.FareRule{
		ID:                 uuid.New().String(),
		SourceStation:      req.DestinationStation,
		DestinationStation: req.SourceStation,
		Fare:               req.Fare,
	}

	if err := s.fareRepo.Create(ctx, reverse); err != nil {
		// A concurrent upsert of the reverse pair beat us; the pair is
		// priced either way.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil
		}
		return err
	}

	return nil
}
