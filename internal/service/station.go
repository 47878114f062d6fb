package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"metro/internal/domain"
	internalRedis "metro/internal/redis"
	"metro/internal/repository"
)

// StationService manages station reference data with a read-through list
// cache, since every rider dashboard poll fetches the station list.
type StationService struct {
	stationRepo repository.StationRepository
	cache       *internalRedis.CacheStore
}

// NewStationService creates a new StationService.
func NewStationService(stationRepo repository.StationRepository, cache *internalRedis.CacheStore) *StationService {
	return &StationService{
		stationRepo: stationRepo,
		cache:       cache,
	}
}

// Create adds a new station.
func (s *StationService) Create(ctx context.Context, name, code string) (*domain.Station, error) {
	if name == "" || code == "" {
		return nil, ErrInvalidStation
	}

	station := &domain.Station{
		ID:   uuid.New().String(),
		Name: name,
		Code: code,
	}

	if err := s.stationRepo.Create(ctx, station); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrStationExists
		}
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.InvalidateStations(ctx)
	}

	return station, nil
}

// List returns all stations ordered by name.
func (s *StationService) List(ctx context.Context) ([]*domain.Station, error) {
	if s.cache != nil {
		cached, err := s.cache.GetStations(ctx)
		if err == nil && cached != nil {
			stations := make([]*domain.Station, 0, len(cached))
			for _, c := range cached {
				stations = append(stations, &domain.Station{ID: c.ID, Name: c.Name, Code: c.Code})
			}
			return stations, nil
		}
	}

	stations, err := s.stationRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		cached := make([]internalRedis.CachedStation, 0, len(stations))
		for _, st := range stations {
			cached = append(cached, internalRedis.CachedStation{ID: st.ID, Name: st.Name, Code: st.Code})
		}
		_ = s.cache.SetStations(ctx, cached)
	}

	return stations, nil
}
