package service

import (
	"context"
	"errors"
	"time"

	"metro/internal/domain"
	internalRedis "metro/internal/redis"
	"metro/internal/repository"
)

// DeviceService maps physical readers to the stations they are installed
// at. Every verification event resolves its station through this mapping;
// readers that were never registered fall back to the configured default
// station so a single-gate deployment needs no setup.
type DeviceService struct {
	deviceRepo     repository.DeviceRepository
	cache          *internalRedis.CacheStore
	defaultStation string
}

// NewDeviceService creates a new DeviceService.
func NewDeviceService(deviceRepo repository.DeviceRepository, cache *internalRedis.CacheStore, defaultStation string) *DeviceService {
	return &DeviceService{
		deviceRepo:     deviceRepo,
		cache:          cache,
		defaultStation: defaultStation,
	}
}

// Register binds a reader to a station.
func (s *DeviceService) Register(ctx context.Context, deviceID, stationCode string) (*domain.Device, error) {
	if deviceID == "" {
		return nil, ErrInvalidDeviceID
	}

	if stationCode == "" {
		return nil, ErrInvalidStation
	}

	device := &domain.Device{
		DeviceID:     deviceID,
		StationCode:  stationCode,
		RegisteredAt: time.Now(),
	}

	if err := s.deviceRepo.Upsert(ctx, device); err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.InvalidateDeviceStation(ctx, deviceID)
	}

	return device, nil
}

// StationFor resolves the station a reader is installed at.
func (s *DeviceService) StationFor(ctx context.Context, deviceID string) (string, error) {
	if deviceID == "" {
		return "", ErrInvalidDeviceID
	}

	if s.cache != nil {
		if station, ok, err := s.cache.GetDeviceStation(ctx, deviceID); err == nil && ok {
			return station, nil
		}
	}

	device, err := s.deviceRepo.GetByID(ctx, deviceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.defaultStation, nil
		}
		return "", err
	}

	if s.cache != nil {
		_ = s.cache.SetDeviceStation(ctx, deviceID, device.StationCode)
	}

	return device.StationCode, nil
}
