package service

import (
	"context"
	"log"
	"time"

	internalRedis "metro/internal/redis"
	"metro/internal/repository"
)

// ExpiryService cancels trips abandoned in STARTED state. A rider who taps
// in but never taps out would otherwise block their own next journey
// forever, since only one open trip per rider is allowed.
type ExpiryService struct {
	tripRepo repository.TripRepository
	locks    *internalRedis.LockStore
	ttl      time.Duration
	interval time.Duration
}

// NewExpiryService creates a new ExpiryService.
func NewExpiryService(tripRepo repository.TripRepository, locks *internalRedis.LockStore, ttl, interval time.Duration) *ExpiryService {
	return &ExpiryService{
		tripRepo: tripRepo,
		locks:    locks,
		ttl:      ttl,
		interval: interval,
	}
}

// Run sweeps until the context is cancelled.
func (s *ExpiryService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// Sweep cancels STARTED trips older than the TTL. Exported so operators
// can trigger a sweep outside the loop.
func (s *ExpiryService) Sweep(ctx context.Context) (int64, error) {
	return s.tripRepo.CancelStale(ctx, time.Now().Add(-s.ttl))
}

func (s *ExpiryService) sweep(ctx context.Context) {
	if s.locks != nil {
		acquired, err := s.locks.AcquireSweepLock(ctx, s.interval)
		if err != nil || !acquired {
			// Another instance is sweeping, or redis is down; the next
			// tick retries either way.
			return
		}
		defer func() { _ = s.locks.ReleaseSweepLock(ctx) }()
	}

	cancelled, err := s.Sweep(ctx)
	if err != nil {
		log.Printf("trip expiry sweep failed: %v", err)
		return
	}

	if cancelled > 0 {
		log.Printf("cancelled %d abandoned trips", cancelled)
	}
}
