package service

import (
	"context"
	"errors"
	"time"

	"metro/internal/domain"
	internalRedis "metro/internal/redis"
	"metro/internal/repository"
)

// UserService handles rider profile and balance operations.
type UserService struct {
	userRepo repository.UserRepository
	cache    *internalRedis.CacheStore
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, cache *internalRedis.CacheStore) *UserService {
	return &UserService{
		userRepo: userRepo,
		cache:    cache,
	}
}

// GetByFingerprint retrieves a rider, serving dashboard polls from cache
// when possible.
func (s *UserService) GetByFingerprint(ctx context.Context, fingerprintID int64) (*domain.User, error) {
	if fingerprintID <= 0 {
		return nil, ErrInvalidFingerprintID
	}

	if s.cache != nil {
		if cached, err := s.cache.GetUser(ctx, fingerprintID); err == nil && cached != nil {
			return &domain.User{
				ID:            cached.ID,
				Name:          cached.Name,
				Email:         cached.Email,
				FingerprintID: cached.FingerprintID,
				Balance:       cached.Balance,
			}, nil
		}
	}

	user, err := s.userRepo.GetByFingerprint(ctx, fingerprintID)
	if err != nil {
		return nil, err
	}

	s.cacheUser(ctx, user)
	return user, nil
}

// UpsertRequest contains the identity fields an administrator fills in
// after enrollment.
type UpsertRequest struct {
	FingerprintID int64
	Name          string
	Email         string
	Phone         string
	Balance       *float64
}

// Upsert replaces the placeholder identity of an enrolled rider with real
// profile data. Balance is only overridden when explicitly supplied.
func (s *UserService) Upsert(ctx context.Context, req UpsertRequest) (*domain.User, error) {
	if req.FingerprintID <= 0 {
		return nil, ErrInvalidFingerprintID
	}

	user, err := s.userRepo.GetByFingerprint(ctx, req.FingerprintID)
	if err != nil {
		return nil, err
	}

	user.Name = req.Name
	user.Email = req.Email
	user.Phone = req.Phone
	if req.Balance != nil {
		user.Balance = *req.Balance
	}
	user.LastUpdated = time.Now()

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.invalidateUser(ctx, user.FingerprintID)
	return user, nil
}

// AddBalance credits a rider's balance and returns the new amount.
func (s *UserService) AddBalance(ctx context.Context, fingerprintID int64, amount float64) (float64, error) {
	if fingerprintID <= 0 {
		return 0, ErrInvalidFingerprintID
	}

	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	user, err := s.userRepo.GetByFingerprint(ctx, fingerprintID)
	if err != nil {
		return 0, err
	}

	newBalance, err := s.userRepo.AdjustBalance(ctx, user.ID, amount)
	if err != nil {
		return 0, err
	}

	s.invalidateUser(ctx, fingerprintID)
	return newBalance, nil
}

func (s *UserService) cacheUser(ctx context.Context, user *domain.User) {
	if s.cache == nil {
		return
	}
	_ = s.cache.SetUser(ctx, &internalRedis.CachedUser{
		ID:            user.ID,
		Name:          user.Name,
		Email:         user.Email,
		FingerprintID: user.FingerprintID,
		Balance:       user.Balance,
	})
}

func (s *UserService) invalidateUser(ctx context.Context, fingerprintID int64) {
	if s.cache == nil {
		return
	}
	_ = s.cache.InvalidateUser(ctx, fingerprintID)
}
