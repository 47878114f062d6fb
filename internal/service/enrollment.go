package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"metro/internal/domain"
	"metro/internal/repository"
)

// EnrollmentService turns freshly captured fingerprint templates into
// backend identities.
type EnrollmentService struct {
	userRepo        repository.UserRepository
	startingBalance float64
}

// NewEnrollmentService creates a new EnrollmentService.
func NewEnrollmentService(userRepo repository.UserRepository, startingBalance float64) *EnrollmentService {
	return &EnrollmentService{
		userRepo:        userRepo,
		startingBalance: startingBalance,
	}
}

// Enroll creates a placeholder user for a new fingerprint template. The
// synthetic name and email mark the record as awaiting real identity data
// from an administrator; the rider still gets the starting credit so test
// taps work immediately after capture.
func (s *EnrollmentService) Enroll(ctx context.Context, fingerprintID int64) (*domain.User, error) {
	if fingerprintID <= 0 {
		return nil, ErrInvalidFingerprintID
	}

	now := time.Now()
	user := &domain.User{
		ID:            uuid.New().String(),
		Name:          fmt.Sprintf("User %d", fingerprintID),
		Email:         fmt.Sprintf("user%d@temp.com", fingerprintID),
		FingerprintID: fingerprintID,
		Balance:       s.startingBalance,
		RegisteredAt:  now,
		LastUpdated:   now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrFingerprintEnrolled
		}
		return nil, err
	}

	return user, nil
}

// LatestEnrolled returns the most recent placeholder user, used by the
// admin UI to attach real identity data to the fingerprint the reader just
// captured.
func (s *EnrollmentService) LatestEnrolled(ctx context.Context) (*domain.User, error) {
	return s.userRepo.GetLatestPlaceholder(ctx)
}
