package repository

import (
	"context"

	"metro/internal/domain"
)

// UserRepository defines the persistence operations for users.
type UserRepository interface {
	// Create persists a new user.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByFingerprint retrieves a user by fingerprint ID.
	GetByFingerprint(ctx context.Context, fingerprintID int64) (*domain.User, error)

	// GetLatestPlaceholder retrieves the most recently enrolled user that
	// still carries a synthetic placeholder identity.
	GetLatestPlaceholder(ctx context.Context) (*domain.User, error)

	// Update persists changes to an existing user.
	Update(ctx context.Context, user *domain.User) error

	// AdjustBalance atomically adds delta (which may be negative) to the
	// user's balance and returns the new balance.
	AdjustBalance(ctx context.Context, id string, delta float64) (float64, error)
}
