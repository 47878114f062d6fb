package repository

import (
	"context"

	"metro/internal/domain"
)

// FareRepository defines the persistence operations for fare rules.
type FareRepository interface {
	// Create persists a new fare rule.
	Create(ctx context.Context, rule *domain.FareRule) error

	// GetByPair retrieves the rule for an ordered (source, destination)
	// station pair. Returns ErrNotFound if no rule exists.
	GetByPair(ctx context.Context, source, destination string) (*domain.FareRule, error)

	// UpdateFare changes the amount of an existing rule.
	UpdateFare(ctx context.Context, id string, fare float64) error
}
