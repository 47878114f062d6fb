package repository

import (
	"context"

	"metro/internal/domain"
)

// CommandRepository defines the persistence operations for device commands.
type CommandRepository interface {
	// Create persists a new unprocessed command.
	Create(ctx context.Context, cmd *domain.DeviceCommand) error

	// DequeueNext selects the oldest unprocessed command for the device
	// and marks it processed in a single atomic step, so that concurrent
	// polls never both receive the same command. Returns ErrNotFound when
	// the device has no pending work.
	DequeueNext(ctx context.Context, deviceID string) (*domain.DeviceCommand, error)

	// CountPending returns the number of unprocessed commands for a device.
	CountPending(ctx context.Context, deviceID string) (int64, error)
}
