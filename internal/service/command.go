package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"metro/internal/domain"
	"metro/internal/repository"
)

// CommandService owns the per-device FIFO of pending reader instructions.
type CommandService struct {
	commandRepo repository.CommandRepository
}

// NewCommandService creates a new CommandService.
func NewCommandService(commandRepo repository.CommandRepository) *CommandService {
	return &CommandService{commandRepo: commandRepo}
}

// Enqueue appends a command to the device's queue.
func (s *CommandService) Enqueue(ctx context.Context, deviceID string, kind domain.CommandKind) (*domain.DeviceCommand, error) {
	if deviceID == "" {
		return nil, ErrInvalidDeviceID
	}

	if kind == "" {
		return nil, ErrInvalidCommandKind
	}

	cmd := &domain.DeviceCommand{
		ID:        uuid.New().String(),
		DeviceID:  deviceID,
		Command:   kind,
		Processed: false,
		CreatedAt: time.Now(),
	}

	if err := s.commandRepo.Create(ctx, cmd); err != nil {
		return nil, err
	}

	return cmd, nil
}

// DequeueNext hands the device its oldest pending command and marks it
// processed. An empty queue surfaces as repository.ErrNotFound; the
// gateway maps that to a "no work" response, not an error.
func (s *CommandService) DequeueNext(ctx context.Context, deviceID string) (*domain.DeviceCommand, error) {
	if deviceID == "" {
		return nil, ErrInvalidDeviceID
	}

	return s.commandRepo.DequeueNext(ctx, deviceID)
}
