package postgres

import (
	"context"
	"database/sql"
	"errors"

	"metro/internal/domain"
	"metro/internal/repository"
)

// CommandRepository is a PostgreSQL implementation of repository.CommandRepository.
type CommandRepository struct {
	q Querier
}

// NewCommandRepository creates a new PostgreSQL command repository.
func NewCommandRepository(db *sql.DB) *CommandRepository {
	return &CommandRepository{q: db}
}

// Create persists a new unprocessed command.
func (r *CommandRepository) Create(ctx context.Context, cmd *domain.DeviceCommand) error {
	query := `
		INSERT INTO device_commands (id, device_id, command, processed, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.q.ExecContext(ctx, query,
		cmd.ID,
		cmd.DeviceID,
		cmd.Command,
		cmd.Processed,
		cmd.CreatedAt,
	)

	return err
}

// DequeueNext selects the oldest unprocessed command for the device and
// marks it processed in one statement. The subselect locks the row with
// FOR UPDATE SKIP LOCKED, so two concurrent polls from the same device
// each lock a different row or find none; a command can never be delivered
// twice.
func (r *CommandRepository) DequeueNext(ctx context.Context, deviceID string) (*domain.DeviceCommand, error) {
	query := `
		UPDATE device_commands
		SET processed = TRUE
		WHERE id = (
			SELECT id FROM device_commands
			WHERE device_id = $1 AND processed = FALSE
			ORDER BY created_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, device_id, command, processed, created_at
	`

	var cmd domain.DeviceCommand
	err := r.q.QueryRowContext(ctx, query, deviceID).Scan(
		&cmd.ID,
		&cmd.DeviceID,
		&cmd.Command,
		&cmd.Processed,
		&cmd.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &cmd, nil
}

// CountPending returns the number of unprocessed commands for a device.
func (r *CommandRepository) CountPending(ctx context.Context, deviceID string) (int64, error) {
	query := `SELECT COUNT(*) FROM device_commands WHERE device_id = $1 AND processed = FALSE`

	var count int64
	if err := r.q.QueryRowContext(ctx, query, deviceID).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

// Ensure CommandRepository implements repository.CommandRepository.
var _ repository.CommandRepository = (*CommandRepository)(nil)
