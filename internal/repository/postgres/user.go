package postgres

import (
	"context"
	"database/sql"
	"errors"

	"metro/internal/domain"
	"metro/internal/repository"
)

// UserRepository is a PostgreSQL implementation of repository.UserRepository.
type UserRepository struct {
	q Querier
}

// NewUserRepository creates a new PostgreSQL user repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{q: db}
}

// NewUserRepositoryWithTx creates a user repository using a transaction.
func NewUserRepositoryWithTx(tx *sql.Tx) *UserRepository {
	return &UserRepository{q: tx}
}

const userColumns = `id, name, email, phone, fingerprint_id, balance, registered_at, last_updated`

// Create persists a new user.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, name, email, phone, fingerprint_id, balance, registered_at, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Phone,
		user.FingerprintID,
		user.Balance,
		user.RegisteredAt,
		user.LastUpdated,
	)
	if err != nil && isUniqueViolation(err) {
		return repository.ErrDuplicate
	}

	return err
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.q.QueryRowContext(ctx, query, id))
}

// GetByFingerprint retrieves a user by fingerprint ID.
func (r *UserRepository) GetByFingerprint(ctx context.Context, fingerprintID int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE fingerprint_id = $1`
	return r.scanUser(r.q.QueryRowContext(ctx, query, fingerprintID))
}

// GetLatestPlaceholder retrieves the most recently enrolled user whose email
// still carries the synthetic placeholder suffix.
func (r *UserRepository) GetLatestPlaceholder(ctx context.Context) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE email LIKE '%@temp.com'
		ORDER BY registered_at DESC
		LIMIT 1
	`
	return r.scanUser(r.q.QueryRowContext(ctx, query))
}

// Update persists changes to an existing user.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET name = $1, email = $2, phone = $3, balance = $4, last_updated = $5
		WHERE id = $6
	`

	result, err := r.q.ExecContext(ctx, query,
		user.Name,
		user.Email,
		user.Phone,
		user.Balance,
		user.LastUpdated,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// AdjustBalance atomically adds delta to the user's balance and returns the
// new balance. The increment happens inside the UPDATE so concurrent
// debits and credits are serialized by the row, never lost.
func (r *UserRepository) AdjustBalance(ctx context.Context, id string, delta float64) (float64, error) {
	query := `
		UPDATE users
		SET balance = balance + $1, last_updated = NOW()
		WHERE id = $2
		RETURNING balance
	`

	var balance float64
	err := r.q.QueryRowContext(ctx, query, delta, id).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, repository.ErrNotFound
		}
		return 0, err
	}

	return balance, nil
}

func (r *UserRepository) scanUser(row *sql.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.FingerprintID,
		&user.Balance,
		&user.RegisteredAt,
		&user.LastUpdated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Ensure UserRepository implements repository.UserRepository.
var _ repository.UserRepository = (*UserRepository)(nil)
