package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"streamify/internal/model"
)

const userColumns = `
	id, username, email, full_name, avatar_url, avatar_key, cover_image_url, cover_image_key,
	password_hashed, subscribers_count, subscriptions_count, created_at, updated_at`

// userRepository implements UserRepository using sqlx
type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user into the database
func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (username, email, full_name, avatar_url, avatar_key, cover_image_url, cover_image_key, password_hashed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, subscribers_count, subscriptions_count, created_at, updated_at
	`

	row := r.db.QueryRowxContext(ctx, query,
		u.Username,
		u.Email,
		u.FullName,
		u.Avatar,
		u.AvatarKey,
		u.CoverImage,
		u.CoverImageKey,
		u.PasswordHashed,
	)

	err := row.Scan(
		&u.ID,
		&u.SubscribersCount,
		&u.SubscriptionsCount,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if isPQError(err, pgUniqueViolation) {
			return model.ErrUserExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.getOne(ctx, `SELECT`+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByUsername retrieves a user by their username
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getOne(ctx, `SELECT`+userColumns+` FROM users WHERE username = $1`, username)
}

// GetByEmail retrieves a user by their email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, `SELECT`+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *userRepository) getOne(ctx context.Context, query string, arg interface{}) (*model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// ExistsByUsernameOrEmail checks if either identifier is already taken
func (r *userRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1 OR email = $2)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, username, email)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}

	return exists, nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHashed string) error {
	query := `UPDATE users SET password_hashed = $1, updated_at = NOW() WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, passwordHashed, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) UpdateAccount(ctx context.Context, id uuid.UUID, fullName, email string) (*model.User, error) {
	query := `
		UPDATE users SET full_name = $1, email = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING` + userColumns
	return r.update(ctx, query, fullName, email, id)
}

func (r *userRepository) UpdateAvatar(ctx context.Context, id uuid.UUID, url, key string) (*model.User, error) {
	query := `
		UPDATE users SET avatar_url = $1, avatar_key = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING` + userColumns
	return r.update(ctx, query, url, key, id)
}

func (r *userRepository) UpdateCoverImage(ctx context.Context, id uuid.UUID, url, key string) (*model.User, error) {
	query := `
		UPDATE users SET cover_image_url = $1, cover_image_key = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING` + userColumns
	return r.update(ctx, query, url, key, id)
}

func (r *userRepository) update(ctx context.Context, query string, args ...interface{}) (*model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		if isPQError(err, pgUniqueViolation) {
			return nil, model.ErrUserExists
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return &u, nil
}

func (r *userRepository) LockForUpdate(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	var locked uuid.UUID
	err := tx.GetContext(ctx, &locked, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock user: %w", err)
	}
	return nil
}

func (r *userRepository) IncrementSubscribersCount(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, delta int) (int, error) {
	query := `
		UPDATE users SET subscribers_count = GREATEST(subscribers_count + $1, 0)
		WHERE id = $2
		RETURNING subscribers_count
	`
	var count int
	if err := tx.GetContext(ctx, &count, query, delta, userID); err != nil {
		return 0, fmt.Errorf("failed to increment subscribers count: %w", err)
	}
	return count, nil
}

func (r *userRepository) IncrementSubscriptionsCount(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, delta int) error {
	query := `UPDATE users SET subscriptions_count = GREATEST(subscriptions_count + $1, 0) WHERE id = $2`
	_, err := tx.ExecContext(ctx, query, delta, userID)
	if err != nil {
		return fmt.Errorf("failed to increment subscriptions count: %w", err)
	}
	return nil
}
