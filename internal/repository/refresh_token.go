package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"streamify/internal/model"
)

const refreshTokenColumns = `id, user_id, token_hash, expires_at, created_at, revoked_at, replaced_by, device_info, ip_address`

type refreshTokenRepository struct {
	db *sqlx.DB
}

func NewRefreshTokenRepository(db *sqlx.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at, device_info, ip_address)
		VALUES (:user_id, :token_hash, :expires_at, :device_info, :ip_address)
		RETURNING id, created_at
	`
	rows, err := r.db.NamedQueryContext(ctx, query, token)
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return fmt.Errorf("insert refresh token: %w", err)
		}
		return errors.New("insert refresh token: no row returned")
	}
	if err := rows.Scan(&token.ID, &token.CreatedAt); err != nil {
		return fmt.Errorf("scan refresh token: %w", err)
	}
	return nil
}

// FindByTokenHash looks a token up by hash, revoked or not. Callers decide
// what a revoked hit means.
func (r *refreshTokenRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	var token model.RefreshToken
	err := r.db.GetContext(ctx, &token, `SELECT `+refreshTokenColumns+` FROM refresh_tokens WHERE token_hash = $1`, tokenHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrRefreshTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &token, nil
}

// Revoke ends an active token, linking it to its replacement on rotation.
// It returns ErrRefreshTokenNotFound when no active token matched, which is
// how a concurrent rotation of the same token shows up.
func (r *refreshTokenRepository) Revoke(ctx context.Context, id uuid.UUID, replacedBy *uuid.UUID) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = NOW(), replaced_by = $2
		WHERE id = $1 AND revoked_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, id, replacedBy)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if n == 0 {
		return model.ErrRefreshTokenNotFound
	}
	return nil
}

func (r *refreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = NOW() WHERE user_id = $1 AND revoked_at IS NULL`, userID)
	if err != nil {
		return fmt.Errorf("revoke user refresh tokens: %w", err)
	}
	return nil
}

// DeleteExpired drops tokens that expired, or were revoked, more than
// olderThan ago. Revoked rows are kept that long so reuse is still detected.
func (r *refreshTokenRepository) DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE expires_at < NOW() - make_interval(secs => $1)
		   OR revoked_at < NOW() - make_interval(secs => $1)
	`
	result, err := r.db.ExecContext(ctx, query, olderThan.Seconds())
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", err)
	}
	return result.RowsAffected()
}
