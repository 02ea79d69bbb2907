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

const tweetSelect = `
	SELECT t.id, t.owner_id, t.content, t.likes_count, t.created_at, t.updated_at,
	       u.id AS "owner.id", u.username AS "owner.username",
	       u.full_name AS "owner.full_name", u.avatar_url AS "owner.avatar_url"
	FROM tweets t
	JOIN users u ON u.id = t.owner_id
`

type tweetRepository struct {
	db *sqlx.DB
}

func NewTweetRepository(db *sqlx.DB) TweetRepository {
	return &tweetRepository{db: db}
}

func (r *tweetRepository) Create(ctx context.Context, ownerID uuid.UUID, content string) (*model.Tweet, error) {
	query := `
		INSERT INTO tweets (owner_id, content)
		VALUES ($1, $2)
		RETURNING id, owner_id, content, likes_count, created_at, updated_at
	`
	var t model.Tweet
	if err := r.db.GetContext(ctx, &t, query, ownerID, content); err != nil {
		return nil, fmt.Errorf("insert tweet: %w", err)
	}
	return &t, nil
}

func (r *tweetRepository) GetByID(ctx context.Context, tweetID uuid.UUID) (*model.Tweet, error) {
	var t model.Tweet
	err := r.db.GetContext(ctx, &t, tweetSelect+` WHERE t.id = $1`, tweetID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrTweetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tweet: %w", err)
	}
	return &t, nil
}

func (r *tweetRepository) Update(ctx context.Context, tweetID, ownerID uuid.UUID, content string) (*model.Tweet, error) {
	query := `
		UPDATE tweets SET content = $1, updated_at = NOW()
		WHERE id = $2 AND owner_id = $3
		RETURNING id, owner_id, content, likes_count, created_at, updated_at
	`
	var t model.Tweet
	err := r.db.GetContext(ctx, &t, query, content, tweetID, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.ownershipError(ctx, tweetID)
	}
	if err != nil {
		return nil, fmt.Errorf("update tweet: %w", err)
	}
	return &t, nil
}

func (r *tweetRepository) Delete(ctx context.Context, tweetID, ownerID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tweets WHERE id = $1 AND owner_id = $2`, tweetID, ownerID)
	if err != nil {
		return fmt.Errorf("delete tweet: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return r.ownershipError(ctx, tweetID)
	}
	return nil
}

// ListByOwner returns one page of a user's tweets, newest first, and the total.
func (r *tweetRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, p model.Pagination) ([]model.Tweet, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM tweets WHERE owner_id = $1`, ownerID); err != nil {
		return nil, 0, fmt.Errorf("count tweets: %w", err)
	}

	query := tweetSelect + `
		WHERE t.owner_id = $1
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT $2 OFFSET $3
	`
	tweets := []model.Tweet{}
	if err := r.db.SelectContext(ctx, &tweets, query, ownerID, p.Limit, p.Offset()); err != nil {
		return nil, 0, fmt.Errorf("list tweets: %w", err)
	}
	return tweets, total, nil
}

func (r *tweetRepository) ownershipError(ctx context.Context, tweetID uuid.UUID) error {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM tweets WHERE id = $1)`, tweetID)
	if err != nil {
		return fmt.Errorf("check tweet exists: %w", err)
	}
	if exists {
		return model.ErrNotTweetOwner
	}
	return model.ErrTweetNotFound
}
