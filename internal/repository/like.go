package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"streamify/internal/model"
)

type likeRepository struct {
	db *sqlx.DB
}

func NewLikeRepository(db *sqlx.DB) LikeRepository {
	return &likeRepository{db: db}
}

// LockTarget takes a row lock on the liked entity so concurrent toggles on the
// same target serialize on it.
func (r *likeRepository) LockTarget(ctx context.Context, tx *sqlx.Tx, target model.LikeTarget, targetID uuid.UUID) error {
	if !target.Valid() {
		return model.ErrInvalidLikeTarget
	}
	var locked uuid.UUID
	err := tx.GetContext(ctx, &locked, `SELECT id FROM `+target.Table()+` WHERE id = $1 FOR UPDATE`, targetID)
	if errors.Is(err, sql.ErrNoRows) {
		return target.NotFound()
	}
	if err != nil {
		return fmt.Errorf("failed to lock %s: %w", target, err)
	}
	return nil
}

func (r *likeRepository) Create(ctx context.Context, tx *sqlx.Tx, target model.LikeTarget, userID, targetID uuid.UUID) error {
	query := `INSERT INTO likes (user_id, ` + target.Column() + `) VALUES ($1, $2)`
	_, err := tx.ExecContext(ctx, query, userID, targetID)
	if err != nil {
		if isPQError(err, pgForeignKeyViolation) {
			return target.NotFound()
		}
		return fmt.Errorf("failed to create like: %w", err)
	}
	return nil
}

// Delete removes the like if present and reports whether a row was removed.
func (r *likeRepository) Delete(ctx context.Context, tx *sqlx.Tx, target model.LikeTarget, userID, targetID uuid.UUID) (bool, error) {
	query := `DELETE FROM likes WHERE user_id = $1 AND ` + target.Column() + ` = $2`
	result, err := tx.ExecContext(ctx, query, userID, targetID)
	if err != nil {
		return false, fmt.Errorf("failed to delete like: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *likeRepository) IncrementLikesCount(ctx context.Context, tx *sqlx.Tx, target model.LikeTarget, targetID uuid.UUID, delta int) (int, error) {
	query := `
		UPDATE ` + target.Table() + `
		SET likes_count = GREATEST(likes_count + $1, 0)
		WHERE id = $2
		RETURNING likes_count
	`
	var count int
	err := tx.GetContext(ctx, &count, query, delta, targetID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, target.NotFound()
	}
	if err != nil {
		return 0, fmt.Errorf("failed to update likes count: %w", err)
	}
	return count, nil
}

func (r *likeRepository) Exists(ctx context.Context, target model.LikeTarget, userID, targetID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM likes WHERE user_id = $1 AND ` + target.Column() + ` = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, userID, targetID); err != nil {
		return false, fmt.Errorf("failed to check like existence: %w", err)
	}
	return exists, nil
}

// CheckLikes returns the subset of targetIDs the user has liked.
func (r *likeRepository) CheckLikes(ctx context.Context, target model.LikeTarget, userID uuid.UUID, targetIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	result := make(map[uuid.UUID]bool, len(targetIDs))
	if len(targetIDs) == 0 {
		return result, nil
	}

	col := target.Column()
	query := `SELECT ` + col + ` FROM likes WHERE user_id = $1 AND ` + col + ` = ANY($2::uuid[])`
	var liked []uuid.UUID
	if err := r.db.SelectContext(ctx, &liked, query, userID, pq.Array(uuidStrings(targetIDs))); err != nil {
		return nil, fmt.Errorf("failed to check likes: %w", err)
	}
	for _, id := range liked {
		result[id] = true
	}
	return result, nil
}

// ListLikedVideos returns the videos a user liked, most recently liked first.
func (r *likeRepository) ListLikedVideos(ctx context.Context, userID uuid.UUID, p model.Pagination) ([]model.Video, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM likes WHERE user_id = $1 AND video_id IS NOT NULL`
	if err := r.db.GetContext(ctx, &total, countQuery, userID); err != nil {
		return nil, 0, fmt.Errorf("failed to count liked videos: %w", err)
	}

	query := videoSelect + `
		JOIN likes l ON l.video_id = v.id
		WHERE l.user_id = $1
		ORDER BY l.created_at DESC, l.id DESC
		LIMIT $2 OFFSET $3
	`
	videos := []model.Video{}
	if err := r.db.SelectContext(ctx, &videos, query, userID, p.Limit, p.Offset()); err != nil {
		return nil, 0, fmt.Errorf("failed to list liked videos: %w", err)
	}
	return videos, total, nil
}
