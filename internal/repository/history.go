package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"streamify/internal/model"
)

type watchHistoryRepository struct {
	db *sqlx.DB
}

func NewWatchHistoryRepository(db *sqlx.DB) WatchHistoryRepository {
	return &watchHistoryRepository{db: db}
}

// Record upserts a watch entry; re-watching moves the video to the top.
func (r *watchHistoryRepository) Record(ctx context.Context, userID, videoID uuid.UUID) error {
	query := `
		INSERT INTO watch_history (user_id, video_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, video_id) DO UPDATE SET watched_at = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query, userID, videoID); err != nil {
		if isPQError(err, pgForeignKeyViolation) {
			return model.ErrVideoNotFound
		}
		return fmt.Errorf("record watch history: %w", err)
	}
	return nil
}

func (r *watchHistoryRepository) List(ctx context.Context, userID uuid.UUID, p model.Pagination) ([]model.Video, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM watch_history WHERE user_id = $1`, userID); err != nil {
		return nil, 0, fmt.Errorf("count watch history: %w", err)
	}

	query := videoSelect + `
		JOIN watch_history h ON h.video_id = v.id
		WHERE h.user_id = $1
		ORDER BY h.watched_at DESC, v.id DESC
		LIMIT $2 OFFSET $3
	`
	videos := []model.Video{}
	if err := r.db.SelectContext(ctx, &videos, query, userID, p.Limit, p.Offset()); err != nil {
		return nil, 0, fmt.Errorf("list watch history: %w", err)
	}
	return videos, total, nil
}
