package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"streamify/internal/cache"
	"streamify/internal/model"
)

// videoSelect joins the owner summary so rows scan straight into model.Video.
const videoSelect = `
	SELECT v.id, v.owner_id, v.title, v.description, v.video_url, v.video_key,
	       v.thumbnail_url, v.thumbnail_key, v.duration, v.views, v.is_published,
	       v.likes_count, v.created_at, v.updated_at,
	       u.id AS "owner.id", u.username AS "owner.username",
	       u.full_name AS "owner.full_name", u.avatar_url AS "owner.avatar_url"
	FROM videos v
	JOIN users u ON u.id = v.owner_id
`

type videoRepository struct {
	db *sqlx.DB
}

func NewVideoRepository(db *sqlx.DB) VideoRepository {
	return &videoRepository{db: db}
}

func (r *videoRepository) Create(ctx context.Context, v *model.Video) error {
	query := `
		INSERT INTO videos (owner_id, title, description, video_url, video_key, thumbnail_url, thumbnail_key, duration, is_published)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, views, likes_count, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		v.OwnerID,
		v.Title,
		v.Description,
		v.VideoFile,
		v.VideoKey,
		v.Thumbnail,
		v.ThumbnailKey,
		v.Duration,
		v.IsPublished,
	).Scan(&v.ID, &v.Views, &v.LikesCount, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert video: %w", err)
	}
	return nil
}

func (r *videoRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Video, error) {
	var v model.Video
	err := r.db.GetContext(ctx, &v, videoSelect+` WHERE v.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrVideoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get video: %w", err)
	}
	return &v, nil
}

// GetByIDs hydrates videos preserving the order of ids. Missing ids are skipped.
func (r *videoRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Video, error) {
	if len(ids) == 0 {
		return []model.Video{}, nil
	}

	var rows []model.Video
	err := r.db.SelectContext(ctx, &rows, videoSelect+` WHERE v.id = ANY($1::uuid[])`, pq.Array(uuidStrings(ids)))
	if err != nil {
		return nil, fmt.Errorf("get videos by ids: %w", err)
	}

	byID := make(map[uuid.UUID]model.Video, len(rows))
	for _, v := range rows {
		byID[v.ID] = v
	}

	videos := make([]model.Video, 0, len(ids))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			videos = append(videos, v)
		}
	}
	return videos, nil
}

// List returns one page of videos matching params and the total match count.
func (r *videoRepository) List(ctx context.Context, params model.VideoListParams) ([]model.Video, int, error) {
	var (
		conds []string
		args  []interface{}
	)
	if !params.IncludeUnpublished {
		conds = append(conds, "v.is_published")
	}
	if q := strings.TrimSpace(params.Query); q != "" {
		args = append(args, "%"+q+"%")
		conds = append(conds, fmt.Sprintf("(v.title ILIKE $%d OR v.description ILIKE $%d)", len(args), len(args)))
	}
	if params.OwnerID != nil {
		args = append(args, *params.OwnerID)
		conds = append(conds, fmt.Sprintf("v.owner_id = $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM videos v`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count videos: %w", err)
	}

	args = append(args, params.Limit, params.Offset())
	query := videoSelect + where +
		` ORDER BY ` + params.SortClause() +
		fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	videos := []model.Video{}
	if err := r.db.SelectContext(ctx, &videos, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list videos: %w", err)
	}
	return videos, total, nil
}

// Update changes title, description and thumbnail of an owned video.
func (r *videoRepository) Update(ctx context.Context, id, ownerID uuid.UUID, req model.UpdateVideoRequest) error {
	query := `
		UPDATE videos
		SET title = COALESCE($1, title),
		    description = COALESCE($2, description),
		    thumbnail_url = COALESCE($3, thumbnail_url),
		    thumbnail_key = COALESCE($4, thumbnail_key),
		    updated_at = NOW()
		WHERE id = $5 AND owner_id = $6
	`
	result, err := r.db.ExecContext(ctx, query, req.Title, req.Description, req.ThumbnailURL, req.ThumbnailKey, id, ownerID)
	if err != nil {
		return fmt.Errorf("update video: %w", err)
	}
	return r.checkOwned(ctx, result, id)
}

func (r *videoRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) (*model.Video, error) {
	query := `
		DELETE FROM videos WHERE id = $1 AND owner_id = $2
		RETURNING id, owner_id, title, description, video_url, video_key, thumbnail_url, thumbnail_key,
		          duration, views, is_published, likes_count, created_at, updated_at
	`
	var v model.Video
	err := r.db.GetContext(ctx, &v, query, id, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.ownershipError(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("delete video: %w", err)
	}
	return &v, nil
}

func (r *videoRepository) TogglePublish(ctx context.Context, id, ownerID uuid.UUID) (bool, error) {
	query := `
		UPDATE videos SET is_published = NOT is_published, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2
		RETURNING is_published
	`
	var published bool
	err := r.db.GetContext(ctx, &published, query, id, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, r.ownershipError(ctx, id)
	}
	if err != nil {
		return false, fmt.Errorf("toggle publish: %w", err)
	}
	return published, nil
}

func (r *videoRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE videos SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return nil
}

func (r *videoRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM videos WHERE id = $1)`, id)
	if err != nil {
		return false, fmt.Errorf("check video exists: %w", err)
	}
	return exists, nil
}

// GetRecentByOwner returns the newest published videos of a channel for feed backfill.
func (r *videoRepository) GetRecentByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]cache.VideoScore, error) {
	query := `
		SELECT id, created_at FROM videos
		WHERE owner_id = $1 AND is_published
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.selectScores(ctx, query, ownerID, limit)
}

// GetFeedVideoIDs returns the newest published videos across channels for cache warming.
func (r *videoRepository) GetFeedVideoIDs(ctx context.Context, channelIDs []uuid.UUID, limit int) ([]cache.VideoScore, error) {
	if len(channelIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT id, created_at FROM videos
		WHERE owner_id = ANY($1::uuid[]) AND is_published
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.selectScores(ctx, query, pq.Array(uuidStrings(channelIDs)), limit)
}

func (r *videoRepository) selectScores(ctx context.Context, query string, args ...interface{}) ([]cache.VideoScore, error) {
	var rows []struct {
		ID        uuid.UUID `db:"id"`
		CreatedAt time.Time `db:"created_at"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select video scores: %w", err)
	}

	scores := make([]cache.VideoScore, len(rows))
	for i, row := range rows {
		scores[i] = cache.VideoScore{VideoID: row.ID, Timestamp: row.CreatedAt.Unix()}
	}
	return scores, nil
}

func (r *videoRepository) checkOwned(ctx context.Context, result sql.Result, id uuid.UUID) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return r.ownershipError(ctx, id)
	}
	return nil
}

// ownershipError distinguishes a missing video from one owned by someone else.
func (r *videoRepository) ownershipError(ctx context.Context, id uuid.UUID) error {
	exists, err := r.Exists(ctx, id)
	if err != nil {
		return err
	}
	if exists {
		return model.ErrNotVideoOwner
	}
	return model.ErrVideoNotFound
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
