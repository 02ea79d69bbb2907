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

const playlistColumns = `id, owner_id, name, description, created_at, updated_at`

type playlistRepository struct {
	db *sqlx.DB
}

func NewPlaylistRepository(db *sqlx.DB) PlaylistRepository {
	return &playlistRepository{db: db}
}

func (r *playlistRepository) Create(ctx context.Context, pl *model.Playlist) error {
	query := `
		INSERT INTO playlists (owner_id, name, description)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query, pl.OwnerID, pl.Name, pl.Description).
		Scan(&pl.ID, &pl.CreatedAt, &pl.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert playlist: %w", err)
	}
	pl.Videos = []uuid.UUID{}
	return nil
}

// GetByID returns a playlist with its video ids in insertion order.
func (r *playlistRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Playlist, error) {
	var pl model.Playlist
	err := r.db.GetContext(ctx, &pl, `SELECT `+playlistColumns+` FROM playlists WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrPlaylistNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get playlist: %w", err)
	}

	pl.Videos = []uuid.UUID{}
	query := `SELECT video_id FROM playlist_videos WHERE playlist_id = $1 ORDER BY position`
	if err := r.db.SelectContext(ctx, &pl.Videos, query, id); err != nil {
		return nil, fmt.Errorf("get playlist videos: %w", err)
	}
	return &pl, nil
}

// ListByOwner returns a user's playlists, newest first, each with its video ids.
func (r *playlistRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Playlist, error) {
	playlists := []model.Playlist{}
	query := `SELECT ` + playlistColumns + ` FROM playlists WHERE owner_id = $1 ORDER BY created_at DESC, id DESC`
	if err := r.db.SelectContext(ctx, &playlists, query, ownerID); err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}
	if len(playlists) == 0 {
		return playlists, nil
	}

	ids := make([]uuid.UUID, len(playlists))
	index := make(map[uuid.UUID]int, len(playlists))
	for i := range playlists {
		ids[i] = playlists[i].ID
		index[playlists[i].ID] = i
		playlists[i].Videos = []uuid.UUID{}
	}

	var entries []struct {
		PlaylistID uuid.UUID `db:"playlist_id"`
		VideoID    uuid.UUID `db:"video_id"`
	}
	entriesQuery := `
		SELECT playlist_id, video_id FROM playlist_videos
		WHERE playlist_id = ANY($1::uuid[])
		ORDER BY playlist_id, position
	`
	if err := r.db.SelectContext(ctx, &entries, entriesQuery, pq.Array(uuidStrings(ids))); err != nil {
		return nil, fmt.Errorf("list playlist videos: %w", err)
	}
	for _, e := range entries {
		i := index[e.PlaylistID]
		playlists[i].Videos = append(playlists[i].Videos, e.VideoID)
	}
	return playlists, nil
}

func (r *playlistRepository) Update(ctx context.Context, id, ownerID uuid.UUID, req model.PlaylistRequest) (*model.Playlist, error) {
	query := `
		UPDATE playlists SET name = $1, description = $2, updated_at = NOW()
		WHERE id = $3 AND owner_id = $4
	`
	result, err := r.db.ExecContext(ctx, query, req.Name, req.Description, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("update playlist: %w", err)
	}
	if err := r.checkOwned(ctx, result, id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *playlistRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM playlists WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete playlist: %w", err)
	}
	return r.checkOwned(ctx, result, id)
}

func (r *playlistRepository) GetOwnerForUpdate(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (uuid.UUID, error) {
	var ownerID uuid.UUID
	err := tx.GetContext(ctx, &ownerID, `SELECT owner_id FROM playlists WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, model.ErrPlaylistNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("lock playlist: %w", err)
	}
	return ownerID, nil
}

// AddVideo appends a video at the end of the playlist. It reports false when the
// video was already present, leaving the playlist unchanged.
func (r *playlistRepository) AddVideo(ctx context.Context, tx *sqlx.Tx, playlistID, videoID uuid.UUID) (bool, error) {
	query := `
		INSERT INTO playlist_videos (playlist_id, video_id, position)
		SELECT $1, $2, COALESCE(MAX(position), 0) + 1
		FROM playlist_videos WHERE playlist_id = $1
		ON CONFLICT (playlist_id, video_id) DO NOTHING
	`
	result, err := tx.ExecContext(ctx, query, playlistID, videoID)
	if err != nil {
		if isPQError(err, pgForeignKeyViolation) {
			return false, model.ErrVideoNotFound
		}
		return false, fmt.Errorf("add playlist video: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	if rows > 0 {
		if err := touchPlaylist(ctx, tx, playlistID); err != nil {
			return false, err
		}
	}
	return rows > 0, nil
}

// RemoveVideo reports false when the video was not in the playlist.
func (r *playlistRepository) RemoveVideo(ctx context.Context, tx *sqlx.Tx, playlistID, videoID uuid.UUID) (bool, error) {
	result, err := tx.ExecContext(ctx, `DELETE FROM playlist_videos WHERE playlist_id = $1 AND video_id = $2`, playlistID, videoID)
	if err != nil {
		return false, fmt.Errorf("remove playlist video: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	if rows > 0 {
		if err := touchPlaylist(ctx, tx, playlistID); err != nil {
			return false, err
		}
	}
	return rows > 0, nil
}

func touchPlaylist(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	if _, err := tx.ExecContext(ctx, `UPDATE playlists SET updated_at = NOW() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("touch playlist: %w", err)
	}
	return nil
}

func (r *playlistRepository) checkOwned(ctx context.Context, result sql.Result, id uuid.UUID) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM playlists WHERE id = $1)`, id); err != nil {
		return fmt.Errorf("check playlist exists: %w", err)
	}
	if exists {
		return model.ErrNotPlaylistOwner
	}
	return model.ErrPlaylistNotFound
}
