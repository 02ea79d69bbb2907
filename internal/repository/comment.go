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

const commentColumns = `id, video_id, owner_id, content, likes_count, created_at, updated_at`

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts a new comment. The video and owner must exist.
func (r *commentRepository) Create(ctx context.Context, videoID, ownerID uuid.UUID, content string) (*model.Comment, error) {
	query := `
		INSERT INTO comments (video_id, owner_id, content)
		VALUES ($1, $2, $3)
		RETURNING ` + commentColumns
	var comment model.Comment
	err := r.db.GetContext(ctx, &comment, query, videoID, ownerID, content)
	if err != nil {
		if isPQError(err, pgForeignKeyViolation) {
			return nil, model.ErrVideoNotFound
		}
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return &comment, nil
}

// GetByID retrieves a single comment.
func (r *commentRepository) GetByID(ctx context.Context, commentID uuid.UUID) (*model.Comment, error) {
	var comment model.Comment
	err := r.db.GetContext(ctx, &comment, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, commentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &comment, nil
}

// Update updates a comment's content. Only the owner can update.
func (r *commentRepository) Update(ctx context.Context, commentID, ownerID uuid.UUID, content string) (*model.Comment, error) {
	query := `
		UPDATE comments
		SET content = $1, updated_at = NOW()
		WHERE id = $2 AND owner_id = $3
		RETURNING ` + commentColumns
	var comment model.Comment
	err := r.db.GetContext(ctx, &comment, query, content, commentID, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.ownershipError(ctx, commentID)
	}
	if err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	return &comment, nil
}

// Delete removes a comment. Its likes go with it via ON DELETE CASCADE.
// Only the comment owner can delete.
func (r *commentRepository) Delete(ctx context.Context, commentID, ownerID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1 AND owner_id = $2`, commentID, ownerID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return r.ownershipError(ctx, commentID)
	}
	return nil
}

// commentPageRow is one row of the paginated query. Page columns are NULL when
// the requested page is past the end; total_count is always present.
type commentPageRow struct {
	TotalCount     int            `db:"total_count"`
	ID             uuid.NullUUID  `db:"id"`
	VideoID        uuid.NullUUID  `db:"video_id"`
	OwnerID        uuid.NullUUID  `db:"owner_id"`
	Content        sql.NullString `db:"content"`
	LikesCount     sql.NullInt64  `db:"likes_count"`
	CreatedAt      sql.NullTime   `db:"created_at"`
	UpdatedAt      sql.NullTime   `db:"updated_at"`
	AuthorID       uuid.NullUUID  `db:"author_id"`
	AuthorUsername sql.NullString `db:"author_username"`
	AuthorFullName sql.NullString `db:"author_full_name"`
	AuthorAvatar   sql.NullString `db:"author_avatar"`
}

// ListByVideo returns one page of a video's comments, newest first, with the
// author summary and the total comment count. Page and count come from a
// single statement so they share one snapshot.
func (r *commentRepository) ListByVideo(ctx context.Context, videoID uuid.UUID, p model.Pagination) (*model.CommentPage, error) {
	query := `
		WITH filtered AS (
			SELECT c.id, c.video_id, c.owner_id, c.content, c.likes_count, c.created_at, c.updated_at,
			       u.id AS author_id, u.username AS author_username,
			       u.full_name AS author_full_name, u.avatar_url AS author_avatar
			FROM comments c
			LEFT JOIN users u ON u.id = c.owner_id
			WHERE c.video_id = $1
		),
		total AS (
			SELECT COUNT(*) AS total_count FROM filtered
		)
		SELECT t.total_count, pg.*
		FROM total t
		LEFT JOIN LATERAL (
			SELECT * FROM filtered
			ORDER BY created_at DESC, id DESC
			OFFSET $2 LIMIT $3
		) pg ON TRUE
	`

	var rows []commentPageRow
	if err := r.db.SelectContext(ctx, &rows, query, videoID, p.Offset(), p.Limit); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	page := &model.CommentPage{Comments: []model.Comment{}}
	total := 0
	for _, row := range rows {
		total = row.TotalCount
		if !row.ID.Valid {
			continue
		}
		page.Comments = append(page.Comments, row.toComment())
	}
	page.PageMeta = model.NewPageMeta(p, total)
	return page, nil
}

func (row commentPageRow) toComment() model.Comment {
	c := model.Comment{
		ID:         row.ID.UUID,
		VideoID:    row.VideoID.UUID,
		Content:    row.Content.String,
		LikesCount: int(row.LikesCount.Int64),
		CreatedAt:  row.CreatedAt.Time,
		UpdatedAt:  row.UpdatedAt.Time,
	}
	if row.OwnerID.Valid {
		ownerID := row.OwnerID.UUID
		c.OwnerID = &ownerID
	}
	if row.AuthorID.Valid {
		c.Author = &model.UserSummary{
			ID:       row.AuthorID.UUID,
			Username: row.AuthorUsername.String,
			FullName: row.AuthorFullName.String,
			Avatar:   row.AuthorAvatar.String,
		}
	}
	return c
}

func (r *commentRepository) ownershipError(ctx context.Context, commentID uuid.UUID) error {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM comments WHERE id = $1)`, commentID)
	if err != nil {
		return fmt.Errorf("check comment exists: %w", err)
	}
	if exists {
		return model.ErrNotCommentOwner
	}
	return model.ErrCommentNotFound
}
