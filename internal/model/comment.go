package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Comment represents a comment on a video.
type Comment struct {
	ID         uuid.UUID    `db:"id" json:"_id"`
	VideoID    uuid.UUID    `db:"video_id" json:"video"`
	OwnerID    *uuid.UUID   `db:"owner_id" json:"owner"`
	Content    string       `db:"content" json:"content"`
	LikesCount int          `db:"likes_count" json:"likesCount"`
	CreatedAt  time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time    `db:"updated_at" json:"updatedAt"`
	Author     *UserSummary `json:"author"` // Joined field, null when the author is gone
}

// CommentRequest is the body for creating or updating a comment. The web
// client historically sent "content" while the API documents "comment".
type CommentRequest struct {
	Comment string `json:"comment"`
	Content string `json:"content"`
}

// Text returns whichever of the two fields was provided.
func (r CommentRequest) Text() string {
	if r.Comment != "" {
		return r.Comment
	}
	return r.Content
}

// CommentPage is one page of a video's comments, newest first.
type CommentPage struct {
	Comments []Comment `json:"comments"`
	PageMeta
}

// Comment constraints
const (
	MaxCommentLength = 2200
)

// Comment errors
var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrNotCommentOwner = errors.New("not the owner of this comment")
	ErrContentRequired = errors.New("content is required")
	ErrContentTooLong  = errors.New("content too long")
)
