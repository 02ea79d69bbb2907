package model

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Video is an uploaded video. Only the owner may mutate it.
type Video struct {
	ID           uuid.UUID    `db:"id" json:"_id"`
	OwnerID      uuid.UUID    `db:"owner_id" json:"owner"`
	Title        string       `db:"title" json:"title"`
	Description  string       `db:"description" json:"description"`
	VideoFile    string       `db:"video_url" json:"videoFile"`
	VideoKey     string       `db:"video_key" json:"-"`
	Thumbnail    string       `db:"thumbnail_url" json:"thumbnail"`
	ThumbnailKey string       `db:"thumbnail_key" json:"-"`
	Duration     float64      `db:"duration" json:"duration"`
	Views        int64        `db:"views" json:"views"`
	IsPublished  bool         `db:"is_published" json:"isPublished"`
	LikesCount   int          `db:"likes_count" json:"likesCount"`
	CreatedAt    time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updatedAt"`
	Owner        *UserSummary `db:"owner" json:"ownerDetails,omitempty"` // Joined field
}

// VideoDetails is a single video as seen by a viewer.
type VideoDetails struct {
	Video
	IsLiked          bool `json:"isLiked"`
	SubscribersCount int  `json:"subscribersCount"`
	IsSubscribed     bool `json:"isSubscribed"`
}

// VideoPage is a page of videos.
type VideoPage struct {
	Videos []Video `json:"videos"`
	PageMeta
}

// VideoListParams filters the public video list.
type VideoListParams struct {
	Pagination
	Query    string
	SortBy   string
	SortType string
	OwnerID  *uuid.UUID

	// IncludeUnpublished is set when the owner lists their own channel.
	IncludeUnpublished bool
}

// Sort columns accepted by the video list. Keys are the client-facing names.
var videoSortColumns = map[string]string{
	"createdAt": "v.created_at",
	"views":     "v.views",
	"duration":  "v.duration",
	"title":     "v.title",
}

// SortClause returns a safe ORDER BY expression for the params.
func (p VideoListParams) SortClause() string {
	col, ok := videoSortColumns[p.SortBy]
	if !ok {
		col = "v.created_at"
	}
	dir := "DESC"
	if strings.EqualFold(p.SortType, "asc") {
		dir = "ASC"
	}
	return col + " " + dir + ", v.id " + dir
}

// CreateVideoRequest carries the metadata of a published video. File fields
// are filled by the handler after the uploads succeed.
type CreateVideoRequest struct {
	Title        string
	Description  string
	Duration     float64
	VideoURL     string
	VideoKey     string
	ThumbnailURL string
	ThumbnailKey string
}

// UpdateVideoRequest updates the mutable fields of a video. A nil field is left untouched.
type UpdateVideoRequest struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	ThumbnailURL *string `json:"-"`
	ThumbnailKey *string `json:"-"`
}

const (
	MaxVideoTitleLength       = 200
	MaxVideoDescriptionLength = 5000
)

// Video errors
var (
	ErrVideoNotFound      = errors.New("video not found")
	ErrNotVideoOwner      = errors.New("not the owner of this video")
	ErrTitleRequired      = errors.New("title is required")
	ErrTitleTooLong       = errors.New("title too long")
	ErrDescriptionTooLong = errors.New("description too long")
	ErrVideoFileRequired  = errors.New("video file is required")
	ErrThumbnailRequired  = errors.New("thumbnail is required")
	ErrNothingToUpdate    = errors.New("nothing to update")
)
