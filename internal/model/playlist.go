package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Playlist is an ordered, duplicate-free list of videos owned by a user.
// Videos holds ids in insertion order.
type Playlist struct {
	ID          uuid.UUID   `db:"id" json:"_id"`
	OwnerID     uuid.UUID   `db:"owner_id" json:"owner"`
	Name        string      `db:"name" json:"name"`
	Description string      `db:"description" json:"description"`
	Videos      []uuid.UUID `db:"-" json:"videos"`
	CreatedAt   time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updatedAt"`
}

// PlaylistDetails is a playlist with its videos hydrated in order.
type PlaylistDetails struct {
	*Playlist
	Videos      []Video      `json:"videos"`
	TotalVideos int          `json:"totalVideos"`
	TotalViews  int64        `json:"totalViews"`
	Owner       *UserSummary `json:"ownerDetails,omitempty"`
}

type PlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// PlaylistVideoRequest is the body of add-video / remove-video.
type PlaylistVideoRequest struct {
	PlaylistID string `json:"playlistId"`
	VideoID    string `json:"videoId"`
}

const (
	MaxPlaylistNameLength = 150
)

var (
	ErrPlaylistNotFound    = errors.New("playlist not found")
	ErrNotPlaylistOwner    = errors.New("not the owner of this playlist")
	ErrPlaylistNameMissing = errors.New("playlist name is required")
	ErrPlaylistNameTooLong = errors.New("playlist name too long")
)
