package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Tweet is a short text post on a channel.
type Tweet struct {
	ID         uuid.UUID    `db:"id" json:"_id"`
	OwnerID    uuid.UUID    `db:"owner_id" json:"owner"`
	Content    string       `db:"content" json:"content"`
	LikesCount int          `db:"likes_count" json:"likesCount"`
	CreatedAt  time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time    `db:"updated_at" json:"updatedAt"`
	Owner      *UserSummary `db:"owner" json:"ownerDetails,omitempty"` // Joined field
	IsLiked    bool         `db:"-" json:"isLiked"`
}

type TweetRequest struct {
	Content string `json:"content"`
}

// TweetPage is a page of a user's tweets, newest first.
type TweetPage struct {
	Tweets []Tweet `json:"tweets"`
	PageMeta
}

const MaxTweetLength = 280

var (
	ErrTweetNotFound = errors.New("tweet not found")
	ErrNotTweetOwner = errors.New("not the owner of this tweet")
)
