package model

import "errors"

// LikeTarget identifies what kind of entity a like points at.
type LikeTarget string

const (
	LikeTargetVideo   LikeTarget = "video"
	LikeTargetComment LikeTarget = "comment"
	LikeTargetTweet   LikeTarget = "tweet"
)

// Column is the likes column referencing the target.
func (t LikeTarget) Column() string {
	switch t {
	case LikeTargetVideo:
		return "video_id"
	case LikeTargetComment:
		return "comment_id"
	case LikeTargetTweet:
		return "tweet_id"
	}
	return ""
}

// Table is the table holding the target and its likes_count counter.
func (t LikeTarget) Table() string {
	switch t {
	case LikeTargetVideo:
		return "videos"
	case LikeTargetComment:
		return "comments"
	case LikeTargetTweet:
		return "tweets"
	}
	return ""
}

// NotFound is the sentinel returned when the target does not exist.
func (t LikeTarget) NotFound() error {
	switch t {
	case LikeTargetVideo:
		return ErrVideoNotFound
	case LikeTargetComment:
		return ErrCommentNotFound
	case LikeTargetTweet:
		return ErrTweetNotFound
	}
	return ErrInvalidLikeTarget
}

// Valid reports whether the target is one of the known kinds.
func (t LikeTarget) Valid() bool {
	return t.Column() != ""
}

// LikeToggleResult is the canonical state after a like toggle.
type LikeToggleResult struct {
	IsLiked    bool `json:"isLiked"`
	LikesCount int  `json:"likesCount"`
}

var ErrInvalidLikeTarget = errors.New("invalid like target")
