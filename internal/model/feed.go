package model

import "errors"

// FeedResponse is a page of the subscription feed.
type FeedResponse struct {
	Videos     []FeedVideo `json:"videos"`
	NextCursor *string     `json:"nextCursor,omitempty"`
	HasMore    bool        `json:"hasMore"`
}

// FeedVideo is a feed entry: the video plus whether the viewer liked it.
type FeedVideo struct {
	Video
	IsLiked bool `json:"isLiked"`
}

var ErrInvalidCursor = errors.New("invalid cursor")
