package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Subscription is a directed subscriber -> channel edge.
type Subscription struct {
	SubscriberID uuid.UUID `db:"subscriber_id" json:"subscriber"`
	ChannelID    uuid.UUID `db:"channel_id" json:"channel"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// SubscriptionToggleResult is the canonical state after a subscribe toggle.
type SubscriptionToggleResult struct {
	IsSubscribed     bool `json:"isSubscribed"`
	SubscribersCount int  `json:"subscribersCount"`
}

// ChannelUser is a user listed as a subscriber or as a subscribed channel.
type ChannelUser struct {
	UserSummary
	SubscribersCount int       `db:"subscribers_count" json:"subscribersCount"`
	SubscribedAt     time.Time `db:"subscribed_at" json:"subscribedAt"`
}

// SubscriberPage lists the subscribers of a channel.
type SubscriberPage struct {
	Subscribers []ChannelUser `json:"subscribers"`
	PageMeta
}

// SubscribedChannelPage lists the channels a user subscribes to.
type SubscribedChannelPage struct {
	Channels []ChannelUser `json:"channels"`
	PageMeta
}

var (
	ErrChannelNotFound     = errors.New("channel not found")
	ErrCannotSubscribeSelf = errors.New("cannot subscribe to own channel")
)
