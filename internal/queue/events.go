package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types for the feed stream
const (
	EventVideoPublished      = "video_published"
	EventVideoRemoved        = "video_removed"
	EventChannelSubscribed   = "channel_subscribed"
	EventChannelUnsubscribed = "channel_unsubscribed"
)

const (
	StreamFeed        = "stream:feed"
	ConsumerGroupFeed = "feed_workers"
)

// FeedEvent is the single payload shape of the feed stream.
type FeedEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // Unix time the event was emitted

	// Video events. PublishedAt is the feed score.
	VideoID     uuid.UUID `json:"video_id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	PublishedAt int64     `json:"published_at,omitempty"`

	// Subscription events
	SubscriberID uuid.UUID `json:"subscriber_id"`
	ChannelID    uuid.UUID `json:"channel_id"`
}

// NewVideoPublishedEvent fans a video out to its channel's subscribers.
func NewVideoPublishedEvent(videoID, ownerID uuid.UUID, publishedAt time.Time) FeedEvent {
	return FeedEvent{
		Type:        EventVideoPublished,
		Timestamp:   time.Now().Unix(),
		VideoID:     videoID,
		OwnerID:     ownerID,
		PublishedAt: publishedAt.Unix(),
	}
}

// NewVideoRemovedEvent pulls a deleted or unpublished video out of feeds.
func NewVideoRemovedEvent(videoID, ownerID uuid.UUID) FeedEvent {
	return FeedEvent{
		Type:      EventVideoRemoved,
		Timestamp: time.Now().Unix(),
		VideoID:   videoID,
		OwnerID:   ownerID,
	}
}

// NewChannelSubscribedEvent backfills the channel's recent videos into the subscriber's feed.
func NewChannelSubscribedEvent(subscriberID, channelID uuid.UUID) FeedEvent {
	return FeedEvent{
		Type:         EventChannelSubscribed,
		Timestamp:    time.Now().Unix(),
		SubscriberID: subscriberID,
		ChannelID:    channelID,
	}
}

func NewChannelUnsubscribedEvent(subscriberID, channelID uuid.UUID) FeedEvent {
	return FeedEvent{
		Type:         EventChannelUnsubscribed,
		Timestamp:    time.Now().Unix(),
		SubscriberID: subscriberID,
		ChannelID:    channelID,
	}
}

// ToMap converts the event to XADD field-values; the JSON body goes in "data".
func (e FeedEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseFeedEvent parses a FeedEvent from Redis stream message values.
func ParseFeedEvent(values map[string]interface{}) (FeedEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return FeedEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event FeedEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return FeedEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
