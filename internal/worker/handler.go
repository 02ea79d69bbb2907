package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"streamify/internal/cache"
	"streamify/internal/logging"
	"streamify/internal/queue"
)

const (
	// backfillLimit is how many recent videos a new subscription pulls into the feed.
	backfillLimit = 20

	// removeLimit bounds how many of a channel's videos an unsubscribe scrubs.
	removeLimit = cache.FeedCacheCap
)

// SubscriberProvider lists the subscribers of a channel.
type SubscriberProvider interface {
	GetSubscriberIDs(ctx context.Context, channelID uuid.UUID) ([]uuid.UUID, error)
}

// RecentVideosProvider lists a channel's newest published videos.
type RecentVideosProvider interface {
	GetRecentByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]cache.VideoScore, error)
}

// Handler applies feed events to the feed cache.
type Handler struct {
	feedCache   cache.FeedCache
	subscribers SubscriberProvider
	videos      RecentVideosProvider
}

func NewHandler(feedCache cache.FeedCache, subscribers SubscriberProvider, videos RecentVideosProvider) *Handler {
	return &Handler{
		feedCache:   feedCache,
		subscribers: subscribers,
		videos:      videos,
	}
}

// HandleEvent routes an event by type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.FeedEvent) error {
	log := logging.Component(ctx, "feed_worker")
	startTime := time.Now()

	var err error
	switch event.Type {
	case queue.EventVideoPublished:
		err = h.handleVideoPublished(ctx, event)
	case queue.EventVideoRemoved:
		err = h.handleVideoRemoved(ctx, event)
	case queue.EventChannelSubscribed:
		err = h.handleChannelSubscribed(ctx, event)
	case queue.EventChannelUnsubscribed:
		err = h.handleChannelUnsubscribed(ctx, event)
	default:
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		log.Error("handle event failed", "type", event.Type, "duration", time.Since(startTime), "error", err)
		return err
	}
	log.Debug("handled event", "type", event.Type, "duration", time.Since(startTime))
	return nil
}

// handleVideoPublished fans a video out to every subscriber and to the owner.
func (h *Handler) handleVideoPublished(ctx context.Context, event queue.FeedEvent) error {
	subscribers, err := h.subscribers.GetSubscriberIDs(ctx, event.OwnerID)
	if err != nil {
		return fmt.Errorf("get subscribers: %w", err)
	}

	video := []cache.VideoScore{{VideoID: event.VideoID, Timestamp: event.PublishedAt}}
	failed, cold := 0, 0
	for _, userID := range append([]uuid.UUID{event.OwnerID}, subscribers...) {
		// A single failed feed does not abort the fan-out. Cold feeds pick the
		// video up from the database when they are next read.
		cached, err := h.feedCache.AddIfCached(ctx, userID, video)
		switch {
		case err != nil:
			failed++
		case !cached:
			cold++
		}
	}

	logging.Component(ctx, "feed_worker").Info("video fanned out",
		"video_id", event.VideoID, "fanout", len(subscribers)+1, "cold", cold, "failed", failed)
	return nil
}

func (h *Handler) handleVideoRemoved(ctx context.Context, event queue.FeedEvent) error {
	subscribers, err := h.subscribers.GetSubscriberIDs(ctx, event.OwnerID)
	if err != nil {
		return fmt.Errorf("get subscribers: %w", err)
	}

	failed := 0
	for _, userID := range append([]uuid.UUID{event.OwnerID}, subscribers...) {
		if err := h.feedCache.RemoveVideo(ctx, userID, event.VideoID); err != nil {
			failed++
		}
	}

	logging.Component(ctx, "feed_worker").Info("video removed from feeds",
		"video_id", event.VideoID, "fanout", len(subscribers)+1, "failed", failed)
	return nil
}

// handleChannelSubscribed backfills the channel's recent videos into the
// subscriber's feed. A feed that is not cached yet is left alone: warming it
// from the database covers every subscribed channel, this one included.
func (h *Handler) handleChannelSubscribed(ctx context.Context, event queue.FeedEvent) error {
	videos, err := h.videos.GetRecentByOwner(ctx, event.ChannelID, backfillLimit)
	if err != nil {
		return fmt.Errorf("get recent videos: %w", err)
	}
	if len(videos) == 0 {
		return nil
	}
	cached, err := h.feedCache.AddIfCached(ctx, event.SubscriberID, videos)
	if err != nil {
		return err
	}
	if !cached {
		logging.Component(ctx, "feed_worker").Debug("subscriber feed not cached, skipping backfill",
			"subscriber_id", event.SubscriberID, "channel_id", event.ChannelID)
	}
	return nil
}

func (h *Handler) handleChannelUnsubscribed(ctx context.Context, event queue.FeedEvent) error {
	videos, err := h.videos.GetRecentByOwner(ctx, event.ChannelID, removeLimit)
	if err != nil {
		return fmt.Errorf("get videos to remove: %w", err)
	}

	ids := make([]uuid.UUID, len(videos))
	for i, v := range videos {
		ids[i] = v.VideoID
	}
	return h.feedCache.RemoveVideos(ctx, event.SubscriberID, ids)
}
