package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"streamify/internal/cache"
	"streamify/internal/logging"
	"streamify/internal/model"
	"streamify/internal/repository"
)

const (
	// FeedDefaultLimit is the default number of videos per page
	FeedDefaultLimit = 10

	// FeedMaxLimit is the maximum number of videos per page
	FeedMaxLimit = 50

	// CacheWarmLimit is max videos to fetch when warming cache
	CacheWarmLimit = cache.FeedCacheCap
)

type FeedService struct {
	feedCache        cache.FeedCache
	videoRepo        repository.VideoRepository
	subscriptionRepo repository.SubscriptionRepository
	likeRepo         repository.LikeRepository
}

func NewFeedService(
	feedCache cache.FeedCache,
	videoRepo repository.VideoRepository,
	subscriptionRepo repository.SubscriptionRepository,
	likeRepo repository.LikeRepository,
) *FeedService {
	return &FeedService{
		feedCache:        feedCache,
		videoRepo:        videoRepo,
		subscriptionRepo: subscriptionRepo,
		likeRepo:         likeRepo,
	}
}

// GetFeed returns the user's subscription feed with cursor-based pagination.
//
// Flow:
// 1. Check if cache exists for user
// 2. If no cache -> warm it from subscribed channels (up to CacheWarmLimit)
// 3. Get video IDs from cache (using cursor if provided)
// 4. Hydrate: fetch full video rows from DB
// 5. Build next cursor from the last cached entry
func (s *FeedService) GetFeed(ctx context.Context, userID uuid.UUID, cursor *string, limit int) (*model.FeedResponse, error) {
	log := logging.Component(ctx, "feed_service")
	startTime := time.Now()

	if limit <= 0 {
		limit = FeedDefaultLimit
	}
	if limit > FeedMaxLimit {
		limit = FeedMaxLimit
	}

	var after *cache.FeedCursor
	if cursor != nil && *cursor != "" {
		score, id, err := parseFeedCursor(*cursor)
		if err != nil {
			return nil, err
		}
		after = &cache.FeedCursor{Score: score, VideoID: id}
	}

	exists, err := s.feedCache.Exists(ctx, userID)
	if err != nil {
		log.Warn("cache check failed", "user_id", userID, "error", err)
	}
	if !exists {
		log.Debug("cache miss, warming", "user_id", userID)
		if err := s.warmCache(ctx, userID); err != nil {
			log.Warn("cache warm failed", "user_id", userID, "error", err)
		}
	}

	videoIDs, scores, err := s.feedCache.GetFeed(ctx, userID, after, limit)
	if err != nil {
		return nil, fmt.Errorf("get feed from cache: %w", err)
	}
	if len(videoIDs) == 0 {
		return &model.FeedResponse{Videos: []model.FeedVideo{}}, nil
	}

	videos, err := s.hydrate(ctx, userID, videoIDs)
	if err != nil {
		return nil, fmt.Errorf("hydrate videos: %w", err)
	}

	// A full page of cache entries means there may be more, even if some of
	// them were dropped during hydration.
	var nextCursor *string
	hasMore := len(videoIDs) == limit
	if hasMore {
		last := len(videoIDs) - 1
		c := formatFeedCursor(scores[last], videoIDs[last])
		nextCursor = &c
	}

	log.Debug("feed served", "user_id", userID, "videos", len(videos),
		"has_more", hasMore, "duration", time.Since(startTime))

	return &model.FeedResponse{
		Videos:     videos,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// warmCache populates the user's feed cache from the database.
func (s *FeedService) warmCache(ctx context.Context, userID uuid.UUID) error {
	channelIDs, err := s.subscriptionRepo.GetChannelIDs(ctx, userID)
	if err != nil {
		return fmt.Errorf("get channel ids: %w", err)
	}

	// Include the user's own uploads in their feed
	channelIDs = append(channelIDs, userID)

	videos, err := s.videoRepo.GetFeedVideoIDs(ctx, channelIDs, CacheWarmLimit)
	if err != nil {
		return fmt.Errorf("get feed video ids: %w", err)
	}
	if len(videos) == 0 {
		return nil
	}

	if err := s.feedCache.WarmCache(ctx, userID, videos); err != nil {
		return fmt.Errorf("warm cache: %w", err)
	}
	return nil
}

// hydrate loads cached ids in cache order, dropping videos that were deleted
// or unpublished since they were cached.
func (s *FeedService) hydrate(ctx context.Context, viewerID uuid.UUID, videoIDs []uuid.UUID) ([]model.FeedVideo, error) {
	videos, err := s.videoRepo.GetByIDs(ctx, videoIDs)
	if err != nil {
		return nil, err
	}

	liked, err := s.likeRepo.CheckLikes(ctx, model.LikeTargetVideo, viewerID, videoIDs)
	if err != nil {
		logging.Component(ctx, "feed_service").Warn("check likes failed", "error", err)
	}

	out := make([]model.FeedVideo, 0, len(videos))
	for _, v := range videos {
		if !v.IsPublished {
			continue
		}
		out = append(out, model.FeedVideo{Video: v, IsLiked: liked[v.ID]})
	}
	return out, nil
}

// parseFeedCursor parses an "id:timestamp" cursor into its score and video id.
func parseFeedCursor(cursor string) (float64, uuid.UUID, error) {
	idPart, scorePart, ok := strings.Cut(cursor, ":")
	if !ok {
		return 0, uuid.Nil, model.ErrInvalidCursor
	}

	id, err := uuid.Parse(idPart)
	if err != nil {
		return 0, uuid.Nil, model.ErrInvalidCursor
	}

	score, err := strconv.ParseFloat(scorePart, 64)
	if err != nil {
		return 0, uuid.Nil, model.ErrInvalidCursor
	}

	return score, id, nil
}

func formatFeedCursor(score float64, id uuid.UUID) string {
	return fmt.Sprintf("%s:%.0f", id, score)
}
