package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"streamify/internal/logging"
)

const (
	// FeedCachePrefix is the key prefix for subscription feed caches
	FeedCachePrefix = "feed:user:"

	// FeedCacheCap is the maximum number of videos cached per user
	FeedCacheCap = 500

	// FeedCacheTTL is the TTL for a feed cache (7 days)
	FeedCacheTTL = 7 * 24 * time.Hour
)

// VideoScore is a video with its publish timestamp, used as the sorted-set score.
type VideoScore struct {
	VideoID   uuid.UUID
	Timestamp int64 // Unix timestamp
}

// FeedCursor is the last entry a client was served. Entries sharing its score
// are ordered by video id, descending, the way Redis orders equal scores.
type FeedCursor struct {
	Score   float64
	VideoID uuid.UUID
}

// FeedCache stores each user's subscription feed as a sorted set of video ids
// scored by publish time.
type FeedCache interface {
	// AddIfCached adds videos to a user's feed only when the feed is already
	// cached, reporting whether it was. A missing feed is left for the read
	// path to warm from the database, so a partial set never passes for a
	// complete one.
	// Script: EXISTS + ZADD + ZREMRANGEBYRANK (maintain cap) + EXPIRE (refresh TTL)
	AddIfCached(ctx context.Context, userID uuid.UUID, videos []VideoScore) (bool, error)

	RemoveVideo(ctx context.Context, userID, videoID uuid.UUID) error

	// RemoveVideos drops several videos at once, used when a channel is unsubscribed.
	RemoveVideos(ctx context.Context, userID uuid.UUID, videoIDs []uuid.UUID) error

	// GetFeed returns the newest video ids when cursor is nil, otherwise those
	// ordered after the cursor entry.
	GetFeed(ctx context.Context, userID uuid.UUID, cursor *FeedCursor, limit int) (videoIDs []uuid.UUID, scores []float64, err error)

	// GetScore returns (score, found, error); found=false if the video is not cached.
	GetScore(ctx context.Context, userID, videoID uuid.UUID) (score int64, found bool, err error)

	WarmCache(ctx context.Context, userID uuid.UUID, videos []VideoScore) error

	Size(ctx context.Context, userID uuid.UUID) (int64, error)

	// Exists returns false for new users or an expired TTL; callers warm the cache then.
	Exists(ctx context.Context, userID uuid.UUID) (bool, error)
}

// RedisFeedCache implements FeedCache using Redis Sorted Sets.
type RedisFeedCache struct {
	client *redis.Client
}

func NewFeedCache(client *redis.Client) FeedCache {
	return &RedisFeedCache{client: client}
}

func feedKey(userID uuid.UUID) string {
	return FeedCachePrefix + userID.String()
}

func logger(ctx context.Context) *slog.Logger {
	return logging.Component(ctx, "feed_cache")
}

// addIfCachedScript runs the existence check and the write atomically, so a
// key expiring between the two cannot be recreated with a partial feed.
// ARGV: cap, ttl seconds, then score/member pairs.
var addIfCachedScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('ZADD', KEYS[1], unpack(ARGV, 3))
redis.call('ZREMRANGEBYRANK', KEYS[1], 0, -tonumber(ARGV[1]) - 1)
redis.call('EXPIRE', KEYS[1], ARGV[2])
return 1
`)

func (c *RedisFeedCache) AddIfCached(ctx context.Context, userID uuid.UUID, videos []VideoScore) (bool, error) {
	if len(videos) == 0 {
		return false, nil
	}
	key := feedKey(userID)
	startTime := time.Now()

	args := make([]interface{}, 0, 2+2*len(videos))
	args = append(args, FeedCacheCap, int64(FeedCacheTTL/time.Second))
	for _, v := range videos {
		args = append(args, v.Timestamp, v.VideoID.String())
	}

	added, err := addIfCachedScript.Run(ctx, c.client, []string{key}, args...).Int()
	if err != nil {
		logger(ctx).Error("add videos failed", "user_id", userID, "videos", len(videos), "error", err)
		return false, fmt.Errorf("add videos to feed: %w", err)
	}

	logger(ctx).Debug("add videos",
		"user_id", userID, "videos", len(videos), "cached", added == 1, "duration", time.Since(startTime))
	return added == 1, nil
}

func (c *RedisFeedCache) RemoveVideo(ctx context.Context, userID, videoID uuid.UUID) error {
	return c.RemoveVideos(ctx, userID, []uuid.UUID{videoID})
}

func (c *RedisFeedCache) RemoveVideos(ctx context.Context, userID uuid.UUID, videoIDs []uuid.UUID) error {
	if len(videoIDs) == 0 {
		return nil
	}
	key := feedKey(userID)
	members := make([]interface{}, len(videoIDs))
	for i, id := range videoIDs {
		members[i] = id.String()
	}

	removed, err := c.client.ZRem(ctx, key, members...).Result()
	if err != nil {
		logger(ctx).Error("remove videos failed", "user_id", userID, "count", len(videoIDs), "error", err)
		return fmt.Errorf("remove videos from feed: %w", err)
	}

	logger(ctx).Debug("remove videos", "user_id", userID, "requested", len(videoIDs), "removed", removed)
	return nil
}

func (c *RedisFeedCache) GetFeed(ctx context.Context, userID uuid.UUID, cursor *FeedCursor, limit int) ([]uuid.UUID, []float64, error) {
	key := feedKey(userID)
	startTime := time.Now()

	var (
		results []redis.Z
		err     error
	)
	if cursor == nil {
		results, err = c.client.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	} else {
		results, err = c.pageAfter(ctx, key, *cursor, limit)
	}
	if err != nil {
		logger(ctx).Error("get feed failed", "user_id", userID, "error", err)
		return nil, nil, fmt.Errorf("get feed: %w", err)
	}

	// Refresh TTL on access
	c.client.Expire(ctx, key, FeedCacheTTL)

	videoIDs := make([]uuid.UUID, len(results))
	scores := make([]float64, len(results))
	for i, z := range results {
		member, _ := z.Member.(string)
		id, err := uuid.Parse(member)
		if err != nil {
			logger(ctx).Error("get feed parse error", "member", z.Member, "error", err)
			return nil, nil, fmt.Errorf("parse video id: %w", err)
		}
		videoIDs[i] = id
		scores[i] = z.Score
	}

	logger(ctx).Debug("get feed",
		"user_id", userID, "cursor", cursor != nil, "returned", len(videoIDs), "duration", time.Since(startTime))
	return videoIDs, scores, nil
}

// pageAfter reads the entries after cursor: the remaining members that share
// its score, then strictly older scores.
func (c *RedisFeedCache) pageAfter(ctx context.Context, key string, cursor FeedCursor, limit int) ([]redis.Z, error) {
	score := strconv.FormatFloat(cursor.Score, 'f', -1, 64)
	after := cursor.VideoID.String()

	// Equal scores come back in descending member order.
	ties, err := c.client.ZRevRangeByScoreWithScores(ctx, key, &redis.ZRangeBy{
		Min: score,
		Max: score,
	}).Result()
	if err != nil {
		return nil, err
	}

	results := make([]redis.Z, 0, limit)
	for _, z := range ties {
		if len(results) == limit {
			return results, nil
		}
		if member, _ := z.Member.(string); member < after {
			results = append(results, z)
		}
	}
	if len(results) == limit {
		return results, nil
	}

	// "(" makes the max bound exclusive
	older, err := c.client.ZRevRangeByScoreWithScores(ctx, key, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   "(" + score,
		Count: int64(limit - len(results)),
	}).Result()
	if err != nil {
		return nil, err
	}
	return append(results, older...), nil
}

func (c *RedisFeedCache) GetScore(ctx context.Context, userID, videoID uuid.UUID) (int64, bool, error) {
	score, err := c.client.ZScore(ctx, feedKey(userID), videoID.String()).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		logger(ctx).Error("get score failed", "user_id", userID, "video_id", videoID, "error", err)
		return 0, false, fmt.Errorf("get score: %w", err)
	}
	return int64(score), true, nil
}

// WarmCache bulk-inserts videos into a user's feed using one pipeline.
func (c *RedisFeedCache) WarmCache(ctx context.Context, userID uuid.UUID, videos []VideoScore) error {
	if len(videos) == 0 {
		return nil
	}

	key := feedKey(userID)
	startTime := time.Now()

	members := make([]redis.Z, len(videos))
	for i, v := range videos {
		members[i] = redis.Z{
			Score:  float64(v.Timestamp),
			Member: v.VideoID.String(),
		}
	}

	pipe := c.client.Pipeline()
	pipe.ZAdd(ctx, key, members...)
	pipe.ZRemRangeByRank(ctx, key, 0, int64(-FeedCacheCap-1))
	pipe.Expire(ctx, key, FeedCacheTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		logger(ctx).Error("warm cache failed", "user_id", userID, "videos", len(videos), "error", err)
		return fmt.Errorf("warm cache: %w", err)
	}

	logger(ctx).Info("warm cache", "user_id", userID, "videos", len(videos), "duration", time.Since(startTime))
	return nil
}

func (c *RedisFeedCache) Size(ctx context.Context, userID uuid.UUID) (int64, error) {
	size, err := c.client.ZCard(ctx, feedKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("get cache size: %w", err)
	}
	return size, nil
}

func (c *RedisFeedCache) Exists(ctx context.Context, userID uuid.UUID) (bool, error) {
	exists, err := c.client.Exists(ctx, feedKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("check cache exists: %w", err)
	}
	return exists > 0, nil
}
