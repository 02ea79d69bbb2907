package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"streamify/internal/cache"
	"streamify/internal/model"
)

// TxRunner runs fn inside a transaction, retrying it on serialization failures.
// fn may run more than once and must not keep state between attempts.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHashed string) error
	UpdateAccount(ctx context.Context, id uuid.UUID, fullName, email string) (*model.User, error)
	UpdateAvatar(ctx context.Context, id uuid.UUID, url, key string) (*model.User, error)
	UpdateCoverImage(ctx context.Context, id uuid.UUID, url, key string) (*model.User, error)
	// LockForUpdate row-locks a user inside tx; returns ErrUserNotFound when absent.
	LockForUpdate(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error
	IncrementSubscribersCount(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, delta int) (int, error)
	IncrementSubscriptionsCount(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, delta int) error
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	Revoke(ctx context.Context, id uuid.UUID, replacedBy *uuid.UUID) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error
	DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error)
}

type VideoRepository interface {
	Create(ctx context.Context, video *model.Video) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Video, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Video, error)
	List(ctx context.Context, params model.VideoListParams) ([]model.Video, int, error)
	Update(ctx context.Context, id, ownerID uuid.UUID, req model.UpdateVideoRequest) error
	// Delete removes an owned video and returns the deleted row for object cleanup.
	Delete(ctx context.Context, id, ownerID uuid.UUID) (*model.Video, error)
	TogglePublish(ctx context.Context, id, ownerID uuid.UUID) (bool, error)
	IncrementViews(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	// Feed system
	GetRecentByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]cache.VideoScore, error)
	GetFeedVideoIDs(ctx context.Context, channelIDs []uuid.UUID, limit int) ([]cache.VideoScore, error)
}

type CommentRepository interface {
	Create(ctx context.Context, videoID, ownerID uuid.UUID, content string) (*model.Comment, error)
	GetByID(ctx context.Context, commentID uuid.UUID) (*model.Comment, error)
	Update(ctx context.Context, commentID, ownerID uuid.UUID, content string) (*model.Comment, error)
	Delete(ctx context.Context, commentID, ownerID uuid.UUID) error
	// ListByVideo returns one page of comments plus the total in a single statement.
	ListByVideo(ctx context.Context, videoID uuid.UUID, p model.Pagination) (*model.CommentPage, error)
}

type TweetRepository interface {
	Create(ctx context.Context, ownerID uuid.UUID, content string) (*model.Tweet, error)
	GetByID(ctx context.Context, tweetID uuid.UUID) (*model.Tweet, error)
	Update(ctx context.Context, tweetID, ownerID uuid.UUID, content string) (*model.Tweet, error)
	Delete(ctx context.Context, tweetID, ownerID uuid.UUID) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID, p model.Pagination) ([]model.Tweet, int, error)
}

type LikeRepository interface {
	// LockTarget row-locks the liked entity; returns the target's not-found error when absent.
	LockTarget(ctx context.Context, tx *sqlx.Tx, target model.LikeTarget, targetID uuid.UUID) error
	Create(ctx context.Context, tx *sqlx.Tx, target model.LikeTarget, userID, targetID uuid.UUID) error
	Delete(ctx context.Context, tx *sqlx.Tx, target model.LikeTarget, userID, targetID uuid.UUID) (bool, error)
	IncrementLikesCount(ctx context.Context, tx *sqlx.Tx, target model.LikeTarget, targetID uuid.UUID, delta int) (int, error)
	Exists(ctx context.Context, target model.LikeTarget, userID, targetID uuid.UUID) (bool, error)
	CheckLikes(ctx context.Context, target model.LikeTarget, userID uuid.UUID, targetIDs []uuid.UUID) (map[uuid.UUID]bool, error)
	ListLikedVideos(ctx context.Context, userID uuid.UUID, p model.Pagination) ([]model.Video, int, error)
}

type SubscriptionRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, subscriberID, channelID uuid.UUID) error
	Delete(ctx context.Context, tx *sqlx.Tx, subscriberID, channelID uuid.UUID) (bool, error)
	Exists(ctx context.Context, subscriberID, channelID uuid.UUID) (bool, error)
	ListSubscribers(ctx context.Context, channelID uuid.UUID, p model.Pagination) ([]model.ChannelUser, int, error)
	ListSubscribedChannels(ctx context.Context, subscriberID uuid.UUID, p model.Pagination) ([]model.ChannelUser, int, error)
	// Feed system
	GetSubscriberIDs(ctx context.Context, channelID uuid.UUID) ([]uuid.UUID, error)
	GetChannelIDs(ctx context.Context, subscriberID uuid.UUID) ([]uuid.UUID, error)
}

type PlaylistRepository interface {
	Create(ctx context.Context, playlist *model.Playlist) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Playlist, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Playlist, error)
	Update(ctx context.Context, id, ownerID uuid.UUID, req model.PlaylistRequest) (*model.Playlist, error)
	Delete(ctx context.Context, id, ownerID uuid.UUID) error
	// GetOwnerForUpdate row-locks the playlist inside tx and returns its owner.
	GetOwnerForUpdate(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (uuid.UUID, error)
	AddVideo(ctx context.Context, tx *sqlx.Tx, playlistID, videoID uuid.UUID) (bool, error)
	RemoveVideo(ctx context.Context, tx *sqlx.Tx, playlistID, videoID uuid.UUID) (bool, error)
}

type WatchHistoryRepository interface {
	Record(ctx context.Context, userID, videoID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID, p model.Pagination) ([]model.Video, int, error)
}
