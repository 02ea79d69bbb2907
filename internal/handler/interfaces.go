package handler

import (
	"context"
	"io"
	"mime/multipart"

	"github.com/google/uuid"

	"streamify/internal/model"
)

// The handlers depend on these narrow views of the services so they can be
// exercised with fakes in tests.

type UserService interface {
	ValidateRegistration(ctx context.Context, req *model.RegisterRequest) error
	Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, req *model.ChangePasswordRequest) error
	UpdateAccount(ctx context.Context, userID uuid.UUID, req *model.UpdateAccountRequest) (*model.User, error)
	UpdateAvatar(ctx context.Context, userID uuid.UUID, upload *model.UploadResult) (*model.User, *string, error)
	UpdateCoverImage(ctx context.Context, userID uuid.UUID, upload *model.UploadResult) (*model.User, *string, error)
	GetChannelProfile(ctx context.Context, username string, viewerID *uuid.UUID) (*model.ChannelProfile, error)
	GetChannelProfileByID(ctx context.Context, channelID uuid.UUID, viewerID *uuid.UUID) (*model.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID uuid.UUID, p model.Pagination) (*model.WatchHistoryPage, error)
}

type AuthService interface {
	GenerateTokenPair(ctx context.Context, userID uuid.UUID, deviceInfo, ipAddress string) (*model.TokenPair, error)
	RefreshTokens(ctx context.Context, refreshToken, deviceInfo, ipAddress string) (*model.TokenPair, uuid.UUID, error)
	RevokeRefreshToken(ctx context.Context, refreshToken string) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
}

type MediaService interface {
	UploadAvatar(ctx context.Context, file io.Reader, header *multipart.FileHeader) (*model.UploadResult, error)
	UploadCoverImage(ctx context.Context, file io.Reader, header *multipart.FileHeader) (*model.UploadResult, error)
	UploadThumbnail(ctx context.Context, file io.Reader, header *multipart.FileHeader) (*model.UploadResult, error)
	UploadVideo(ctx context.Context, file io.ReadSeeker, header *multipart.FileHeader) (*model.UploadResult, error)
	DeleteObjects(ctx context.Context, keys ...string)
}

type VideoService interface {
	Publish(ctx context.Context, ownerID uuid.UUID, req *model.CreateVideoRequest) (*model.Video, error)
	List(ctx context.Context, params model.VideoListParams, viewerID *uuid.UUID) (*model.VideoPage, error)
	GetDetails(ctx context.Context, videoID uuid.UUID, viewerID *uuid.UUID) (*model.VideoDetails, error)
	GetOwned(ctx context.Context, videoID, ownerID uuid.UUID) (*model.Video, error)
	Update(ctx context.Context, videoID, ownerID uuid.UUID, req *model.UpdateVideoRequest) (*model.Video, string, error)
	Delete(ctx context.Context, videoID, ownerID uuid.UUID) (*model.Video, error)
	TogglePublish(ctx context.Context, videoID, ownerID uuid.UUID) (*model.Video, error)
}

type CommentService interface {
	List(ctx context.Context, videoID uuid.UUID, p model.Pagination) (*model.CommentPage, error)
	Add(ctx context.Context, videoID, userID uuid.UUID, content string) (*model.Comment, error)
	Update(ctx context.Context, commentID, userID uuid.UUID, content string) (*model.Comment, error)
	Delete(ctx context.Context, commentID, userID uuid.UUID) error
}

type TweetService interface {
	Create(ctx context.Context, ownerID uuid.UUID, content string) (*model.Tweet, error)
	ListByUser(ctx context.Context, userID uuid.UUID, p model.Pagination, viewerID *uuid.UUID) (*model.TweetPage, error)
	Update(ctx context.Context, tweetID, ownerID uuid.UUID, content string) (*model.Tweet, error)
	Delete(ctx context.Context, tweetID, ownerID uuid.UUID) error
}

type LikeService interface {
	Toggle(ctx context.Context, target model.LikeTarget, userID, targetID uuid.UUID) (*model.LikeToggleResult, error)
	LikedVideos(ctx context.Context, userID uuid.UUID, p model.Pagination) (*model.VideoPage, error)
}

type SubscriptionService interface {
	Toggle(ctx context.Context, subscriberID, channelID uuid.UUID) (*model.SubscriptionToggleResult, error)
	ListSubscribers(ctx context.Context, channelID uuid.UUID, p model.Pagination) (*model.SubscriberPage, error)
	ListSubscribedChannels(ctx context.Context, subscriberID uuid.UUID, p model.Pagination) (*model.SubscribedChannelPage, error)
}

type PlaylistService interface {
	Create(ctx context.Context, ownerID uuid.UUID, req model.PlaylistRequest) (*model.Playlist, error)
	GetDetails(ctx context.Context, playlistID uuid.UUID, viewerID *uuid.UUID) (*model.PlaylistDetails, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Playlist, error)
	Update(ctx context.Context, playlistID, ownerID uuid.UUID, req model.PlaylistRequest) (*model.Playlist, error)
	Delete(ctx context.Context, playlistID, ownerID uuid.UUID) error
	AddVideo(ctx context.Context, playlistID, videoID, userID uuid.UUID) (*model.Playlist, error)
	RemoveVideo(ctx context.Context, playlistID, videoID, userID uuid.UUID) (*model.Playlist, error)
}

type FeedService interface {
	GetFeed(ctx context.Context, userID uuid.UUID, cursor *string, limit int) (*model.FeedResponse, error)
}
