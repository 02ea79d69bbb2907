package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"streamify/internal/logging"
	"streamify/internal/model"
	"streamify/internal/queue"
	"streamify/internal/repository"
)

type VideoService struct {
	videoRepo        repository.VideoRepository
	userRepo         repository.UserRepository
	likeRepo         repository.LikeRepository
	subscriptionRepo repository.SubscriptionRepository
	historyRepo      repository.WatchHistoryRepository
	publisher        queue.Publisher
}

func NewVideoService(
	videoRepo repository.VideoRepository,
	userRepo repository.UserRepository,
	likeRepo repository.LikeRepository,
	subscriptionRepo repository.SubscriptionRepository,
	historyRepo repository.WatchHistoryRepository,
	publisher queue.Publisher,
) *VideoService {
	return &VideoService{
		videoRepo:        videoRepo,
		userRepo:         userRepo,
		likeRepo:         likeRepo,
		subscriptionRepo: subscriptionRepo,
		historyRepo:      historyRepo,
		publisher:        publisher,
	}
}

// ValidateCreate checks the metadata of a new video before any file is uploaded.
func ValidateCreate(req *model.CreateVideoRequest) error {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if req.Title == "" {
		return model.ErrTitleRequired
	}
	if utf8.RuneCountInString(req.Title) > model.MaxVideoTitleLength {
		return model.ErrTitleTooLong
	}
	if utf8.RuneCountInString(req.Description) > model.MaxVideoDescriptionLength {
		return model.ErrDescriptionTooLong
	}
	return nil
}

// Publish stores an uploaded video and fans it out to subscribers' feeds.
func (s *VideoService) Publish(ctx context.Context, ownerID uuid.UUID, req *model.CreateVideoRequest) (*model.Video, error) {
	if err := ValidateCreate(req); err != nil {
		return nil, err
	}
	if req.VideoURL == "" {
		return nil, model.ErrVideoFileRequired
	}
	if req.ThumbnailURL == "" {
		return nil, model.ErrThumbnailRequired
	}

	owner, err := s.userRepo.GetByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	video := &model.Video{
		OwnerID:      ownerID,
		Title:        req.Title,
		Description:  req.Description,
		VideoFile:    req.VideoURL,
		VideoKey:     req.VideoKey,
		Thumbnail:    req.ThumbnailURL,
		ThumbnailKey: req.ThumbnailKey,
		Duration:     req.Duration,
		IsPublished:  true,
	}
	if err := s.videoRepo.Create(ctx, video); err != nil {
		return nil, err
	}
	video.Owner = owner.Summary()

	s.publish(ctx, queue.NewVideoPublishedEvent(video.ID, ownerID, video.CreatedAt))
	return video, nil
}

// List returns published videos. A viewer listing their own channel also sees drafts.
func (s *VideoService) List(ctx context.Context, params model.VideoListParams, viewerID *uuid.UUID) (*model.VideoPage, error) {
	params.Pagination = params.Pagination.Normalize()
	params.IncludeUnpublished = params.OwnerID != nil && viewerID != nil && *params.OwnerID == *viewerID

	videos, total, err := s.videoRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}
	return &model.VideoPage{Videos: videos, PageMeta: model.NewPageMeta(params.Pagination, total)}, nil
}

// GetDetails loads a video for viewing: it counts the view, records watch
// history for signed-in viewers and fills the viewer-relative flags.
func (s *VideoService) GetDetails(ctx context.Context, videoID uuid.UUID, viewerID *uuid.UUID) (*model.VideoDetails, error) {
	log := logging.Component(ctx, "video_service")

	video, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	isOwner := viewerID != nil && *viewerID == video.OwnerID
	if !video.IsPublished && !isOwner {
		return nil, model.ErrVideoNotFound
	}

	if err := s.videoRepo.IncrementViews(ctx, videoID); err != nil {
		log.Warn("increment views failed", "video_id", videoID, "error", err)
	} else {
		video.Views++
	}

	details := &model.VideoDetails{Video: *video}
	if owner, err := s.userRepo.GetByID(ctx, video.OwnerID); err == nil {
		details.SubscribersCount = owner.SubscribersCount
	} else {
		log.Warn("load owner failed", "owner_id", video.OwnerID, "error", err)
	}

	if viewerID == nil {
		return details, nil
	}

	if err := s.historyRepo.Record(ctx, *viewerID, videoID); err != nil {
		log.Warn("record watch history failed", "video_id", videoID, "error", err)
	}
	if liked, err := s.likeRepo.Exists(ctx, model.LikeTargetVideo, *viewerID, videoID); err == nil {
		details.IsLiked = liked
	}
	if !isOwner {
		if subscribed, err := s.subscriptionRepo.Exists(ctx, *viewerID, video.OwnerID); err == nil {
			details.IsSubscribed = subscribed
		}
	}
	return details, nil
}

// GetOwned returns the video if ownerID owns it. Handlers call it before
// uploading a replacement thumbnail.
func (s *VideoService) GetOwned(ctx context.Context, videoID, ownerID uuid.UUID) (*model.Video, error) {
	video, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if video.OwnerID != ownerID {
		return nil, model.ErrNotVideoOwner
	}
	return video, nil
}

// Update changes title, description and thumbnail. It returns the updated
// video and the key of a replaced thumbnail, if any.
func (s *VideoService) Update(ctx context.Context, videoID, ownerID uuid.UUID, req *model.UpdateVideoRequest) (*model.Video, string, error) {
	if req.Title == nil && req.Description == nil && req.ThumbnailURL == nil {
		return nil, "", model.ErrNothingToUpdate
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, "", model.ErrTitleRequired
		}
		if utf8.RuneCountInString(title) > model.MaxVideoTitleLength {
			return nil, "", model.ErrTitleTooLong
		}
		req.Title = &title
	}
	if req.Description != nil {
		desc := strings.TrimSpace(*req.Description)
		if utf8.RuneCountInString(desc) > model.MaxVideoDescriptionLength {
			return nil, "", model.ErrDescriptionTooLong
		}
		req.Description = &desc
	}

	previous, err := s.GetOwned(ctx, videoID, ownerID)
	if err != nil {
		return nil, "", err
	}
	if err := s.videoRepo.Update(ctx, videoID, ownerID, *req); err != nil {
		return nil, "", err
	}

	video, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return nil, "", err
	}

	replaced := ""
	if req.ThumbnailURL != nil && previous.ThumbnailKey != video.ThumbnailKey {
		replaced = previous.ThumbnailKey
	}
	return video, replaced, nil
}

// Delete removes an owned video and returns it so the caller can drop its objects.
func (s *VideoService) Delete(ctx context.Context, videoID, ownerID uuid.UUID) (*model.Video, error) {
	video, err := s.videoRepo.Delete(ctx, videoID, ownerID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, queue.NewVideoRemovedEvent(videoID, ownerID))
	return video, nil
}

// TogglePublish flips isPublished and adds or pulls the video from feeds.
func (s *VideoService) TogglePublish(ctx context.Context, videoID, ownerID uuid.UUID) (*model.Video, error) {
	if _, err := s.videoRepo.TogglePublish(ctx, videoID, ownerID); err != nil {
		return nil, err
	}
	video, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}

	if video.IsPublished {
		s.publish(ctx, queue.NewVideoPublishedEvent(video.ID, ownerID, video.CreatedAt))
	} else {
		s.publish(ctx, queue.NewVideoRemovedEvent(video.ID, ownerID))
	}
	return video, nil
}

// publish emits a feed event after the write committed. Failures are logged:
// the feed cache is rebuilt from Postgres on the next warm.
func (s *VideoService) publish(ctx context.Context, event queue.FeedEvent) {
	if s.publisher == nil {
		return
	}
	if _, err := s.publisher.Publish(ctx, queue.StreamFeed, event); err != nil {
		logging.Component(ctx, "video_service").Error("publish feed event failed",
			"type", event.Type, "video_id", event.VideoID, "error", err)
	}
}
