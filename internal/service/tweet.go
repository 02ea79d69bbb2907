package service

import (
	"context"

	"github.com/google/uuid"

	"streamify/internal/logging"
	"streamify/internal/model"
	"streamify/internal/repository"
)

type TweetService struct {
	tweetRepo repository.TweetRepository
	userRepo  repository.UserRepository
	likeRepo  repository.LikeRepository
}

func NewTweetService(tweetRepo repository.TweetRepository, userRepo repository.UserRepository, likeRepo repository.LikeRepository) *TweetService {
	return &TweetService{
		tweetRepo: tweetRepo,
		userRepo:  userRepo,
		likeRepo:  likeRepo,
	}
}

func (s *TweetService) Create(ctx context.Context, ownerID uuid.UUID, content string) (*model.Tweet, error) {
	content, err := validateContent(content, model.MaxTweetLength)
	if err != nil {
		return nil, err
	}
	return s.tweetRepo.Create(ctx, ownerID, content)
}

// ListByUser returns a user's tweets, newest first. isLiked is filled for a
// signed-in viewer.
func (s *TweetService) ListByUser(ctx context.Context, userID uuid.UUID, p model.Pagination, viewerID *uuid.UUID) (*model.TweetPage, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	p = p.Normalize()
	tweets, total, err := s.tweetRepo.ListByOwner(ctx, userID, p)
	if err != nil {
		return nil, err
	}

	if viewerID != nil && len(tweets) > 0 {
		ids := make([]uuid.UUID, len(tweets))
		for i := range tweets {
			ids[i] = tweets[i].ID
		}
		liked, err := s.likeRepo.CheckLikes(ctx, model.LikeTargetTweet, *viewerID, ids)
		if err != nil {
			logging.Component(ctx, "tweet_service").Warn("check tweet likes failed", "error", err)
		}
		for i := range tweets {
			tweets[i].IsLiked = liked[tweets[i].ID]
		}
	}

	return &model.TweetPage{Tweets: tweets, PageMeta: model.NewPageMeta(p, total)}, nil
}

func (s *TweetService) Update(ctx context.Context, tweetID, ownerID uuid.UUID, content string) (*model.Tweet, error) {
	content, err := validateContent(content, model.MaxTweetLength)
	if err != nil {
		return nil, err
	}
	return s.tweetRepo.Update(ctx, tweetID, ownerID, content)
}

func (s *TweetService) Delete(ctx context.Context, tweetID, ownerID uuid.UUID) error {
	return s.tweetRepo.Delete(ctx, tweetID, ownerID)
}
