package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"streamify/internal/model"
	"streamify/internal/repository"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	videoRepo   repository.VideoRepository
}

func NewCommentService(commentRepo repository.CommentRepository, videoRepo repository.VideoRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		videoRepo:   videoRepo,
	}
}

// List returns one page of a video's comments, newest first.
func (s *CommentService) List(ctx context.Context, videoID uuid.UUID, p model.Pagination) (*model.CommentPage, error) {
	exists, err := s.videoRepo.Exists(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("check video exists: %w", err)
	}
	if !exists {
		return nil, model.ErrVideoNotFound
	}
	return s.commentRepo.ListByVideo(ctx, videoID, p.Normalize())
}

// Add creates a comment on a video.
func (s *CommentService) Add(ctx context.Context, videoID, userID uuid.UUID, content string) (*model.Comment, error) {
	content, err := validateContent(content, model.MaxCommentLength)
	if err != nil {
		return nil, err
	}

	exists, err := s.videoRepo.Exists(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("check video exists: %w", err)
	}
	if !exists {
		return nil, model.ErrVideoNotFound
	}

	return s.commentRepo.Create(ctx, videoID, userID, content)
}

// Update replaces the content of a comment owned by userID.
func (s *CommentService) Update(ctx context.Context, commentID, userID uuid.UUID, content string) (*model.Comment, error) {
	content, err := validateContent(content, model.MaxCommentLength)
	if err != nil {
		return nil, err
	}
	return s.commentRepo.Update(ctx, commentID, userID, content)
}

// Delete removes a comment owned by userID.
func (s *CommentService) Delete(ctx context.Context, commentID, userID uuid.UUID) error {
	return s.commentRepo.Delete(ctx, commentID, userID)
}

// validateContent trims text and enforces the required / max-length rules
// shared by comments and tweets.
func validateContent(content string, maxLen int) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", model.ErrContentRequired
	}
	if utf8.RuneCountInString(content) > maxLen {
		return "", model.ErrContentTooLong
	}
	return content, nil
}
