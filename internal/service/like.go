package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"streamify/internal/logging"
	"streamify/internal/model"
	"streamify/internal/repository"
)

type LikeService struct {
	likeRepo repository.LikeRepository
	tx       repository.TxRunner
}

func NewLikeService(likeRepo repository.LikeRepository, tx repository.TxRunner) *LikeService {
	return &LikeService{
		likeRepo: likeRepo,
		tx:       tx,
	}
}

// Toggle likes the target if userID has not liked it yet, and unlikes it
// otherwise. The like edge and the target's likes_count change in one
// transaction under a row lock on the target, so concurrent toggles by
// different users never lose an update.
func (s *LikeService) Toggle(ctx context.Context, target model.LikeTarget, userID, targetID uuid.UUID) (*model.LikeToggleResult, error) {
	if !target.Valid() {
		return nil, model.ErrInvalidLikeTarget
	}

	var result model.LikeToggleResult
	err := s.tx.RunInTx(ctx, func(tx *sqlx.Tx) error {
		result = model.LikeToggleResult{}

		if err := s.likeRepo.LockTarget(ctx, tx, target, targetID); err != nil {
			return err
		}

		removed, err := s.likeRepo.Delete(ctx, tx, target, userID, targetID)
		if err != nil {
			return err
		}

		delta := 1
		if removed {
			delta = -1
		} else if err := s.likeRepo.Create(ctx, tx, target, userID, targetID); err != nil {
			return err
		}

		count, err := s.likeRepo.IncrementLikesCount(ctx, tx, target, targetID, delta)
		if err != nil {
			return err
		}
		result.IsLiked = !removed
		result.LikesCount = count
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Component(ctx, "like_service").Debug("like toggled",
		"target", target, "target_id", targetID, "user_id", userID, "liked", result.IsLiked)
	return &result, nil
}

// LikedVideos lists the videos userID liked, most recently liked first.
func (s *LikeService) LikedVideos(ctx context.Context, userID uuid.UUID, p model.Pagination) (*model.VideoPage, error) {
	p = p.Normalize()
	videos, total, err := s.likeRepo.ListLikedVideos(ctx, userID, p)
	if err != nil {
		return nil, err
	}
	return &model.VideoPage{Videos: videos, PageMeta: model.NewPageMeta(p, total)}, nil
}
