package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"streamify/internal/model"
	"streamify/internal/repository"
)

type PlaylistService struct {
	playlistRepo repository.PlaylistRepository
	videoRepo    repository.VideoRepository
	userRepo     repository.UserRepository
	tx           repository.TxRunner
}

func NewPlaylistService(
	playlistRepo repository.PlaylistRepository,
	videoRepo repository.VideoRepository,
	userRepo repository.UserRepository,
	tx repository.TxRunner,
) *PlaylistService {
	return &PlaylistService{
		playlistRepo: playlistRepo,
		videoRepo:    videoRepo,
		userRepo:     userRepo,
		tx:           tx,
	}
}

func validatePlaylist(req *model.PlaylistRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" {
		return model.ErrPlaylistNameMissing
	}
	if utf8.RuneCountInString(req.Name) > model.MaxPlaylistNameLength {
		return model.ErrPlaylistNameTooLong
	}
	if utf8.RuneCountInString(req.Description) > model.MaxVideoDescriptionLength {
		return model.ErrDescriptionTooLong
	}
	return nil
}

func (s *PlaylistService) Create(ctx context.Context, ownerID uuid.UUID, req model.PlaylistRequest) (*model.Playlist, error) {
	if err := validatePlaylist(&req); err != nil {
		return nil, err
	}
	playlist := &model.Playlist{
		OwnerID:     ownerID,
		Name:        req.Name,
		Description: req.Description,
	}
	if err := s.playlistRepo.Create(ctx, playlist); err != nil {
		return nil, err
	}
	return playlist, nil
}

// GetDetails returns a playlist with its videos hydrated in playlist order.
// Unpublished videos are hidden from everyone but their owner.
func (s *PlaylistService) GetDetails(ctx context.Context, playlistID uuid.UUID, viewerID *uuid.UUID) (*model.PlaylistDetails, error) {
	playlist, err := s.playlistRepo.GetByID(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	hydrated, err := s.videoRepo.GetByIDs(ctx, playlist.Videos)
	if err != nil {
		return nil, err
	}

	details := &model.PlaylistDetails{Playlist: playlist, Videos: make([]model.Video, 0, len(hydrated))}
	for _, v := range hydrated {
		if !v.IsPublished && (viewerID == nil || *viewerID != v.OwnerID) {
			continue
		}
		details.Videos = append(details.Videos, v)
		details.TotalViews += v.Views
	}
	details.TotalVideos = len(details.Videos)

	if owner, err := s.userRepo.GetByID(ctx, playlist.OwnerID); err == nil {
		details.Owner = owner.Summary()
	}
	return details, nil
}

func (s *PlaylistService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Playlist, error) {
	if _, err := s.userRepo.GetByID(ctx, ownerID); err != nil {
		return nil, err
	}
	return s.playlistRepo.ListByOwner(ctx, ownerID)
}

func (s *PlaylistService) Update(ctx context.Context, playlistID, ownerID uuid.UUID, req model.PlaylistRequest) (*model.Playlist, error) {
	if err := validatePlaylist(&req); err != nil {
		return nil, err
	}
	return s.playlistRepo.Update(ctx, playlistID, ownerID, req)
}

func (s *PlaylistService) Delete(ctx context.Context, playlistID, ownerID uuid.UUID) error {
	return s.playlistRepo.Delete(ctx, playlistID, ownerID)
}

// AddVideo appends a video to an owned playlist. Adding a video that is
// already present leaves the playlist unchanged.
func (s *PlaylistService) AddVideo(ctx context.Context, playlistID, videoID, userID uuid.UUID) (*model.Playlist, error) {
	err := s.tx.RunInTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.lockOwned(ctx, tx, playlistID, userID); err != nil {
			return err
		}

		exists, err := s.videoRepo.Exists(ctx, videoID)
		if err != nil {
			return err
		}
		if !exists {
			return model.ErrVideoNotFound
		}

		_, err = s.playlistRepo.AddVideo(ctx, tx, playlistID, videoID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.playlistRepo.GetByID(ctx, playlistID)
}

// RemoveVideo drops a video from an owned playlist, keeping the order of the
// rest. Removing a video that is not in the playlist is a no-op.
func (s *PlaylistService) RemoveVideo(ctx context.Context, playlistID, videoID, userID uuid.UUID) (*model.Playlist, error) {
	err := s.tx.RunInTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.lockOwned(ctx, tx, playlistID, userID); err != nil {
			return err
		}
		_, err := s.playlistRepo.RemoveVideo(ctx, tx, playlistID, videoID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.playlistRepo.GetByID(ctx, playlistID)
}

func (s *PlaylistService) lockOwned(ctx context.Context, tx *sqlx.Tx, playlistID, userID uuid.UUID) error {
	ownerID, err := s.playlistRepo.GetOwnerForUpdate(ctx, tx, playlistID)
	if err != nil {
		return err
	}
	if ownerID != userID {
		return model.ErrNotPlaylistOwner
	}
	return nil
}
