package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"streamify/internal/logging"
	"streamify/internal/model"
	"streamify/internal/repository"
)

// UserService handles business logic for user operations
type UserService struct {
	repo             repository.UserRepository
	subscriptionRepo repository.SubscriptionRepository
	historyRepo      repository.WatchHistoryRepository
}

func NewUserService(
	repo repository.UserRepository,
	subscriptionRepo repository.SubscriptionRepository,
	historyRepo repository.WatchHistoryRepository,
) *UserService {
	return &UserService{
		repo:             repo,
		subscriptionRepo: subscriptionRepo,
		historyRepo:      historyRepo,
	}
}

// ValidateRegistration normalizes req in place and checks it can be registered.
// The handler calls it before uploading the avatar so a rejected signup
// leaves nothing behind in the bucket.
func (s *UserService) ValidateRegistration(ctx context.Context, req *model.RegisterRequest) error {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))

	if req.FullName == "" || req.Email == "" || req.Username == "" || strings.TrimSpace(req.Password) == "" {
		return model.ErrFieldsRequired
	}
	if len(req.Password) < model.MinPasswordLength {
		return model.ErrPasswordTooShort
	}

	exists, err := s.repo.ExistsByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		return fmt.Errorf("failed to check user existence: %w", err)
	}
	if exists {
		return model.ErrUserExists
	}
	return nil
}

// Register creates a new account. The avatar must already be uploaded.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	if err := s.ValidateRegistration(ctx, req); err != nil {
		return nil, err
	}
	if req.AvatarURL == "" {
		return nil, model.ErrAvatarRequired
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	avatarKey := req.AvatarKey
	user := &model.User{
		Username:       req.Username,
		Email:          req.Email,
		FullName:       req.FullName,
		Avatar:         req.AvatarURL,
		AvatarKey:      &avatarKey,
		CoverImage:     req.CoverImageURL,
		CoverImageKey:  req.CoverImageKey,
		PasswordHashed: string(hashedPassword),
	}

	// Create maps a unique violation to ErrUserExists for a lost race.
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	logging.Component(ctx, "user_service").Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Login authenticates by email or username.
func (s *UserService) Login(ctx context.Context, req *model.LoginRequest) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if (email == "" && username == "") || req.Password == "" {
		return nil, model.ErrFieldsRequired
	}

	var (
		user *model.User
		err  error
	)
	if email != "" {
		user, err = s.repo.GetByEmail(ctx, email)
	} else {
		user, err = s.repo.GetByUsername(ctx, username)
	}
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			// Don't reveal whether the account exists
			return nil, model.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.Password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) ChangePassword(ctx context.Context, userID uuid.UUID, req *model.ChangePasswordRequest) error {
	if req.OldPassword == "" || req.NewPassword == "" {
		return model.ErrFieldsRequired
	}
	if len(req.NewPassword) < model.MinPasswordLength {
		return model.ErrPasswordTooShort
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.OldPassword)); err != nil {
		return model.ErrInvalidPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.repo.UpdatePassword(ctx, userID, string(hashed))
}

func (s *UserService) UpdateAccount(ctx context.Context, userID uuid.UUID, req *model.UpdateAccountRequest) (*model.User, error) {
	fullName := strings.TrimSpace(req.FullName)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if fullName == "" || email == "" {
		return nil, model.ErrFieldsRequired
	}
	return s.repo.UpdateAccount(ctx, userID, fullName, email)
}

// UpdateAvatar points the user at a freshly uploaded avatar and returns the
// key of the replaced object so the caller can delete it.
func (s *UserService) UpdateAvatar(ctx context.Context, userID uuid.UUID, upload *model.UploadResult) (*model.User, *string, error) {
	current, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.repo.UpdateAvatar(ctx, userID, upload.URL, upload.Key)
	if err != nil {
		return nil, nil, err
	}
	return user, current.AvatarKey, nil
}

// UpdateCoverImage works like UpdateAvatar for the channel banner.
func (s *UserService) UpdateCoverImage(ctx context.Context, userID uuid.UUID, upload *model.UploadResult) (*model.User, *string, error) {
	current, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.repo.UpdateCoverImage(ctx, userID, upload.URL, upload.Key)
	if err != nil {
		return nil, nil, err
	}
	return user, current.CoverImageKey, nil
}

// GetChannelProfile loads a channel by username as seen by viewerID (nil = anonymous).
func (s *UserService) GetChannelProfile(ctx context.Context, username string, viewerID *uuid.UUID) (*model.ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, model.ErrFieldsRequired
	}
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.channelProfile(ctx, user, viewerID), nil
}

func (s *UserService) GetChannelProfileByID(ctx context.Context, channelID uuid.UUID, viewerID *uuid.UUID) (*model.ChannelProfile, error) {
	user, err := s.repo.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	return s.channelProfile(ctx, user, viewerID), nil
}

// channelProfile degrades to isSubscribed=false when the lookup fails.
func (s *UserService) channelProfile(ctx context.Context, user *model.User, viewerID *uuid.UUID) *model.ChannelProfile {
	profile := &model.ChannelProfile{User: user}
	if viewerID != nil && *viewerID != user.ID {
		subscribed, err := s.subscriptionRepo.Exists(ctx, *viewerID, user.ID)
		if err != nil {
			logging.Component(ctx, "user_service").Warn("check subscription failed", "channel_id", user.ID, "error", err)
		}
		profile.IsSubscribed = subscribed
	}
	return profile
}

// WatchHistory returns the user's watched videos, most recent first.
func (s *UserService) WatchHistory(ctx context.Context, userID uuid.UUID, p model.Pagination) (*model.WatchHistoryPage, error) {
	p = p.Normalize()
	videos, total, err := s.historyRepo.List(ctx, userID, p)
	if err != nil {
		return nil, err
	}
	return &model.WatchHistoryPage{Videos: videos, PageMeta: model.NewPageMeta(p, total)}, nil
}
