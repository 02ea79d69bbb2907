package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"streamify/internal/config"
	"streamify/internal/logging"
	"streamify/internal/model"
	"streamify/internal/repository"
)

// AuthService issues JWT access tokens and rotating refresh tokens with reuse detection.
type AuthService struct {
	refreshTokenRepo repository.RefreshTokenRepository
	config           *config.Config
	now              func() time.Time
}

func NewAuthService(refreshTokenRepo repository.RefreshTokenRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		refreshTokenRepo: refreshTokenRepo,
		config:           cfg,
		now:              time.Now,
	}
}

// GenerateTokenPair issues a new access token and persists a refresh token.
func (s *AuthService) GenerateTokenPair(ctx context.Context, userID uuid.UUID, deviceInfo, ipAddress string) (*model.TokenPair, error) {
	pair, _, err := s.generateTokenPair(ctx, userID, deviceInfo, ipAddress)
	return pair, err
}

func (s *AuthService) generateTokenPair(ctx context.Context, userID uuid.UUID, deviceInfo, ipAddress string) (*model.TokenPair, *model.RefreshToken, error) {
	accessToken, err := s.generateAccessToken(userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshTokenRaw := uuid.New().String()
	refreshToken := &model.RefreshToken{
		UserID:    userID,
		TokenHash: hashToken(refreshTokenRaw),
		ExpiresAt: s.now().Add(time.Duration(s.config.RefreshTokenMaxAge) * time.Second),
	}
	if deviceInfo != "" {
		refreshToken.DeviceInfo = &deviceInfo
	}
	if ipAddress != "" {
		refreshToken.IPAddress = &ipAddress
	}

	if err := s.refreshTokenRepo.Create(ctx, refreshToken); err != nil {
		return nil, nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshTokenRaw,
		ExpiresIn:    s.config.AccessTokenMaxAge,
	}, refreshToken, nil
}

// RefreshTokens validates the refresh token and rotates a new pair. Presenting
// an already revoked token revokes every session of its user.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshTokenRaw, deviceInfo, ipAddress string) (*model.TokenPair, uuid.UUID, error) {
	log := logging.Component(ctx, "auth_service")

	token, err := s.refreshTokenRepo.FindByTokenHash(ctx, hashToken(refreshTokenRaw))
	if err != nil {
		if !errors.Is(err, model.ErrRefreshTokenNotFound) {
			log.Error("find refresh token failed", "error", err)
		}
		return nil, uuid.Nil, model.ErrRefreshTokenNotFound
	}

	if token.IsRevoked() {
		log.Warn("refresh token reuse detected, revoking all sessions", "user_id", token.UserID)
		if err := s.refreshTokenRepo.RevokeAllForUser(ctx, token.UserID); err != nil {
			log.Error("revoke token family failed", "user_id", token.UserID, "error", err)
		}
		return nil, uuid.Nil, model.ErrRefreshTokenReused
	}

	if token.IsExpired() {
		return nil, uuid.Nil, model.ErrRefreshTokenExpired
	}

	pair, next, err := s.generateTokenPair(ctx, token.UserID, deviceInfo, ipAddress)
	if err != nil {
		return nil, uuid.Nil, err
	}

	if err := s.refreshTokenRepo.Revoke(ctx, token.ID, &next.ID); err != nil {
		if !errors.Is(err, model.ErrRefreshTokenNotFound) {
			// The old token is still live, so the replacement must not be.
			log.Error("revoke rotated refresh token failed", "token_id", token.ID, "error", err)
			if rerr := s.refreshTokenRepo.Revoke(ctx, next.ID, nil); rerr != nil {
				log.Error("revoke replacement refresh token failed", "token_id", next.ID, "error", rerr)
			}
			return nil, uuid.Nil, fmt.Errorf("revoke rotated refresh token: %w", err)
		}
		// Another request rotated the same token first.
		log.Warn("concurrent refresh token rotation, revoking all sessions", "user_id", token.UserID)
		if err := s.refreshTokenRepo.RevokeAllForUser(ctx, token.UserID); err != nil {
			log.Error("revoke token family failed", "user_id", token.UserID, "error", err)
		}
		return nil, uuid.Nil, model.ErrRefreshTokenReused
	}

	return pair, token.UserID, nil
}

// RevokeRefreshToken ends the session the token belongs to.
func (s *AuthService) RevokeRefreshToken(ctx context.Context, refreshTokenRaw string) error {
	token, err := s.refreshTokenRepo.FindByTokenHash(ctx, hashToken(refreshTokenRaw))
	if err != nil {
		return err
	}
	return s.refreshTokenRepo.Revoke(ctx, token.ID, nil)
}

func (s *AuthService) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	return s.refreshTokenRepo.RevokeAllForUser(ctx, userID)
}

// PurgeExpired deletes refresh tokens that expired more than olderThan ago.
func (s *AuthService) PurgeExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	n, err := s.refreshTokenRepo.DeleteExpired(ctx, olderThan)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logging.Component(ctx, "auth_service").Info("purged expired refresh tokens", "count", n)
	}
	return n, nil
}

func (s *AuthService) generateAccessToken(userID uuid.UUID) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"user_id": userID.String(),
		"exp":     now.Add(time.Duration(s.config.AccessTokenMaxAge) * time.Second).Unix(),
		"iat":     now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
