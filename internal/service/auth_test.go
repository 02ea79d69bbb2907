package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"streamify/internal/config"
	"streamify/internal/model"
)

// memRefreshTokenRepository indexes tokens by hash like the SQL table.
type memRefreshTokenRepository struct {
	byHash         map[string]*model.RefreshToken
	revokeAllCalls int
	beforeRevoke   func(id uuid.UUID) error
}

func newMemRefreshTokenRepository() *memRefreshTokenRepository {
	return &memRefreshTokenRepository{byHash: map[string]*model.RefreshToken{}}
}

func (r *memRefreshTokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	token.ID = uuid.New()
	token.CreatedAt = time.Now()
	r.byHash[token.TokenHash] = token
	return nil
}

func (r *memRefreshTokenRepository) FindByTokenHash(ctx context.Context, hash string) (*model.RefreshToken, error) {
	token, ok := r.byHash[hash]
	if !ok {
		return nil, model.ErrRefreshTokenNotFound
	}
	return token, nil
}

func (r *memRefreshTokenRepository) Revoke(ctx context.Context, id uuid.UUID, replacedBy *uuid.UUID) error {
	if r.beforeRevoke != nil {
		if err := r.beforeRevoke(id); err != nil {
			return err
		}
	}
	now := time.Now()
	for _, token := range r.byHash {
		if token.ID == id && token.RevokedAt == nil {
			token.RevokedAt = &now
			token.ReplacedBy = replacedBy
			return nil
		}
	}
	return model.ErrRefreshTokenNotFound
}

func (r *memRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	r.revokeAllCalls++
	now := time.Now()
	for _, token := range r.byHash {
		if token.UserID == userID && token.RevokedAt == nil {
			token.RevokedAt = &now
		}
	}
	return nil
}

func (r *memRefreshTokenRepository) DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	var n int64
	for hash, token := range r.byHash {
		if time.Since(token.ExpiresAt) > olderThan {
			delete(r.byHash, hash)
			n++
		}
	}
	return n, nil
}

func testAuthConfig() *config.Config {
	return &config.Config{
		JWTSecret:          "test-secret",
		AccessTokenMaxAge:  900,
		RefreshTokenMaxAge: 3600,
	}
}

func TestAuthService_GenerateTokenPair(t *testing.T) {
	// ARRANGE
	repo := newMemRefreshTokenRepository()
	svc := NewAuthService(repo, testAuthConfig())
	userID := uuid.New()

	// ACT
	pair, err := svc.GenerateTokenPair(context.Background(), userID, "cli", "127.0.0.1")

	// ASSERT
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pair.ExpiresIn != 900 {
		t.Errorf("expiresIn = %d, want 900", pair.ExpiresIn)
	}

	parsed, err := jwt.Parse(pair.AccessToken, func(tok *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("access token should verify: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if claims["user_id"] != userID.String() {
		t.Errorf("user_id claim = %v, want %v", claims["user_id"], userID)
	}

	stored, ok := repo.byHash[hashToken(pair.RefreshToken)]
	if !ok {
		t.Fatal("refresh token should be stored by hash")
	}
	if stored.DeviceInfo == nil || *stored.DeviceInfo != "cli" {
		t.Errorf("device info = %v", stored.DeviceInfo)
	}
}

func TestAuthService_RefreshTokens_Rotates(t *testing.T) {
	repo := newMemRefreshTokenRepository()
	svc := NewAuthService(repo, testAuthConfig())
	userID := uuid.New()
	first, _ := svc.GenerateTokenPair(context.Background(), userID, "", "")

	second, gotUser, err := svc.RefreshTokens(context.Background(), first.RefreshToken, "", "")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotUser != userID {
		t.Errorf("user = %v, want %v", gotUser, userID)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Error("refresh token should rotate")
	}
	old := repo.byHash[hashToken(first.RefreshToken)]
	if !old.IsRevoked() || old.ReplacedBy == nil {
		t.Error("old token should be revoked and linked to its replacement")
	}
}

func TestAuthService_RefreshTokens_ReuseRevokesFamily(t *testing.T) {
	repo := newMemRefreshTokenRepository()
	svc := NewAuthService(repo, testAuthConfig())
	userID := uuid.New()
	first, _ := svc.GenerateTokenPair(context.Background(), userID, "", "")
	second, _, err := svc.RefreshTokens(context.Background(), first.RefreshToken, "", "")
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}

	// Replaying the rotated token
	_, _, err = svc.RefreshTokens(context.Background(), first.RefreshToken, "", "")

	if !errors.Is(err, model.ErrRefreshTokenReused) {
		t.Fatalf("error = %v, want %v", err, model.ErrRefreshTokenReused)
	}
	if repo.revokeAllCalls != 1 {
		t.Errorf("RevokeAllForUser calls = %d, want 1", repo.revokeAllCalls)
	}
	if !repo.byHash[hashToken(second.RefreshToken)].IsRevoked() {
		t.Error("the live token of the family should be revoked too")
	}
}

func TestAuthService_RefreshTokens_LostRotationRace(t *testing.T) {
	repo := newMemRefreshTokenRepository()
	svc := NewAuthService(repo, testAuthConfig())
	userID := uuid.New()
	first, _ := svc.GenerateTokenPair(context.Background(), userID, "", "")

	// A parallel request revokes the token between lookup and rotation.
	repo.beforeRevoke = func(uuid.UUID) error {
		repo.beforeRevoke = nil
		now := time.Now()
		repo.byHash[hashToken(first.RefreshToken)].RevokedAt = &now
		return nil
	}

	pair, _, err := svc.RefreshTokens(context.Background(), first.RefreshToken, "", "")

	if !errors.Is(err, model.ErrRefreshTokenReused) {
		t.Fatalf("error = %v, want %v", err, model.ErrRefreshTokenReused)
	}
	if pair != nil {
		t.Error("no token pair should be handed out")
	}
	if repo.revokeAllCalls != 1 {
		t.Errorf("RevokeAllForUser calls = %d, want 1", repo.revokeAllCalls)
	}
	for hash, token := range repo.byHash {
		if !token.IsRevoked() {
			t.Errorf("token %s should be revoked", hash[:8])
		}
	}
}

func TestAuthService_RefreshTokens_RevokeFailure(t *testing.T) {
	repo := newMemRefreshTokenRepository()
	svc := NewAuthService(repo, testAuthConfig())
	userID := uuid.New()
	first, _ := svc.GenerateTokenPair(context.Background(), userID, "", "")
	oldID := repo.byHash[hashToken(first.RefreshToken)].ID

	dbErr := errors.New("connection reset")
	repo.beforeRevoke = func(id uuid.UUID) error {
		if id == oldID {
			return dbErr
		}
		return nil
	}

	pair, gotUser, err := svc.RefreshTokens(context.Background(), first.RefreshToken, "", "")

	if !errors.Is(err, dbErr) {
		t.Fatalf("error = %v, want %v", err, dbErr)
	}
	if pair != nil || gotUser != uuid.Nil {
		t.Errorf("pair = %+v, user = %v, want none", pair, gotUser)
	}
	if repo.revokeAllCalls != 0 {
		t.Errorf("RevokeAllForUser calls = %d, want 0", repo.revokeAllCalls)
	}
	live := 0
	for _, token := range repo.byHash {
		if !token.IsRevoked() {
			live++
			if token.ID != oldID {
				t.Errorf("replacement token %s should not stay live", token.ID)
			}
		}
	}
	if live != 1 {
		t.Errorf("live tokens = %d, want only the original", live)
	}

	// Once the store recovers, the original token still rotates.
	repo.beforeRevoke = nil
	if _, _, err := svc.RefreshTokens(context.Background(), first.RefreshToken, "", ""); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

func TestAuthService_RefreshTokens_Invalid(t *testing.T) {
	repo := newMemRefreshTokenRepository()
	svc := NewAuthService(repo, testAuthConfig())

	_, _, err := svc.RefreshTokens(context.Background(), "unknown", "", "")
	if !errors.Is(err, model.ErrRefreshTokenNotFound) {
		t.Errorf("unknown token: error = %v, want %v", err, model.ErrRefreshTokenNotFound)
	}

	pair, _ := svc.GenerateTokenPair(context.Background(), uuid.New(), "", "")
	repo.byHash[hashToken(pair.RefreshToken)].ExpiresAt = time.Now().Add(-time.Minute)

	_, _, err = svc.RefreshTokens(context.Background(), pair.RefreshToken, "", "")
	if !errors.Is(err, model.ErrRefreshTokenExpired) {
		t.Errorf("expired token: error = %v, want %v", err, model.ErrRefreshTokenExpired)
	}
}
