package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// RefreshToken represents a refresh token stored in the database
type RefreshToken struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	UserID     uuid.UUID  `db:"user_id" json:"userId"`
	TokenHash  string     `db:"token_hash" json:"-"` // Never expose hash
	ExpiresAt  time.Time  `db:"expires_at" json:"expiresAt"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
	RevokedAt  *time.Time `db:"revoked_at" json:"revokedAt,omitempty"`
	ReplacedBy *uuid.UUID `db:"replaced_by" json:"replacedBy,omitempty"`
	DeviceInfo *string    `db:"device_info" json:"deviceInfo,omitempty"`
	IPAddress  *string    `db:"ip_address" json:"ipAddress,omitempty"`
}

// IsRevoked returns true if the token has been revoked
func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// IsExpired returns true if the token has expired
func (t *RefreshToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// Refresh token errors
var (
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenExpired  = errors.New("refresh token expired")
	ErrRefreshTokenReused   = errors.New("refresh token reuse detected")
)

// Token error codes, reported in the envelope's errors array
const (
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenInvalid = "TOKEN_INVALID"
	CodeTokenReused  = "TOKEN_REUSED"
)

// TokenPair represents both tokens returned after login/refresh
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"` // Seconds until access token expires
}

// LoginResponse is returned after successful login
type LoginResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
}

// RefreshRequest is the request body for POST /users/refresh-token
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// LogoutRequest is the request body for POST /users/logout
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}
