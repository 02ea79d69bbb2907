package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// User represents a registered account. Users are never hard-deleted.
type User struct {
	ID                 uuid.UUID `db:"id" json:"_id"`
	Username           string    `db:"username" json:"username"`
	Email              string    `db:"email" json:"email"`
	FullName           string    `db:"full_name" json:"fullName"`
	Avatar             string    `db:"avatar_url" json:"avatar"`
	AvatarKey          *string   `db:"avatar_key" json:"-"`
	CoverImage         *string   `db:"cover_image_url" json:"coverImage"`
	CoverImageKey      *string   `db:"cover_image_key" json:"-"`
	PasswordHashed     string    `db:"password_hashed" json:"-"` // "-" hides from JSON output
	SubscribersCount   int       `db:"subscribers_count" json:"subscribersCount"`
	SubscriptionsCount int       `db:"subscriptions_count" json:"channelsSubscribedToCount"`
	CreatedAt          time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time `db:"updated_at" json:"updatedAt"`
}

// UserSummary is the author/owner projection joined onto other resources.
type UserSummary struct {
	ID       uuid.UUID `db:"id" json:"_id"`
	Username string    `db:"username" json:"username"`
	FullName string    `db:"full_name" json:"fullName"`
	Avatar   string    `db:"avatar_url" json:"avatar"`
}

// Summary projects the user onto its public summary.
func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:       u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Avatar:   u.Avatar,
	}
}

// ChannelProfile is a user seen as a channel by a (possibly anonymous) viewer.
type ChannelProfile struct {
	*User
	IsSubscribed bool `json:"isSubscribed"`
}

// RegisterRequest represents the data needed to register a new user.
// Avatar fields are filled by the handler after the upload succeeds.
type RegisterRequest struct {
	FullName      string  `json:"fullName"`
	Email         string  `json:"email"`
	Username      string  `json:"username"`
	Password      string  `json:"password"`
	AvatarURL     string  `json:"-"`
	AvatarKey     string  `json:"-"`
	CoverImageURL *string `json:"-"`
	CoverImageKey *string `json:"-"`
}

// LoginRequest accepts either email or username.
type LoginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type UpdateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// WatchHistoryPage is a page of videos the user watched, most recent first.
type WatchHistoryPage struct {
	Videos []Video `json:"videos"`
	PageMeta
}

const (
	MinPasswordLength = 6
)

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists is returned when the username or email is already taken
	ErrUserExists = errors.New("user with email or username already exists")

	// ErrInvalidCredentials is returned when login credentials are incorrect
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrFieldsRequired   = errors.New("all fields are required")
	ErrAvatarRequired   = errors.New("avatar file is required")
	ErrPasswordTooShort = errors.New("password too short")
	ErrInvalidPassword  = errors.New("invalid old password")
)
