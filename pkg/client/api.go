package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"streamify/internal/model"
)

// Login signs in by email or username and stores the resulting session.
func (c *Client) Login(ctx context.Context, req model.LoginRequest) (*model.User, error) {
	var resp model.LoginResponse
	if err := c.doOnce(ctx, http.MethodPost, "/users/login", req, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, errors.New("client: login response without user")
	}

	err := c.setSession(&Session{
		UserID:       resp.User.ID,
		Username:     resp.User.Username,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	})
	if err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return resp.User, nil
}

// Refresh rotates the session's tokens.
func (c *Client) Refresh(ctx context.Context) error {
	_, refresh := c.tokens()
	if refresh == "" {
		return ErrNoSession
	}

	var pair model.TokenPair
	if err := c.doOnce(ctx, http.MethodPost, "/users/refresh-token", model.RefreshRequest{RefreshToken: refresh}, &pair); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			// The refresh token is dead; so is the session.
			_ = c.setSession(nil)
		}
		return err
	}

	s := c.Session()
	if s == nil {
		return ErrNoSession
	}
	s.AccessToken, s.RefreshToken = pair.AccessToken, pair.RefreshToken
	return c.setSession(s)
}

// Logout revokes the refresh token and clears the session. The local session
// is cleared even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	_, refresh := c.tokens()
	err := c.do(ctx, http.MethodPost, "/users/logout", model.LogoutRequest{RefreshToken: refresh}, nil)
	if clearErr := c.setSession(nil); clearErr != nil && err == nil {
		err = clearErr
	}
	return err
}

func (c *Client) ListComments(ctx context.Context, videoID uuid.UUID, page, limit int) (*model.CommentPage, error) {
	var out model.CommentPage
	path := "/comments/" + videoID.String() + pageQuery(page, limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddComment(ctx context.Context, videoID uuid.UUID, content string) (*model.Comment, error) {
	var out model.Comment
	if err := c.do(ctx, http.MethodPost, "/comments/"+videoID.String(), model.CommentRequest{Comment: content}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ToggleVideoLike(ctx context.Context, videoID uuid.UUID) (*model.LikeToggleResult, error) {
	return c.toggleLike(ctx, "v", videoID)
}

func (c *Client) ToggleCommentLike(ctx context.Context, commentID uuid.UUID) (*model.LikeToggleResult, error) {
	return c.toggleLike(ctx, "c", commentID)
}

func (c *Client) ToggleTweetLike(ctx context.Context, tweetID uuid.UUID) (*model.LikeToggleResult, error) {
	return c.toggleLike(ctx, "t", tweetID)
}

func (c *Client) toggleLike(ctx context.Context, kind string, id uuid.UUID) (*model.LikeToggleResult, error) {
	var out model.LikeToggleResult
	if err := c.do(ctx, http.MethodPost, "/likes/toggle/"+kind+"/"+id.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ToggleSubscription(ctx context.Context, channelID uuid.UUID) (*model.SubscriptionToggleResult, error) {
	var out model.SubscriptionToggleResult
	if err := c.do(ctx, http.MethodPost, "/subscriptions/c/"+channelID.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreatePlaylist(ctx context.Context, name, description string) (*model.Playlist, error) {
	var out model.Playlist
	req := model.PlaylistRequest{Name: name, Description: description}
	if err := c.do(ctx, http.MethodPost, "/playlist/create", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddVideoToPlaylist(ctx context.Context, playlistID, videoID uuid.UUID) (*model.Playlist, error) {
	return c.changePlaylist(ctx, "/playlist/add-video", playlistID, videoID)
}

func (c *Client) RemoveVideoFromPlaylist(ctx context.Context, playlistID, videoID uuid.UUID) (*model.Playlist, error) {
	return c.changePlaylist(ctx, "/playlist/remove-video", playlistID, videoID)
}

func (c *Client) changePlaylist(ctx context.Context, path string, playlistID, videoID uuid.UUID) (*model.Playlist, error) {
	var out model.Playlist
	req := model.PlaylistVideoRequest{PlaylistID: playlistID.String(), VideoID: videoID.String()}
	if err := c.do(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetPlaylist(ctx context.Context, playlistID uuid.UUID) (*model.PlaylistDetails, error) {
	var out model.PlaylistDetails
	if err := c.do(ctx, http.MethodGet, "/playlist/"+playlistID.String()+"/details", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateTweet(ctx context.Context, content string) (*model.Tweet, error) {
	var out model.Tweet
	if err := c.do(ctx, http.MethodPost, "/tweets", model.TweetRequest{Content: content}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LikeToggle binds an optimistic Toggle to a like target. kind is one of
// model.LikeTargetVideo, LikeTargetComment or LikeTargetTweet.
func (c *Client) LikeToggle(kind model.LikeTarget, id uuid.UUID, liked bool, count int) *Toggle {
	short := map[model.LikeTarget]string{
		model.LikeTargetVideo:   "v",
		model.LikeTargetComment: "c",
		model.LikeTargetTweet:   "t",
	}[kind]
	return NewToggle(liked, count, func(ctx context.Context) (ToggleResult, error) {
		if short == "" {
			return ToggleResult{}, model.ErrInvalidLikeTarget
		}
		res, err := c.toggleLike(ctx, short, id)
		if err != nil {
			return ToggleResult{}, err
		}
		return ToggleResult{On: res.IsLiked, Count: res.LikesCount, Canonical: true}, nil
	})
}

// SubscriptionToggle binds an optimistic Toggle to a channel subscription.
func (c *Client) SubscriptionToggle(channelID uuid.UUID, subscribed bool, subscribers int) *Toggle {
	return NewToggle(subscribed, subscribers, func(ctx context.Context) (ToggleResult, error) {
		res, err := c.ToggleSubscription(ctx, channelID)
		if err != nil {
			return ToggleResult{}, err
		}
		return ToggleResult{On: res.IsSubscribed, Count: res.SubscribersCount, Canonical: true}, nil
	})
}

func pageQuery(page, limit int) string {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}
