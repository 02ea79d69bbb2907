package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"streamify/internal/config"
	"streamify/internal/model"
	"streamify/internal/transport/http/middleware"
)

// Each fake embeds its interface so calls the test does not stub panic loudly.

type fakeUserService struct {
	UserService
	validateFn func(req *model.RegisterRequest) error
	registerFn func(req *model.RegisterRequest) (*model.User, error)
	loginFn    func(req *model.LoginRequest) (*model.User, error)
	channelFn  func(username string, viewerID *uuid.UUID) (*model.ChannelProfile, error)
}

func (f *fakeUserService) ValidateRegistration(_ context.Context, req *model.RegisterRequest) error {
	if f.validateFn != nil {
		return f.validateFn(req)
	}
	return nil
}

func (f *fakeUserService) Register(_ context.Context, req *model.RegisterRequest) (*model.User, error) {
	return f.registerFn(req)
}

func (f *fakeUserService) Login(_ context.Context, req *model.LoginRequest) (*model.User, error) {
	return f.loginFn(req)
}

func (f *fakeUserService) GetChannelProfile(_ context.Context, username string, viewerID *uuid.UUID) (*model.ChannelProfile, error) {
	return f.channelFn(username, viewerID)
}

type fakeAuthService struct {
	AuthService
	refreshFn   func(token string) (*model.TokenPair, uuid.UUID, error)
	revokeFn    func(token string) error
	revokeAllFn func(userID uuid.UUID) error
}

func (f *fakeAuthService) GenerateTokenPair(_ context.Context, userID uuid.UUID, _, _ string) (*model.TokenPair, error) {
	return &model.TokenPair{AccessToken: "access-" + userID.String(), RefreshToken: "refresh", ExpiresIn: 900}, nil
}

func (f *fakeAuthService) RefreshTokens(_ context.Context, token, _, _ string) (*model.TokenPair, uuid.UUID, error) {
	return f.refreshFn(token)
}

func (f *fakeAuthService) RevokeRefreshToken(_ context.Context, token string) error {
	return f.revokeFn(token)
}

func (f *fakeAuthService) RevokeAllUserTokens(_ context.Context, userID uuid.UUID) error {
	return f.revokeAllFn(userID)
}

// fakeMediaService records uploads and deletes instead of touching storage.
type fakeMediaService struct {
	mu        sync.Mutex
	uploadErr map[string]error
	uploads   []string
	deleted   []string
}

func (f *fakeMediaService) upload(kind string, file io.Reader) (*model.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.uploadErr[kind]; err != nil {
		return nil, err
	}
	_, _ = io.Copy(io.Discard, file)
	key := kind + "/" + uuid.NewString()
	f.uploads = append(f.uploads, key)
	return &model.UploadResult{URL: "https://cdn.test/" + key, Key: key}, nil
}

func (f *fakeMediaService) UploadAvatar(_ context.Context, file io.Reader, _ *multipart.FileHeader) (*model.UploadResult, error) {
	return f.upload("avatars", file)
}

func (f *fakeMediaService) UploadCoverImage(_ context.Context, file io.Reader, _ *multipart.FileHeader) (*model.UploadResult, error) {
	return f.upload("covers", file)
}

func (f *fakeMediaService) UploadThumbnail(_ context.Context, file io.Reader, _ *multipart.FileHeader) (*model.UploadResult, error) {
	return f.upload("thumbnails", file)
}

func (f *fakeMediaService) UploadVideo(_ context.Context, file io.ReadSeeker, _ *multipart.FileHeader) (*model.UploadResult, error) {
	return f.upload("videos", file)
}

func (f *fakeMediaService) DeleteObjects(_ context.Context, keys ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		if key != "" {
			f.deleted = append(f.deleted, key)
		}
	}
}

type fakeVideoService struct {
	VideoService
	publishFn func(ownerID uuid.UUID, req *model.CreateVideoRequest) (*model.Video, error)
	deleteFn  func(videoID, ownerID uuid.UUID) (*model.Video, error)
}

func (f *fakeVideoService) Publish(_ context.Context, ownerID uuid.UUID, req *model.CreateVideoRequest) (*model.Video, error) {
	return f.publishFn(ownerID, req)
}

func (f *fakeVideoService) Delete(_ context.Context, videoID, ownerID uuid.UUID) (*model.Video, error) {
	return f.deleteFn(videoID, ownerID)
}

type fakeFeedService struct {
	calls  int
	limit  int
	cursor *string
	resp   *model.FeedResponse
	err    error
}

func (f *fakeFeedService) GetFeed(_ context.Context, _ uuid.UUID, cursor *string, limit int) (*model.FeedResponse, error) {
	f.calls++
	f.limit = limit
	f.cursor = cursor
	return f.resp, f.err
}

type fakeCommentService struct {
	CommentService
	addFn func(videoID, userID uuid.UUID, content string) (*model.Comment, error)
}

func (f *fakeCommentService) Add(_ context.Context, videoID, userID uuid.UUID, content string) (*model.Comment, error) {
	return f.addFn(videoID, userID, content)
}

type fakeTweetService struct {
	TweetService
	createFn func(ownerID uuid.UUID, content string) (*model.Tweet, error)
}

func (f *fakeTweetService) Create(_ context.Context, ownerID uuid.UUID, content string) (*model.Tweet, error) {
	return f.createFn(ownerID, content)
}

type fakeLikeService struct {
	LikeService
	toggleFn func(target model.LikeTarget, userID, targetID uuid.UUID) (*model.LikeToggleResult, error)
}

func (f *fakeLikeService) Toggle(_ context.Context, target model.LikeTarget, userID, targetID uuid.UUID) (*model.LikeToggleResult, error) {
	return f.toggleFn(target, userID, targetID)
}

type fakePlaylistService struct {
	PlaylistService
	addFn func(playlistID, videoID, userID uuid.UUID) (*model.Playlist, error)
}

func (f *fakePlaylistService) AddVideo(_ context.Context, playlistID, videoID, userID uuid.UUID) (*model.Playlist, error) {
	return f.addFn(playlistID, videoID, userID)
}

func testConfig() *config.Config {
	return &config.Config{AccessTokenMaxAge: 900, RefreshTokenMaxAge: 3600}
}

// withUser authenticates the request as userID.
func withUser(r *http.Request, userID uuid.UUID) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.UserIDKey, userID))
}

// withParams sets chi URL params as the router would.
func withParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func jsonRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// multipartRequest builds a form with string fields and named file parts.
func multipartRequest(t *testing.T, method, target string, fields map[string]string, files map[string][]byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for name, data := range files {
		part, err := mw.CreateFormFile(name, name+".bin")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
	Errors     []string        `json:"errors"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

