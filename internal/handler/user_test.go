package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamify/internal/model"
	"streamify/internal/transport/http/middleware"
)

func newUserHandler(users *fakeUserService, auth *fakeAuthService, media *fakeMediaService) *UserHandler {
	return NewUserHandler(users, auth, media, testConfig())
}

func registerFields() map[string]string {
	return map[string]string{
		"fullName": "Ada Lovelace",
		"email":    "ada@example.com",
		"username": "ada",
		"password": "secret123",
	}
}

func TestRegister_ValidationFailsBeforeUpload(t *testing.T) {
	media := &fakeMediaService{}
	users := &fakeUserService{
		validateFn: func(*model.RegisterRequest) error { return model.ErrUserExists },
	}
	h := newUserHandler(users, &fakeAuthService{}, media)

	req := multipartRequest(t, http.MethodPost, "/api/v1/users/register", registerFields(), map[string][]byte{"avatar": []byte("img")})
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, media.uploads)
}

func TestRegister_AvatarRequired(t *testing.T) {
	media := &fakeMediaService{}
	h := newUserHandler(&fakeUserService{}, &fakeAuthService{}, media)

	req := multipartRequest(t, http.MethodPost, "/api/v1/users/register", registerFields(), nil)
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, model.ErrAvatarRequired.Error(), decodeEnvelope(t, rec).Message)
}

func TestRegister_Success(t *testing.T) {
	media := &fakeMediaService{}
	var got *model.RegisterRequest
	users := &fakeUserService{
		registerFn: func(req *model.RegisterRequest) (*model.User, error) {
			got = req
			return &model.User{ID: uuid.New(), Username: req.Username, Avatar: req.AvatarURL}, nil
		},
	}
	h := newUserHandler(users, &fakeAuthService{}, media)

	files := map[string][]byte{"avatar": []byte("img"), "coverImage": []byte("cover")}
	req := multipartRequest(t, http.MethodPost, "/api/v1/users/register", registerFields(), files)
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, "ada", got.Username)
	assert.NotEmpty(t, got.AvatarURL)
	require.NotNil(t, got.CoverImageKey)
	assert.Len(t, media.uploads, 2)
	assert.Empty(t, media.deleted)
}

func TestRegister_FailureRemovesUploads(t *testing.T) {
	media := &fakeMediaService{}
	users := &fakeUserService{
		registerFn: func(*model.RegisterRequest) (*model.User, error) { return nil, model.ErrUserExists },
	}
	h := newUserHandler(users, &fakeAuthService{}, media)

	req := multipartRequest(t, http.MethodPost, "/api/v1/users/register", registerFields(), map[string][]byte{"avatar": []byte("img")})
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.ElementsMatch(t, media.uploads, media.deleted)
}

func TestLogin_SetsCookiesAndReturnsTokens(t *testing.T) {
	userID := uuid.New()
	users := &fakeUserService{
		loginFn: func(req *model.LoginRequest) (*model.User, error) {
			assert.Equal(t, "ada", req.Username)
			return &model.User{ID: userID, Username: "ada"}, nil
		},
	}
	h := newUserHandler(users, &fakeAuthService{}, &fakeMediaService{})

	rec := httptest.NewRecorder()
	h.Login(rec, jsonRequest(t, http.MethodPost, "/api/v1/users/login", map[string]string{"username": "ada", "password": "pw"}))

	require.Equal(t, http.StatusOK, rec.Code)

	cookies := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		cookies[c.Name] = c
	}
	require.Contains(t, cookies, middleware.AccessTokenCookie)
	require.Contains(t, cookies, RefreshTokenCookie)
	assert.True(t, cookies[middleware.AccessTokenCookie].HttpOnly)
	assert.Equal(t, "refresh", cookies[RefreshTokenCookie].Value)

	env := decodeEnvelope(t, rec)
	var data model.LoginResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "access-"+userID.String(), data.AccessToken)
	assert.Equal(t, userID, data.User.ID)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	users := &fakeUserService{
		loginFn: func(*model.LoginRequest) (*model.User, error) { return nil, model.ErrInvalidCredentials },
	}
	h := newUserHandler(users, &fakeAuthService{}, &fakeMediaService{})

	rec := httptest.NewRecorder()
	h.Login(rec, jsonRequest(t, http.MethodPost, "/api/v1/users/login", map[string]string{"email": "a@b.c", "password": "x"}))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestRefresh_ReadsCookie(t *testing.T) {
	auth := &fakeAuthService{
		refreshFn: func(token string) (*model.TokenPair, uuid.UUID, error) {
			assert.Equal(t, "cookie-token", token)
			return &model.TokenPair{AccessToken: "a2", RefreshToken: "r2", ExpiresIn: 900}, uuid.New(), nil
		},
	}
	h := newUserHandler(&fakeUserService{}, auth, &fakeMediaService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: "cookie-token"})
	rec := httptest.NewRecorder()
	h.Refresh(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var pair model.TokenPair
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &pair))
	assert.Equal(t, "r2", pair.RefreshToken)
}

func TestRefresh_ReuseIsRejectedWithCode(t *testing.T) {
	auth := &fakeAuthService{
		refreshFn: func(string) (*model.TokenPair, uuid.UUID, error) {
			return nil, uuid.Nil, model.ErrRefreshTokenReused
		},
	}
	h := newUserHandler(&fakeUserService{}, auth, &fakeMediaService{})

	rec := httptest.NewRecorder()
	h.Refresh(rec, jsonRequest(t, http.MethodPost, "/api/v1/users/refresh-token", model.RefreshRequest{RefreshToken: "old"}))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, []string{model.CodeTokenReused}, decodeEnvelope(t, rec).Errors)
}

func TestRefresh_MissingToken(t *testing.T) {
	h := newUserHandler(&fakeUserService{}, &fakeAuthService{}, &fakeMediaService{})

	rec := httptest.NewRecorder()
	h.Refresh(rec, httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout(t *testing.T) {
	userID := uuid.New()

	t.Run("revokes presented token and ignores unknown ones", func(t *testing.T) {
		var revoked string
		auth := &fakeAuthService{
			revokeFn: func(token string) error {
				revoked = token
				return model.ErrRefreshTokenNotFound
			},
		}
		h := newUserHandler(&fakeUserService{}, auth, &fakeMediaService{})

		rec := httptest.NewRecorder()
		req := withUser(jsonRequest(t, http.MethodPost, "/api/v1/users/logout", model.LogoutRequest{RefreshToken: "r1"}), userID)
		h.Logout(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "r1", revoked)
	})

	t.Run("revokes every session without a token", func(t *testing.T) {
		var revokedFor uuid.UUID
		auth := &fakeAuthService{
			revokeAllFn: func(id uuid.UUID) error {
				revokedFor = id
				return nil
			},
		}
		h := newUserHandler(&fakeUserService{}, auth, &fakeMediaService{})

		rec := httptest.NewRecorder()
		h.Logout(rec, withUser(httptest.NewRequest(http.MethodPost, "/api/v1/users/logout", nil), userID))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, userID, revokedFor)
	})

	t.Run("requires authentication", func(t *testing.T) {
		h := newUserHandler(&fakeUserService{}, &fakeAuthService{}, &fakeMediaService{})

		rec := httptest.NewRecorder()
		h.Logout(rec, httptest.NewRequest(http.MethodPost, "/api/v1/users/logout", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestChannelProfile(t *testing.T) {
	viewer := uuid.New()
	users := &fakeUserService{
		channelFn: func(username string, viewerID *uuid.UUID) (*model.ChannelProfile, error) {
			if username != "ada" {
				return nil, model.ErrUserNotFound
			}
			require.NotNil(t, viewerID)
			assert.Equal(t, viewer, *viewerID)
			return &model.ChannelProfile{User: &model.User{Username: "ada", SubscribersCount: 3}, IsSubscribed: true}, nil
		},
	}
	h := newUserHandler(users, &fakeAuthService{}, &fakeMediaService{})

	rec := httptest.NewRecorder()
	req := withUser(withParams(httptest.NewRequest(http.MethodGet, "/api/v1/users/c/ada", nil), "username", "ada"), viewer)
	h.ChannelProfile(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var profile struct {
		Username         string `json:"username"`
		SubscribersCount int    `json:"subscribersCount"`
		IsSubscribed     bool   `json:"isSubscribed"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &profile))
	assert.Equal(t, 3, profile.SubscribersCount)
	assert.True(t, profile.IsSubscribed)

	rec = httptest.NewRecorder()
	h.ChannelProfile(rec, withParams(httptest.NewRequest(http.MethodGet, "/api/v1/users/c/nobody", nil), "username", "nobody"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Channel does not exist", decodeEnvelope(t, rec).Message)
}
