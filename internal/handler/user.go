package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"streamify/internal/config"
	"streamify/internal/httputil"
	"streamify/internal/model"
	"streamify/internal/transport/http/middleware"
)

// RefreshTokenCookie holds the refresh token for browser clients.
const RefreshTokenCookie = "refreshToken"

// UserHandler groups account, session and channel endpoints.
type UserHandler struct {
	userService  UserService
	authService  AuthService
	mediaService MediaService
	config       *config.Config
}

func NewUserHandler(userService UserService, authService AuthService, mediaService MediaService, cfg *config.Config) *UserHandler {
	return &UserHandler{
		userService:  userService,
		authService:  authService,
		mediaService: mediaService,
		config:       cfg,
	}
}

// Register handles multipart sign-up. The avatar is required, the cover image
// is optional. Uploaded objects are removed again when registration fails.
// POST /users/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !parseMultipart(w, r, model.AvatarSpec.MaxSizeBytes+model.CoverImageSpec.MaxSizeBytes+formOverhead) {
		return
	}
	defer cleanupMultipart(r)

	req := model.RegisterRequest{
		FullName: r.FormValue("fullName"),
		Email:    r.FormValue("email"),
		Username: r.FormValue("username"),
		Password: r.FormValue("password"),
	}
	if err := h.userService.ValidateRegistration(r.Context(), &req); err != nil {
		writeServiceError(w, r, err, "Failed to register user")
		return
	}

	avatarFile, avatarHeader, err := r.FormFile("avatar")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			writeServiceError(w, r, model.ErrAvatarRequired, "")
			return
		}
		httputil.WriteBadRequest(w, "Invalid avatar upload")
		return
	}
	defer avatarFile.Close()

	avatar, err := h.mediaService.UploadAvatar(r.Context(), avatarFile, avatarHeader)
	if err != nil {
		writeServiceError(w, r, err, "Failed to upload avatar")
		return
	}
	uploaded := []string{avatar.Key}
	req.AvatarURL = avatar.URL
	req.AvatarKey = avatar.Key

	coverFile, coverHeader, err := r.FormFile("coverImage")
	switch {
	case err == nil:
		defer coverFile.Close()
		cover, err := h.mediaService.UploadCoverImage(r.Context(), coverFile, coverHeader)
		if err != nil {
			h.mediaService.DeleteObjects(r.Context(), uploaded...)
			writeServiceError(w, r, err, "Failed to upload cover image")
			return
		}
		uploaded = append(uploaded, cover.Key)
		req.CoverImageURL = &cover.URL
		req.CoverImageKey = &cover.Key
	case !errors.Is(err, http.ErrMissingFile):
		h.mediaService.DeleteObjects(r.Context(), uploaded...)
		httputil.WriteBadRequest(w, "Invalid cover image upload")
		return
	}

	user, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		h.mediaService.DeleteObjects(r.Context(), uploaded...)
		writeServiceError(w, r, err, "Something went wrong while registering the user")
		return
	}

	httputil.WriteCreated(w, user, "User registered successfully")
}

// Login accepts email or username and sets the session cookies.
// POST /users/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err, "Failed to login")
		return
	}

	pair, err := h.authService.GenerateTokenPair(r.Context(), user.ID, r.Header.Get("User-Agent"), middleware.ClientIP(r))
	if err != nil {
		writeServiceError(w, r, err, "Failed to generate tokens")
		return
	}

	h.setSessionCookies(w, r, pair)
	httputil.WriteOK(w, model.LoginResponse{
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}, "User logged in successfully")
}

// Refresh rotates the refresh token taken from the body or the cookie.
// POST /users/refresh-token
func (h *UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := refreshTokenFrom(r)
	if token == "" {
		httputil.WriteUnauthorized(w, "Unauthorized request")
		return
	}

	pair, _, err := h.authService.RefreshTokens(r.Context(), token, r.Header.Get("User-Agent"), middleware.ClientIP(r))
	if err != nil {
		h.clearSessionCookies(w, r)
		writeServiceError(w, r, err, "Failed to refresh tokens")
		return
	}

	h.setSessionCookies(w, r, pair)
	httputil.WriteOK(w, pair, "Access token refreshed")
}

// Logout revokes the presented refresh token, or every session of the user
// when none is presented.
// POST /users/logout
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var err error
	if token := refreshTokenFrom(r); token != "" {
		err = h.authService.RevokeRefreshToken(r.Context(), token)
		if errors.Is(err, model.ErrRefreshTokenNotFound) {
			// Already revoked or never existed
			err = nil
		}
	} else {
		err = h.authService.RevokeAllUserTokens(r.Context(), userID)
	}
	if err != nil {
		writeServiceError(w, r, err, "Failed to logout")
		return
	}

	h.clearSessionCookies(w, r)
	httputil.WriteOK(w, struct{}{}, "User logged out")
}

// POST /users/change-password
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req model.ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.userService.ChangePassword(r.Context(), userID, &req); err != nil {
		writeServiceError(w, r, err, "Failed to change password")
		return
	}
	httputil.WriteOK(w, struct{}{}, "Password changed successfully")
}

// CurrentUser returns the authenticated user.
// GET /users/current-user
func (h *UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "Failed to get user")
		return
	}
	httputil.WriteOK(w, user, "Current user fetched successfully")
}

// PATCH /users/update-account
func (h *UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req model.UpdateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.userService.UpdateAccount(r.Context(), userID, &req)
	if err != nil {
		writeServiceError(w, r, err, "Failed to update account")
		return
	}
	httputil.WriteOK(w, user, "Account details updated successfully")
}

// PATCH /users/avatar
func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if !parseMultipart(w, r, model.AvatarSpec.MaxSizeBytes+formOverhead) {
		return
	}
	defer cleanupMultipart(r)

	file, header, err := r.FormFile("avatar")
	if err != nil {
		httputil.WriteBadRequest(w, "Avatar file is missing")
		return
	}
	defer file.Close()

	upload, err := h.mediaService.UploadAvatar(r.Context(), file, header)
	if err != nil {
		writeServiceError(w, r, err, "Failed to upload avatar")
		return
	}

	user, oldKey, err := h.userService.UpdateAvatar(r.Context(), userID, upload)
	if err != nil {
		h.mediaService.DeleteObjects(r.Context(), upload.Key)
		writeServiceError(w, r, err, "Failed to update avatar")
		return
	}
	if oldKey != nil {
		h.mediaService.DeleteObjects(r.Context(), *oldKey)
	}
	httputil.WriteOK(w, user, "Avatar image updated successfully")
}

// PATCH /users/cover-image
func (h *UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if !parseMultipart(w, r, model.CoverImageSpec.MaxSizeBytes+formOverhead) {
		return
	}
	defer cleanupMultipart(r)

	file, header, err := r.FormFile("coverImage")
	if err != nil {
		httputil.WriteBadRequest(w, "Cover image file is missing")
		return
	}
	defer file.Close()

	upload, err := h.mediaService.UploadCoverImage(r.Context(), file, header)
	if err != nil {
		writeServiceError(w, r, err, "Failed to upload cover image")
		return
	}

	user, oldKey, err := h.userService.UpdateCoverImage(r.Context(), userID, upload)
	if err != nil {
		h.mediaService.DeleteObjects(r.Context(), upload.Key)
		writeServiceError(w, r, err, "Failed to update cover image")
		return
	}
	if oldKey != nil {
		h.mediaService.DeleteObjects(r.Context(), *oldKey)
	}
	httputil.WriteOK(w, user, "Cover image updated successfully")
}

// ChannelProfile looks a channel up by username.
// GET /users/c/{username}
func (h *UserHandler) ChannelProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.userService.GetChannelProfile(r.Context(), chi.URLParam(r, "username"), viewerID(r))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "Channel does not exist")
			return
		}
		writeServiceError(w, r, err, "Failed to fetch channel")
		return
	}
	httputil.WriteOK(w, profile, "User channel fetched successfully")
}

// GET /channel/{channelId}
func (h *UserHandler) ChannelByID(w http.ResponseWriter, r *http.Request) {
	channelID, ok := pathID(w, r, "channelId")
	if !ok {
		return
	}

	profile, err := h.userService.GetChannelProfileByID(r.Context(), channelID, viewerID(r))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "Channel does not exist")
			return
		}
		writeServiceError(w, r, err, "Failed to fetch channel")
		return
	}
	httputil.WriteOK(w, profile, "Channel fetched successfully")
}

// GET /users/history
func (h *UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	page, err := h.userService.WatchHistory(r.Context(), userID, pagination(r))
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch watch history")
		return
	}
	httputil.WriteOK(w, page, "Watch history fetched successfully")
}

func (h *UserHandler) setSessionCookies(w http.ResponseWriter, r *http.Request, pair *model.TokenPair) {
	secure := isSecure(r)
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		MaxAge:   h.config.AccessTokenMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    pair.RefreshToken,
		Path:     "/",
		MaxAge:   h.config.RefreshTokenMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *UserHandler) clearSessionCookies(w http.ResponseWriter, r *http.Request) {
	secure := isSecure(r)
	for _, name := range []string{middleware.AccessTokenCookie, RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// refreshTokenFrom reads the token from a JSON body, falling back to the cookie.
// An empty or non-JSON body is not an error here.
func refreshTokenFrom(r *http.Request) string {
	var req model.RefreshRequest
	if r.Body != nil && r.ContentLength != 0 {
		_ = jsonDecodeLimited(r, &req)
	}
	if token := strings.TrimSpace(req.RefreshToken); token != "" {
		return token
	}
	if cookie, err := r.Cookie(RefreshTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func isSecure(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
