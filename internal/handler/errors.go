package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"streamify/internal/httputil"
	"streamify/internal/logging"
	"streamify/internal/model"
	"streamify/internal/transport/http/middleware"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

var (
	badRequestErrors = []error{
		model.ErrInvalidID,
		model.ErrFieldsRequired,
		model.ErrPasswordTooShort,
		model.ErrInvalidPassword,
		model.ErrAvatarRequired,
		model.ErrTitleRequired,
		model.ErrTitleTooLong,
		model.ErrDescriptionTooLong,
		model.ErrVideoFileRequired,
		model.ErrThumbnailRequired,
		model.ErrNothingToUpdate,
		model.ErrContentRequired,
		model.ErrContentTooLong,
		model.ErrPlaylistNameMissing,
		model.ErrPlaylistNameTooLong,
		model.ErrCannotSubscribeSelf,
		model.ErrInvalidLikeTarget,
		model.ErrInvalidCursor,
	}
	notFoundErrors = []error{
		model.ErrUserNotFound,
		model.ErrChannelNotFound,
		model.ErrVideoNotFound,
		model.ErrCommentNotFound,
		model.ErrTweetNotFound,
		model.ErrPlaylistNotFound,
	}
	forbiddenErrors = []error{
		model.ErrNotVideoOwner,
		model.ErrNotCommentOwner,
		model.ErrNotTweetOwner,
		model.ErrNotPlaylistOwner,
	}
)

// matchAny returns the sentinel err wraps, so the client sees the bare
// domain message rather than any wrapping context.
func matchAny(err error, targets []error) error {
	for _, target := range targets {
		if errors.Is(err, target) {
			return target
		}
	}
	return nil
}

// writeServiceError maps a domain error onto the error envelope. Anything
// unrecognized is logged and reported as a 500 with the fallback message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, model.ErrFileTooLarge):
		httputil.WriteBadRequest(w, "File exceeds the size limit", model.CodeFileTooLarge)
	case errors.Is(err, model.ErrInvalidImageType):
		httputil.WriteBadRequest(w, "Unsupported image type. Allowed: jpeg, png, gif, webp", model.CodeInvalidImageType)
	case errors.Is(err, model.ErrInvalidVideoType):
		httputil.WriteBadRequest(w, "Unsupported video type", model.CodeInvalidVideoType)
	case errors.Is(err, model.ErrInvalidCredentials):
		httputil.WriteUnauthorized(w, "Invalid user credentials")
	case errors.Is(err, model.ErrRefreshTokenNotFound):
		httputil.WriteUnauthorized(w, "Invalid refresh token", model.CodeTokenInvalid)
	case errors.Is(err, model.ErrRefreshTokenExpired):
		httputil.WriteUnauthorized(w, "Refresh token has expired", model.CodeTokenExpired)
	case errors.Is(err, model.ErrRefreshTokenReused):
		httputil.WriteUnauthorized(w, "Refresh token reuse detected. Please login again.", model.CodeTokenReused)
	case errors.Is(err, model.ErrUserExists):
		httputil.WriteConflict(w, "User with email or username already exists")
	default:
		if target := matchAny(err, badRequestErrors); target != nil {
			httputil.WriteBadRequest(w, target.Error())
			return
		}
		if target := matchAny(err, notFoundErrors); target != nil {
			httputil.WriteNotFound(w, target.Error())
			return
		}
		if target := matchAny(err, forbiddenErrors); target != nil {
			httputil.WriteForbidden(w, target.Error())
			return
		}
		logging.Component(r.Context(), "handler").Error(fallback, "error", err)
		httputil.WriteInternalError(w, fallback)
	}
}

// requireUser returns the authenticated user id, writing 401 when absent.
func requireUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Unauthorized request")
	}
	return userID, ok
}

// viewerID returns the optional viewer for public reads.
func viewerID(r *http.Request) *uuid.UUID {
	if id, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		return &id
	}
	return nil
}

// pathID parses a uuid URL parameter, writing 400 when malformed.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := model.ParseID(chi.URLParam(r, name))
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func pagination(r *http.Request) model.Pagination {
	q := r.URL.Query()
	return model.NewPagination(q.Get("page"), q.Get("limit"))
}

// decodeJSON reads a bounded JSON body, writing 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return false
	}
	return true
}

// jsonDecodeLimited decodes a bounded body without writing a response.
func jsonDecodeLimited(r *http.Request, dst interface{}) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(dst)
}

func parseFloat(raw string) float64 {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}
