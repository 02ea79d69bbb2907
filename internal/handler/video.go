package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"streamify/internal/httputil"
	"streamify/internal/model"
	"streamify/internal/service"
)

type VideoHandler struct {
	videoService VideoService
	mediaService MediaService
	feedService  FeedService
}

func NewVideoHandler(videoService VideoService, mediaService MediaService, feedService FeedService) *VideoHandler {
	return &VideoHandler{
		videoService: videoService,
		mediaService: mediaService,
		feedService:  feedService,
	}
}

// List handles GET /videos
//
// Query params:
//   - page, limit: pagination
//   - query: matched against title and description
//   - sortBy: createdAt | views | duration | title
//   - sortType: asc | desc
//   - userId: restrict to one channel
func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := model.VideoListParams{
		Pagination: pagination(r),
		Query:      q.Get("query"),
		SortBy:     q.Get("sortBy"),
		SortType:   q.Get("sortType"),
	}
	if raw := q.Get("userId"); raw != "" {
		ownerID, err := model.ParseID(raw)
		if err != nil {
			httputil.WriteBadRequest(w, "Invalid userId")
			return
		}
		params.OwnerID = &ownerID
	}

	page, err := h.videoService.List(r.Context(), params, viewerID(r))
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch videos")
		return
	}
	httputil.WriteOK(w, page, "Videos fetched successfully")
}

// Publish handles POST /videos as multipart with videoFile, thumbnail, title,
// description and duration. Metadata is validated before anything is uploaded.
func (h *VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if !parseMultipart(w, r, model.MaxVideoSizeBytes+model.ThumbnailSpec.MaxSizeBytes+formOverhead) {
		return
	}
	defer cleanupMultipart(r)

	req := model.CreateVideoRequest{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Duration:    parseFloat(r.FormValue("duration")),
	}
	if err := service.ValidateCreate(&req); err != nil {
		writeServiceError(w, r, err, "Failed to publish video")
		return
	}

	videoFile, videoHeader, err := r.FormFile("videoFile")
	if err != nil {
		writeServiceError(w, r, model.ErrVideoFileRequired, "")
		return
	}
	defer videoFile.Close()
	thumbFile, thumbHeader, err := r.FormFile("thumbnail")
	if err != nil {
		writeServiceError(w, r, model.ErrThumbnailRequired, "")
		return
	}
	defer thumbFile.Close()

	video, err := h.mediaService.UploadVideo(r.Context(), videoFile, videoHeader)
	if err != nil {
		writeServiceError(w, r, err, "Failed to upload video")
		return
	}
	thumb, err := h.mediaService.UploadThumbnail(r.Context(), thumbFile, thumbHeader)
	if err != nil {
		h.mediaService.DeleteObjects(r.Context(), video.Key)
		writeServiceError(w, r, err, "Failed to upload thumbnail")
		return
	}

	req.VideoURL, req.VideoKey = video.URL, video.Key
	req.ThumbnailURL, req.ThumbnailKey = thumb.URL, thumb.Key

	created, err := h.videoService.Publish(r.Context(), userID, &req)
	if err != nil {
		h.mediaService.DeleteObjects(r.Context(), video.Key, thumb.Key)
		writeServiceError(w, r, err, "Failed to publish video")
		return
	}
	httputil.WriteCreated(w, created, "Video published successfully")
}

// Get handles GET /videos/{videoId}. Each call counts as a view.
func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	videoID, ok := pathID(w, r, "videoId")
	if !ok {
		return
	}

	details, err := h.videoService.GetDetails(r.Context(), videoID, viewerID(r))
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch video")
		return
	}
	httputil.WriteOK(w, details, "Video fetched successfully")
}

// Update handles PATCH /videos/{videoId}. It accepts JSON, or multipart when
// a new thumbnail is sent along.
func (h *VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	videoID, ok := pathID(w, r, "videoId")
	if !ok {
		return
	}

	var req model.UpdateVideoRequest
	if isMultipart(r) {
		if !parseMultipart(w, r, model.ThumbnailSpec.MaxSizeBytes+formOverhead) {
			return
		}
		defer cleanupMultipart(r)

		req.Title = formValuePtr(r, "title")
		req.Description = formValuePtr(r, "description")

		file, header, err := r.FormFile("thumbnail")
		switch {
		case err == nil:
			defer file.Close()
			// Ownership is checked first so a stranger cannot fill the bucket.
			if _, err := h.videoService.GetOwned(r.Context(), videoID, userID); err != nil {
				writeServiceError(w, r, err, "Failed to update video")
				return
			}
			thumb, err := h.mediaService.UploadThumbnail(r.Context(), file, header)
			if err != nil {
				writeServiceError(w, r, err, "Failed to upload thumbnail")
				return
			}
			req.ThumbnailURL, req.ThumbnailKey = &thumb.URL, &thumb.Key
		case !errors.Is(err, http.ErrMissingFile):
			httputil.WriteBadRequest(w, "Invalid thumbnail upload")
			return
		}
	} else if !decodeJSON(w, r, &req) {
		return
	}

	video, replacedKey, err := h.videoService.Update(r.Context(), videoID, userID, &req)
	if err != nil {
		if req.ThumbnailKey != nil {
			h.mediaService.DeleteObjects(r.Context(), *req.ThumbnailKey)
		}
		writeServiceError(w, r, err, "Failed to update video")
		return
	}
	h.mediaService.DeleteObjects(r.Context(), replacedKey)
	httputil.WriteOK(w, video, "Video updated successfully")
}

// Delete handles DELETE /videos/{videoId} and removes the stored files.
func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	videoID, ok := pathID(w, r, "videoId")
	if !ok {
		return
	}

	video, err := h.videoService.Delete(r.Context(), videoID, userID)
	if err != nil {
		writeServiceError(w, r, err, "Failed to delete video")
		return
	}
	h.mediaService.DeleteObjects(r.Context(), video.VideoKey, video.ThumbnailKey)
	httputil.WriteOK(w, struct{}{}, "Video deleted successfully")
}

// TogglePublish handles PATCH /videos/toggle/publish/{videoId}
func (h *VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	videoID, ok := pathID(w, r, "videoId")
	if !ok {
		return
	}

	video, err := h.videoService.TogglePublish(r.Context(), videoID, userID)
	if err != nil {
		writeServiceError(w, r, err, "Failed to toggle publish status")
		return
	}
	httputil.WriteOK(w, video, "Publish status toggled successfully")
}

// Feed handles GET /videos/feed
// Returns the subscription feed of the authenticated user.
//
// Query params:
//   - cursor: optional, "videoId:timestamp" from the previous page
//   - limit: optional, videos per page (default 10, max 50)
func (h *VideoHandler) Feed(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var cursor *string
	if c := r.URL.Query().Get("cursor"); c != "" {
		cursor = &c
	}

	limit := service.FeedDefaultLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed <= 0 {
			httputil.WriteBadRequest(w, "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	feed, err := h.feedService.GetFeed(r.Context(), userID, cursor, limit)
	if err != nil {
		writeServiceError(w, r, err, "Failed to get feed")
		return
	}
	httputil.WriteOK(w, feed, "Feed fetched successfully")
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// formValuePtr returns nil when the field is absent from the form.
func formValuePtr(r *http.Request, key string) *string {
	if r.MultipartForm == nil {
		return nil
	}
	values, ok := r.MultipartForm.Value[key]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}
