package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"streamify/internal/httputil"
	"streamify/internal/model"
)

type PlaylistHandler struct {
	playlistService PlaylistService
}

func NewPlaylistHandler(playlistService PlaylistService) *PlaylistHandler {
	return &PlaylistHandler{playlistService: playlistService}
}

// POST /playlist/create
func (h *PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req model.PlaylistRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	playlist, err := h.playlistService.Create(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, err, "Failed to create playlist")
		return
	}
	httputil.WriteCreated(w, playlist, "Playlist created successfully")
}

// AddVideo handles POST /playlist/add-video. Adding a video already in the
// playlist leaves it unchanged.
func (h *PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	h.changeVideos(w, r, h.playlistService.AddVideo, "Video added to playlist")
}

// RemoveVideo handles POST /playlist/remove-video
func (h *PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	h.changeVideos(w, r, h.playlistService.RemoveVideo, "Video removed from playlist")
}

type playlistVideoFunc func(ctx context.Context, playlistID, videoID, userID uuid.UUID) (*model.Playlist, error)

func (h *PlaylistHandler) changeVideos(w http.ResponseWriter, r *http.Request, change playlistVideoFunc, message string) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req model.PlaylistVideoRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	playlistID, err := model.ParseID(req.PlaylistID)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid playlistId")
		return
	}
	videoID, err := model.ParseID(req.VideoID)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid videoId")
		return
	}

	playlist, err := change(r.Context(), playlistID, videoID, userID)
	if err != nil {
		writeServiceError(w, r, err, "Failed to update playlist")
		return
	}
	httputil.WriteOK(w, playlist, message)
}

// Mine handles GET /playlist/user
func (h *PlaylistHandler) Mine(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	h.writeOwned(w, r, userID)
}

// ByChannel handles GET /playlist/channel/{userId}
func (h *PlaylistHandler) ByChannel(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	h.writeOwned(w, r, ownerID)
}

func (h *PlaylistHandler) writeOwned(w http.ResponseWriter, r *http.Request, ownerID uuid.UUID) {
	playlists, err := h.playlistService.ListByOwner(r.Context(), ownerID)
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch playlists")
		return
	}
	httputil.WriteOK(w, playlists, "Playlists fetched successfully")
}

// Details handles GET /playlist/{playlistId}/details
func (h *PlaylistHandler) Details(w http.ResponseWriter, r *http.Request) {
	playlistID, ok := pathID(w, r, "playlistId")
	if !ok {
		return
	}

	details, err := h.playlistService.GetDetails(r.Context(), playlistID, viewerID(r))
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch playlist")
		return
	}
	httputil.WriteOK(w, details, "Playlist fetched successfully")
}

// PATCH /playlist/{playlistId}
func (h *PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	playlistID, ok := pathID(w, r, "playlistId")
	if !ok {
		return
	}
	var req model.PlaylistRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	playlist, err := h.playlistService.Update(r.Context(), playlistID, userID, req)
	if err != nil {
		writeServiceError(w, r, err, "Failed to update playlist")
		return
	}
	httputil.WriteOK(w, playlist, "Playlist updated successfully")
}

// DELETE /playlist/{playlistId}
func (h *PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	playlistID, ok := pathID(w, r, "playlistId")
	if !ok {
		return
	}

	if err := h.playlistService.Delete(r.Context(), playlistID, userID); err != nil {
		writeServiceError(w, r, err, "Failed to delete playlist")
		return
	}
	httputil.WriteOK(w, struct{}{}, "Playlist deleted successfully")
}
