package handler

import (
	"net/http"

	"streamify/internal/httputil"
	"streamify/internal/model"
)

type LikeHandler struct {
	likeService LikeService
}

func NewLikeHandler(likeService LikeService) *LikeHandler {
	return &LikeHandler{likeService: likeService}
}

// ToggleVideo handles POST /likes/toggle/v/{videoId}
func (h *LikeHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, model.LikeTargetVideo, "videoId")
}

// ToggleComment handles POST /likes/toggle/c/{commentId}
func (h *LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, model.LikeTargetComment, "commentId")
}

// ToggleTweet handles POST /likes/toggle/t/{tweetId}
func (h *LikeHandler) ToggleTweet(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, model.LikeTargetTweet, "tweetId")
}

// toggle returns the canonical state after the flip so clients can reconcile
// optimistic updates against it.
func (h *LikeHandler) toggle(w http.ResponseWriter, r *http.Request, target model.LikeTarget, param string) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	targetID, ok := pathID(w, r, param)
	if !ok {
		return
	}

	result, err := h.likeService.Toggle(r.Context(), target, userID, targetID)
	if err != nil {
		writeServiceError(w, r, err, "Failed to toggle like")
		return
	}

	message := "Like removed successfully"
	if result.IsLiked {
		message = "Liked successfully"
	}
	httputil.WriteOK(w, result, message)
}

// LikedVideos handles GET /likes/videos
func (h *LikeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	page, err := h.likeService.LikedVideos(r.Context(), userID, pagination(r))
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch liked videos")
		return
	}
	httputil.WriteOK(w, page, "Liked videos fetched successfully")
}
