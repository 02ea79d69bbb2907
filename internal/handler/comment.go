package handler

import (
	"net/http"

	"streamify/internal/httputil"
	"streamify/internal/model"
)

type CommentHandler struct {
	commentService CommentService
}

func NewCommentHandler(commentService CommentService) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
	}
}

// List handles GET /comments/{videoId}
// Returns one page of the video's comments, newest first.
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	videoID, ok := pathID(w, r, "videoId")
	if !ok {
		return
	}

	page, err := h.commentService.List(r.Context(), videoID, pagination(r))
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch comments")
		return
	}
	httputil.WriteOK(w, page, "Comments fetched successfully")
}

// Create handles POST /comments/{videoId}
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	videoID, ok := pathID(w, r, "videoId")
	if !ok {
		return
	}
	var req model.CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.commentService.Add(r.Context(), videoID, userID, req.Text())
	if err != nil {
		writeServiceError(w, r, err, "Failed to add comment")
		return
	}
	httputil.WriteCreated(w, comment, "Comment added successfully")
}

// Update handles PATCH /comments/c/{commentId}
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	commentID, ok := pathID(w, r, "commentId")
	if !ok {
		return
	}
	var req model.CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.commentService.Update(r.Context(), commentID, userID, req.Text())
	if err != nil {
		writeServiceError(w, r, err, "Failed to update comment")
		return
	}
	httputil.WriteOK(w, comment, "Comment updated successfully")
}

// Delete handles DELETE /comments/c/{commentId}
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	commentID, ok := pathID(w, r, "commentId")
	if !ok {
		return
	}

	if err := h.commentService.Delete(r.Context(), commentID, userID); err != nil {
		writeServiceError(w, r, err, "Failed to delete comment")
		return
	}
	httputil.WriteOK(w, struct{}{}, "Comment deleted successfully")
}
