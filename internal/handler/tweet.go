package handler

import (
	"net/http"

	"streamify/internal/httputil"
	"streamify/internal/model"
)

type TweetHandler struct {
	tweetService TweetService
}

func NewTweetHandler(tweetService TweetService) *TweetHandler {
	return &TweetHandler{tweetService: tweetService}
}

// POST /tweets
func (h *TweetHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	content, ok := tweetContent(w, r)
	if !ok {
		return
	}

	tweet, err := h.tweetService.Create(r.Context(), userID, content)
	if err != nil {
		writeServiceError(w, r, err, "Failed to create tweet")
		return
	}
	httputil.WriteCreated(w, tweet, "Tweet created successfully")
}

// GET /tweets/user/{userId}
func (h *TweetHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}

	page, err := h.tweetService.ListByUser(r.Context(), userID, pagination(r), viewerID(r))
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch tweets")
		return
	}
	httputil.WriteOK(w, page, "Tweets fetched successfully")
}

// PATCH /tweets/{tweetId}
func (h *TweetHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	tweetID, ok := pathID(w, r, "tweetId")
	if !ok {
		return
	}
	content, ok := tweetContent(w, r)
	if !ok {
		return
	}

	tweet, err := h.tweetService.Update(r.Context(), tweetID, userID, content)
	if err != nil {
		writeServiceError(w, r, err, "Failed to update tweet")
		return
	}
	httputil.WriteOK(w, tweet, "Tweet updated successfully")
}

// DELETE /tweets/{tweetId}
func (h *TweetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	tweetID, ok := pathID(w, r, "tweetId")
	if !ok {
		return
	}

	if err := h.tweetService.Delete(r.Context(), tweetID, userID); err != nil {
		writeServiceError(w, r, err, "Failed to delete tweet")
		return
	}
	httputil.WriteOK(w, struct{}{}, "Tweet deleted successfully")
}

// tweetContent reads {content} from the body, falling back to ?tweet= for
// older clients that send the text as a query parameter.
func tweetContent(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req model.TweetRequest
	if r.ContentLength != 0 {
		if !decodeJSON(w, r, &req) {
			return "", false
		}
	}
	if req.Content == "" {
		req.Content = r.URL.Query().Get("tweet")
	}
	return req.Content, true
}
