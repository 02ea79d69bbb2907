package handler

import (
	"net/http"

	"streamify/internal/httputil"
)

type SubscriptionHandler struct {
	subscriptionService SubscriptionService
}

func NewSubscriptionHandler(subscriptionService SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

// Toggle handles POST /subscriptions/c/{channelId}
func (h *SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	channelID, ok := pathID(w, r, "channelId")
	if !ok {
		return
	}

	result, err := h.subscriptionService.Toggle(r.Context(), userID, channelID)
	if err != nil {
		writeServiceError(w, r, err, "Failed to toggle subscription")
		return
	}

	message := "Unsubscribed successfully"
	if result.IsSubscribed {
		message = "Subscribed successfully"
	}
	httputil.WriteOK(w, result, message)
}

// Subscribers handles GET /subscriptions/c/{channelId}
func (h *SubscriptionHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	channelID, ok := pathID(w, r, "channelId")
	if !ok {
		return
	}

	page, err := h.subscriptionService.ListSubscribers(r.Context(), channelID, pagination(r))
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch subscribers")
		return
	}
	httputil.WriteOK(w, page, "Subscribers fetched successfully")
}

// SubscribedChannels handles GET /subscriptions/u/{subscriberId}
func (h *SubscriptionHandler) SubscribedChannels(w http.ResponseWriter, r *http.Request) {
	subscriberID, ok := pathID(w, r, "subscriberId")
	if !ok {
		return
	}

	page, err := h.subscriptionService.ListSubscribedChannels(r.Context(), subscriberID, pagination(r))
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch subscribed channels")
		return
	}
	httputil.WriteOK(w, page, "Subscribed channels fetched successfully")
}
