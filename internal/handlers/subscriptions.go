package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/apierror"
	"github.com/vidtube/backend/internal/response"
)

// SubscriptionHandler serves channel subscription endpoints.
type SubscriptionHandler struct {
	Subscriptions SubscriptionStore
}

// Toggle handles POST /subscriptions/c/{channelId}.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) error {
	channelID, err := pathID(r, "channelId", "Invalid channel ID format")
	if err != nil {
		return err
	}
	caller := callerID(r)
	if channelID == caller {
		return apierror.BadRequest("You cannot subscribe to your own channel")
	}

	subscribed, err := h.Subscriptions.Toggle(r.Context(), caller, channelID)
	if err != nil {
		return notFound(err, "Channel not found")
	}

	message := "Unsubscribed successfully"
	if subscribed {
		message = "Subscribed successfully"
	}
	response.OK(r.Context(), w, message, map[string]any{"subscribed": subscribed})
	return nil
}

// Channels handles GET /subscriptions/channels.
func (h SubscriptionHandler) Channels(w http.ResponseWriter, r *http.Request) error {
	channels, err := h.Subscriptions.Channels(r.Context(), callerID(r))
	if err != nil {
		return err
	}
	response.OK(r.Context(), w, "Subscribed channels retrieved successfully", map[string]any{"channels": channels})
	return nil
}

// Subscribers handles GET /subscriptions/u/{channelId}.
func (h SubscriptionHandler) Subscribers(w http.ResponseWriter, r *http.Request) error {
	channelID, err := pathID(r, "channelId", "Invalid channel ID format")
	if err != nil {
		return err
	}

	subscribers, err := h.Subscriptions.Subscribers(r.Context(), channelID)
	if err != nil {
		return err
	}
	response.OK(r.Context(), w, "Subscribers retrieved successfully", map[string]any{"subscribers": subscribers})
	return nil
}
