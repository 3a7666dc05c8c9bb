package api

import (
	"net/http"

	"github.com/imaxbooking/chat-server/models"
	"github.com/imaxbooking/chat-server/store"
)

// historyLimit caps the number of messages returned by the history endpoint.
const historyLimit = 50

type ChatHandler struct {
	messageStore store.MessageStore
}

func NewChatHandler(messageStore store.MessageStore) *ChatHandler {
	return &ChatHandler{messageStore: messageStore}
}

// HistoryHandler returns the most recent messages visible to the caller:
// messages they sent, direct messages addressed to them and global messages.
// The result is ordered oldest first so clients can append as they render.
func (h *ChatHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) error {
	identity := IdentityFromRequest(r)

	messages, err := h.messageStore.QueryRecent(r.Context(),
		store.MessageFilter{Participant: identity.UserID}, historyLimit)
	if err != nil {
		return err
	}

	if messages == nil {
		messages = []models.Message{}
	}

	return WriteJsonResponse(w, messages)
}
