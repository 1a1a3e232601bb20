package handlers

import (
	"net/http"

	"matchchat-backend/internal/middleware"
	"matchchat-backend/internal/models"
	"matchchat-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// MessageHandler handles message-related HTTP requests
type MessageHandler struct {
	messageService *services.MessageService
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messageService *services.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// MarkReadResult is the data of a mark read response
type MarkReadResult struct {
	Count int64 `json:"count"`
}

// SendMessage handles POST /api/chats/{chatId}/messages
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in services.SendMessageInput
	if !decodeJSON(w, r, &in) {
		return
	}

	msg, err := h.messageService.SendMessage(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "chatId"), in)
	if err != nil {
		respondAppError(w, r, err, "Failed to send message")
		return
	}
	respondData(w, http.StatusCreated, models.NewMessageView(msg))
}

// MarkRead handles POST /api/chats/{chatId}/read
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in services.MarkReadInput
	if !decodeJSON(w, r, &in) {
		return
	}

	count, err := h.messageService.MarkRead(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "chatId"), in)
	if err != nil {
		respondAppError(w, r, err, "Failed to mark messages as read")
		return
	}
	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Messages marked as read",
		Data:    MarkReadResult{Count: count},
	})
}
