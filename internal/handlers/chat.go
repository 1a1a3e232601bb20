package handlers

import (
	"net/http"

	"matchchat-backend/internal/middleware"
	"matchchat-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// ChatHandler handles chat-related HTTP requests
type ChatHandler struct {
	chatService *services.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// ListChats handles GET /api/chats?userId=
func (h *ChatHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	chats, err := h.chatService.ListChatsForUser(ctx, middleware.GetUserID(ctx), r.URL.Query().Get("userId"))
	if err != nil {
		respondAppError(w, r, err, "Failed to list chats")
		return
	}
	respondData(w, http.StatusOK, chats)
}

// GetChat handles GET /api/chats/{chatId}
func (h *ChatHandler) GetChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	chat, err := h.chatService.GetChat(ctx, chi.URLParam(r, "chatId"), middleware.GetUserID(ctx))
	if err != nil {
		respondAppError(w, r, err, "Failed to get chat")
		return
	}
	respondData(w, http.StatusOK, chat)
}

// CreateChat handles POST /api/chats. An existing chat is returned with 200,
// a new one with 201.
func (h *ChatHandler) CreateChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in services.CreateChatInput
	if !decodeJSON(w, r, &in) {
		return
	}

	chat, created, err := h.chatService.CreateOrGetChat(ctx, middleware.GetUserID(ctx), in)
	if err != nil {
		respondAppError(w, r, err, "Failed to create chat")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondData(w, status, chat)
}
