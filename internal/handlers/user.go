package handlers

import (
	"net/http"

	"matchchat-backend/internal/middleware"
	"matchchat-backend/internal/models"
	"matchchat-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// PushTokenRequest represents the request body for registering a device token
type PushTokenRequest struct {
	Token string `json:"token"`
}

// ListUsers handles GET /api/users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListUsers(r.Context())
	if err != nil {
		respondAppError(w, r, err, "Failed to list users")
		return
	}
	respondData(w, http.StatusOK, models.NewUserViews(users))
}

// UpdateProfile handles PATCH /api/users/{userId}
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	targetID := chi.URLParam(r, "userId")

	var upd models.ProfileUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}

	user, err := h.userService.UpdateProfile(ctx, userID, targetID, upd)
	if err != nil {
		respondAppError(w, r, err, "Failed to update profile")
		return
	}

	respondData(w, http.StatusOK, models.NewUserView(user))
}

// RegisterPushToken handles PUT /api/users/me/push-token
func (h *UserHandler) RegisterPushToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req PushTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.userService.RegisterPushToken(ctx, userID, req.Token); err != nil {
		respondAppError(w, r, err, "Failed to register push token")
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Message: "Push token updated"})
}
