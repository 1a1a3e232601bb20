package handlers

import (
	"net/http"

	"matchchat-backend/internal/middleware"
	"matchchat-backend/internal/models"
	"matchchat-backend/internal/services"
)

// AuthHandler handles registration, login and session requests
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if !decodeJSON(w, r, &in) {
		return
	}

	user, err := h.authService.Register(r.Context(), in)
	if err != nil {
		respondAppError(w, r, err, "Failed to register user")
		return
	}

	respondData(w, http.StatusCreated, models.NewUserView(user))
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in services.LoginInput
	if !decodeJSON(w, r, &in) {
		return
	}

	user, token, err := h.authService.Login(r.Context(), in)
	if err != nil {
		respondAppError(w, r, err, "Failed to log in")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    models.NewUserView(user),
		Token:   token,
	})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		respondError(w, "Not authorized, user not found", http.StatusUnauthorized)
		return
	}
	respondData(w, http.StatusOK, models.NewUserView(user))
}

// Logout handles POST /api/auth/logout. Tokens are stateless, the client
// discards its copy.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, Response{Success: true, Message: "Logged out successfully"})
}
