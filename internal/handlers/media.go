package handlers

import (
	"errors"
	"net/http"

	"matchchat-backend/internal/middleware"
	"matchchat-backend/internal/services"
)

// MediaHandler handles upload URL requests
type MediaHandler struct {
	mediaService *services.MediaService
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(mediaService *services.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

// CreateUploadURL handles POST /api/media/upload-url
func (h *MediaHandler) CreateUploadURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req services.UploadRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.mediaService.CreateUploadURL(ctx, middleware.GetUserID(ctx), req)
	if errors.Is(err, services.ErrMediaDisabled) {
		respondError(w, "Media uploads are not configured", http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		respondAppError(w, r, err, "Failed to create upload URL")
		return
	}
	respondData(w, http.StatusOK, resp)
}
