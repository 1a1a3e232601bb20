package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"matchchat-backend/internal/apperr"

	"github.com/rs/zerolog/log"
)

// Response is the envelope of every JSON response
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Token   string `json:"token,omitempty"`
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// respondData sends a successful response carrying data
func respondData(w http.ResponseWriter, statusCode int, data any) {
	respondJSON(w, statusCode, Response{Success: true, Data: data})
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, Response{Success: false, Error: message})
}

// respondAppError maps a service error onto its status and public message.
// Unexpected errors are logged with their cause and reported generically.
func respondAppError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindUnexpected {
		log.Error().Err(err).Str("path", r.URL.Path).Msg(msg)
	}
	respondError(w, apperr.PublicMessage(err), apperr.HTTPStatus(kind))
}

// decodeJSON decodes the request body into v. An empty body decodes to the
// zero value.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}
