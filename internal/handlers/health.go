package handlers

import "net/http"

// Health handles GET /api/health
func Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, Response{Success: true, Message: "Server is running"})
}

// NotFound handles unknown routes
func NotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, "Route not found", http.StatusNotFound)
}
