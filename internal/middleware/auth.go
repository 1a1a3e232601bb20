package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"matchchat-backend/internal/apperr"
	"matchchat-backend/internal/models"

	"github.com/rs/zerolog/log"
)

type contextKey string

const userKey contextKey = "user"

// UserResolver resolves a bearer token to its user
type UserResolver interface {
	ResolveCurrentUser(ctx context.Context, token string) (*models.User, error)
}

// AuthMiddleware creates a middleware for JWT authentication. The resolved
// user is stored in the request context.
func AuthMiddleware(auth UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				respondError(w, "Not authorized, no token", http.StatusUnauthorized)
				return
			}

			user, err := auth.ResolveCurrentUser(r.Context(), token)
			if err != nil {
				kind := apperr.KindOf(err)
				if kind == apperr.KindUnexpected {
					log.Error().Err(err).Msg("Failed to resolve current user")
				}
				respondError(w, apperr.PublicMessage(err), apperr.HTTPStatus(kind))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header
func BearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// WithUser returns a copy of ctx carrying user
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// GetUser extracts the authenticated user from context
func GetUser(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) string {
	if user := GetUser(ctx); user != nil {
		return user.ID
	}
	return ""
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   message,
	})
}
