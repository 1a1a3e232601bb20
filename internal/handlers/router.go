package handlers

import (
	"net/http"
	"time"

	"matchchat-backend/internal/metrics"
	"matchchat-backend/internal/middleware"
	"matchchat-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// RouterDeps holds everything the HTTP router dispatches to
type RouterDeps struct {
	Auth           *services.AuthService
	Users          *services.UserService
	Chats          *services.ChatService
	Messages       *services.MessageService
	Media          *services.MediaService
	Hub            *services.WSHub
	Metrics        *metrics.Metrics
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// NewRouter builds the HTTP router of the service
func NewRouter(deps RouterDeps) http.Handler {
	authHandler := NewAuthHandler(deps.Auth)
	userHandler := NewUserHandler(deps.Users)
	chatHandler := NewChatHandler(deps.Chats)
	messageHandler := NewMessageHandler(deps.Messages)
	mediaHandler := NewMediaHandler(deps.Media)
	wsHandler := NewWebSocketHandler(deps.Hub, deps.Auth)

	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(deps.Metrics))
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: deps.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler)

	r.NotFound(NotFound)

	// Routes
	r.Route("/api", func(r chi.Router) {
		if deps.RequestTimeout > 0 {
			r.Use(chiMiddleware.Timeout(deps.RequestTimeout))
		}

		// Public routes
		r.Get("/health", Health)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(deps.Auth))

			r.Get("/auth/me", authHandler.Me)
			r.Post("/auth/logout", authHandler.Logout)

			r.Get("/users", userHandler.ListUsers)
			r.Put("/users/me/push-token", userHandler.RegisterPushToken)
			r.Patch("/users/{userId}", userHandler.UpdateProfile)

			r.Get("/chats", chatHandler.ListChats)
			r.Post("/chats", chatHandler.CreateChat)
			r.Get("/chats/{chatId}", chatHandler.GetChat)
			r.Post("/chats/{chatId}/messages", messageHandler.SendMessage)
			r.Post("/chats/{chatId}/read", messageHandler.MarkRead)

			r.Post("/media/upload-url", mediaHandler.CreateUploadURL)
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	return r
}
