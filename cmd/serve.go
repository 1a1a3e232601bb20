package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"matchchat-backend/internal/config"
	"matchchat-backend/internal/handlers"
	"matchchat-backend/internal/metrics"
	"matchchat-backend/internal/services"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

// NewServeCmd creates the serve subcommand
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and WebSocket server",
		RunE:  runServe,
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, err := openStorage(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer store.close()

	m := metrics.New()

	// Initialize services
	tokens := services.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL)
	authService := services.NewAuthService(store.users, tokens)
	userService := services.NewUserService(store.users)
	chatService := services.NewChatService(store.users, store.chats, store.messages, m)
	wsHub := services.NewWSHub(store.chats, m)

	var notifier services.Notifier = wsHub
	var pushFallback *services.PushFallback
	if cfg.APNs.Enabled() {
		pusher, err := services.NewAPNsPusher(cfg.APNs)
		if err != nil {
			return err
		}
		pushFallback = services.NewPushFallback(wsHub, wsHub, store.users, pusher, cfg.APNs.Timeout, m)
		notifier = pushFallback
		log.Info().Bool("production", cfg.APNs.Production).Msg("APNs push notifications enabled")
	}
	messageService := services.NewMessageService(chatService, store.messages, notifier, m)

	mediaService, err := newMediaService(ctx, cfg.AWS, chatService)
	if err != nil {
		return err
	}

	router := handlers.NewRouter(handlers.RouterDeps{
		Auth:           authService,
		Users:          userService,
		Chats:          chatService,
		Messages:       messageService,
		Media:          mediaService,
		Hub:            wsHub,
		Metrics:        m,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Str("driver", cfg.Database.Driver).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return err
	case <-quit:
	}

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Hijacked WebSocket connections are not tracked by the server
	wsHub.Close()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if pushFallback != nil {
		pushFallback.Wait()
	}

	log.Info().Msg("Server exited")
	return nil
}

// newMediaService enables uploads when a bucket is configured
func newMediaService(ctx context.Context, cfg config.AWSConfig, chats *services.ChatService) (*services.MediaService, error) {
	var presigner services.Presigner
	if cfg.S3Bucket != "" {
		s3Presigner, err := services.NewS3Presigner(ctx, cfg)
		if err != nil {
			return nil, err
		}
		presigner = s3Presigner
		log.Info().Str("bucket", cfg.S3Bucket).Msg("Media uploads enabled")
	}
	return services.NewMediaService(presigner, chats, cfg), nil
}
