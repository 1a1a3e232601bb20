package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"matchchat-backend/internal/config"
	"matchchat-backend/internal/metrics"
	"matchchat-backend/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

const pushBodyLimit = 120

// PushMessage is a device alert
type PushMessage struct {
	Title  string
	Body   string
	ChatID string
}

// Pusher delivers alerts to a device token
type Pusher interface {
	Push(ctx context.Context, deviceToken string, msg PushMessage) error
}

// Presence reports whether a user has a live realtime connection
type Presence interface {
	IsOnline(userID string) bool
}

// APNsPusher sends alerts through Apple Push Notification service
type APNsPusher struct {
	client *apns2.Client
	topic  string
}

// NewAPNsPusher creates a token-authenticated APNs client
func NewAPNsPusher(cfg config.APNsConfig) (*APNsPusher, error) {
	authKey, err := token.AuthKeyFromFile(cfg.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs auth key: %w", err)
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	})
	if cfg.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}
	return &APNsPusher{client: client, topic: cfg.Topic}, nil
}

// Push sends one alert
func (p *APNsPusher) Push(ctx context.Context, deviceToken string, msg PushMessage) error {
	notification := &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       p.topic,
		Priority:    apns2.PriorityHigh,
		PushType:    apns2.PushTypeAlert,
		Payload: payload.NewPayload().
			AlertTitle(msg.Title).
			AlertBody(msg.Body).
			Sound("default").
			ThreadID(msg.ChatID).
			Custom("chatId", msg.ChatID),
	}

	res, err := p.client.PushWithContext(ctx, notification)
	if err != nil {
		return fmt.Errorf("failed to push notification: %w", err)
	}
	if !res.Sent() {
		return fmt.Errorf("apns rejected notification: %d %s", res.StatusCode, res.Reason)
	}
	return nil
}

// PushFallback decorates a Notifier: chat updates addressed to a user with no
// live connection are also sent as a device alert when a push token is known.
type PushFallback struct {
	Notifier
	presence Presence
	users    UserStore
	pusher   Pusher
	timeout  time.Duration
	metrics  *metrics.Metrics
	wg       sync.WaitGroup
}

// NewPushFallback creates a new push fallback around next
func NewPushFallback(next Notifier, presence Presence, users UserStore, pusher Pusher, timeout time.Duration, m *metrics.Metrics) *PushFallback {
	return &PushFallback{
		Notifier: next,
		presence: presence,
		users:    users,
		pusher:   pusher,
		timeout:  timeout,
		metrics:  m,
	}
}

// PublishChatUpdate forwards the update and pushes an alert to offline recipients
func (p *PushFallback) PublishChatUpdate(userID string, update models.ChatUpdate) {
	p.Notifier.PublishChatUpdate(userID, update)

	if update.LastMessage.SenderID == userID || p.presence.IsOnline(userID) {
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		p.push(ctx, userID, update)
	}()
}

func (p *PushFallback) push(ctx context.Context, userID string, update models.ChatUpdate) {
	recipient, err := p.users.GetByID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to load push recipient")
		p.metrics.PushNotifications.WithLabelValues("failed").Inc()
		return
	}
	if recipient.PushToken == nil || *recipient.PushToken == "" {
		p.metrics.PushNotifications.WithLabelValues("skipped").Inc()
		return
	}

	title := "New message"
	if sender, err := p.users.GetByID(ctx, update.LastMessage.SenderID); err == nil {
		title = sender.Name
	}

	msg := PushMessage{
		Title:  title,
		Body:   pushBody(update.LastMessage),
		ChatID: update.ChatID,
	}
	if err := p.pusher.Push(ctx, *recipient.PushToken, msg); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Str("chat_id", update.ChatID).Msg("Push notification failed")
		p.metrics.PushNotifications.WithLabelValues("failed").Inc()
		return
	}
	p.metrics.PushNotifications.WithLabelValues("sent").Inc()
	log.Debug().Str("user_id", userID).Str("chat_id", update.ChatID).Msg("Push notification sent")
}

// Wait blocks until in-flight pushes finish
func (p *PushFallback) Wait() {
	p.wg.Wait()
}

func pushBody(msg models.MessageView) string {
	if msg.Type == models.MessageTypeImage {
		return "Sent a photo"
	}
	body := []rune(msg.Text)
	if len(body) > pushBodyLimit {
		return string(body[:pushBodyLimit-1]) + "…"
	}
	return msg.Text
}
