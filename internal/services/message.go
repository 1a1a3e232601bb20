package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"matchchat-backend/internal/apperr"
	"matchchat-backend/internal/metrics"
	"matchchat-backend/internal/models"
	"matchchat-backend/internal/repository"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"
)

// SendMessageInput is the payload of a send message request
type SendMessageInput struct {
	SenderID string  `json:"senderId"`
	Text     string  `json:"text"`
	Type     string  `json:"type"`
	ImageURL *string `json:"imageUrl"`
}

// MarkReadInput is the payload of a mark read request
type MarkReadInput struct {
	UserID string `json:"userId"`
}

// MessageService appends messages, marks them read and triggers fan-out
type MessageService struct {
	chats    *ChatService
	messages MessageStore
	notifier Notifier
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewMessageService creates a new message service
func NewMessageService(chats *ChatService, messages MessageStore, notifier Notifier, m *metrics.Metrics) *MessageService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &MessageService{
		chats:    chats,
		messages: messages,
		notifier: notifier,
		metrics:  m,
		now:      time.Now,
	}
}

// SendMessage appends a message to a chat and publishes it to the chat
// channel and to the user channel of each participant.
func (s *MessageService) SendMessage(ctx context.Context, actingUserID, chatID string, in SendMessageInput) (*models.Message, error) {
	text := strings.TrimSpace(in.Text)
	if in.SenderID == "" || text == "" || in.Type == "" {
		return nil, apperr.Validation("senderId, text, and type are required")
	}
	if in.SenderID != actingUserID {
		return nil, apperr.Forbidden("Not authorized to send message as this user")
	}
	msgType := models.MessageType(in.Type)
	if !msgType.Valid() {
		return nil, apperr.Validation(`Type must be "text", "image", or "system"`)
	}
	var imageURL *string
	if in.ImageURL != nil {
		if u := strings.TrimSpace(*in.ImageURL); u != "" {
			imageURL = &u
		}
	}
	if msgType == models.MessageTypeImage && imageURL == nil {
		return nil, apperr.Validation("imageUrl is required for image messages")
	}

	chat, err := s.chats.participantChat(ctx, chatID, in.SenderID, "Not authorized to send message to this chat")
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	msg := &models.Message{
		ID:        ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		ChatID:    chat.ID,
		SenderID:  in.SenderID,
		Text:      text,
		Type:      msgType,
		ImageURL:  imageURL,
		CreatedAt: now,
	}
	updatedAt, err := s.messages.Create(ctx, msg)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Chat not found")
		}
		return nil, apperr.Internal("failed to create message", err)
	}
	s.metrics.MessagesSent.WithLabelValues(string(msgType)).Inc()

	log.Info().
		Str("chat_id", chat.ID).
		Str("message_id", msg.ID).
		Str("sender_id", msg.SenderID).
		Str("type", string(msgType)).
		Msg("Message sent")

	view := models.NewMessageView(msg)
	s.notifier.PublishMessage(chat.ID, view)
	update := models.ChatUpdate{
		ChatID:      chat.ID,
		LastMessage: view,
		UpdatedAt:   models.FormatTime(updatedAt),
	}
	for _, participant := range chat.Participants {
		s.notifier.PublishChatUpdate(participant, update)
	}
	return msg, nil
}

// MarkRead stamps every unread message of the chat sent by the other
// participant and returns how many messages changed.
func (s *MessageService) MarkRead(ctx context.Context, actingUserID, chatID string, in MarkReadInput) (int64, error) {
	if in.UserID == "" {
		return 0, apperr.Validation("userId is required")
	}
	if in.UserID != actingUserID {
		return 0, apperr.Forbidden("Not authorized to mark messages as read for this user")
	}

	chat, err := s.chats.participantChat(ctx, chatID, in.UserID, "Not authorized to access this chat")
	if err != nil {
		return 0, err
	}

	readAt := s.now().UTC()
	count, err := s.messages.MarkRead(ctx, chat.ID, in.UserID, readAt)
	if err != nil {
		return 0, apperr.Internal("failed to mark messages read", err)
	}
	if count == 0 {
		return 0, nil
	}
	s.metrics.MessagesRead.Add(float64(count))

	log.Debug().
		Str("chat_id", chat.ID).
		Str("reader_id", in.UserID).
		Int64("count", count).
		Msg("Messages marked as read")

	s.notifier.PublishMessagesRead(chat.ID, models.ReadReceipt{
		ChatID:   chat.ID,
		ReaderID: in.UserID,
		ReadAt:   models.FormatTime(readAt),
		Count:    count,
	})
	return count, nil
}
