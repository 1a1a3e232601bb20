package services

import (
	"context"
	"errors"
	"time"

	"matchchat-backend/internal/apperr"
	"matchchat-backend/internal/metrics"
	"matchchat-backend/internal/models"
	"matchchat-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RecentMessagesLimit caps the history attached to each chat in a chat list
const RecentMessagesLimit = 50

// CreateChatInput is the payload of a create-or-get chat request
type CreateChatInput struct {
	UserID      string `json:"userId"`
	OtherUserID string `json:"otherUserId"`
}

// ChatService handles chat lookup and creation
type ChatService struct {
	users    UserStore
	chats    ChatStore
	messages MessageStore
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewChatService creates a new chat service
func NewChatService(users UserStore, chats ChatStore, messages MessageStore, m *metrics.Metrics) *ChatService {
	return &ChatService{
		users:    users,
		chats:    chats,
		messages: messages,
		metrics:  m,
		now:      time.Now,
	}
}

// ListChatsForUser returns the chats of userID, most recently updated first,
// each with its latest messages and last message.
func (s *ChatService) ListChatsForUser(ctx context.Context, actingUserID, userID string) ([]models.ChatView, error) {
	if userID == "" || userID != actingUserID {
		return nil, apperr.Forbidden("Not authorized to access these chats")
	}

	chats, err := s.chats.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("failed to list chats", err)
	}

	views := make([]models.ChatView, 0, len(chats))
	for _, chat := range chats {
		recent, err := s.messages.ListRecent(ctx, chat.ID, RecentMessagesLimit)
		if err != nil {
			return nil, apperr.Internal("failed to list messages", err)
		}
		last, err := s.messages.Last(ctx, chat.ID)
		if err != nil {
			return nil, apperr.Internal("failed to get last message", err)
		}
		views = append(views, models.NewChatView(chat, recent, last))
	}
	return views, nil
}

// GetChat returns a chat with its complete history
func (s *ChatService) GetChat(ctx context.Context, chatID, requestingUserID string) (models.ChatView, error) {
	chat, err := s.participantChat(ctx, chatID, requestingUserID, "Not authorized to access this chat")
	if err != nil {
		return models.ChatView{}, err
	}
	return s.fullView(ctx, chat)
}

// CreateOrGetChat returns the chat between the two users, creating it when
// none exists. created reports whether a new chat was stored.
func (s *ChatService) CreateOrGetChat(ctx context.Context, actingUserID string, in CreateChatInput) (models.ChatView, bool, error) {
	if in.UserID == "" || in.OtherUserID == "" {
		return models.ChatView{}, false, apperr.Validation("userId and otherUserId are required")
	}
	if in.UserID != actingUserID {
		return models.ChatView{}, false, apperr.Forbidden("Not authorized to create chat for this user")
	}
	if in.UserID == in.OtherUserID {
		return models.ChatView{}, false, apperr.Validation("Cannot create a chat with yourself")
	}

	if _, err := s.users.GetByID(ctx, in.OtherUserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.ChatView{}, false, apperr.NotFound("User not found")
		}
		return models.ChatView{}, false, apperr.Internal("failed to get user", err)
	}

	now := s.now().UTC()
	chat, created, err := s.chats.CreateOrGet(ctx, &models.Chat{
		ID:           uuid.New().String(),
		Participants: [2]string{in.UserID, in.OtherUserID},
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.ChatView{}, false, apperr.NotFound("User not found")
		}
		return models.ChatView{}, false, apperr.Internal("failed to create chat", err)
	}

	if created {
		s.metrics.ChatsCreated.Inc()
		log.Info().
			Str("chat_id", chat.ID).
			Str("user_a_id", chat.Participants[0]).
			Str("user_b_id", chat.Participants[1]).
			Msg("Chat created")
		return models.NewChatView(chat, nil, nil), true, nil
	}

	view, err := s.fullView(ctx, chat)
	return view, false, err
}

// participantChat loads a chat and checks that userID takes part in it
func (s *ChatService) participantChat(ctx context.Context, chatID, userID, forbidden string) (*models.Chat, error) {
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Chat not found")
		}
		return nil, apperr.Internal("failed to get chat", err)
	}
	if !chat.HasParticipant(userID) {
		return nil, apperr.Forbidden(forbidden)
	}
	return chat, nil
}

func (s *ChatService) fullView(ctx context.Context, chat *models.Chat) (models.ChatView, error) {
	history, err := s.messages.ListByChat(ctx, chat.ID)
	if err != nil {
		return models.ChatView{}, apperr.Internal("failed to list messages", err)
	}
	var last *models.Message
	if len(history) > 0 {
		last = history[len(history)-1]
	}
	return models.NewChatView(chat, history, last), nil
}
