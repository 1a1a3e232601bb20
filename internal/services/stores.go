package services

import (
	"context"
	"time"

	"matchchat-backend/internal/models"
)

// UserStore persists users
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]*models.User, error)
	Update(ctx context.Context, id string, upd models.ProfileUpdate, now time.Time) (*models.User, error)
	UpdatePushToken(ctx context.Context, userID string, pushToken *string) error
}

// ChatStore persists chats
type ChatStore interface {
	CreateOrGet(ctx context.Context, chat *models.Chat) (*models.Chat, bool, error)
	GetByID(ctx context.Context, id string) (*models.Chat, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Chat, error)
}

// MessageStore persists messages
type MessageStore interface {
	Create(ctx context.Context, msg *models.Message) (time.Time, error)
	ListByChat(ctx context.Context, chatID string) ([]*models.Message, error)
	ListRecent(ctx context.Context, chatID string, limit int) ([]*models.Message, error)
	Last(ctx context.Context, chatID string) (*models.Message, error)
	MarkRead(ctx context.Context, chatID, readerID string, readAt time.Time) (int64, error)
}
