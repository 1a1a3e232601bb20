package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"matchchat-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

const messageColumns = `id, chat_id, sender_id, text, type, image_url, read_at, created_at`

// MessageRepository handles database operations for messages
type MessageRepository struct {
	db DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create appends a message and bumps the chat's update time in one
// transaction. It returns the new chat update time.
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) (time.Time, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	insert := `
		INSERT INTO messages (` + messageColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = tx.Exec(ctx, insert,
		msg.ID, msg.ChatID, msg.SenderID, msg.Text, string(msg.Type), msg.ImageURL, msg.ReadAt, msg.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return time.Time{}, fmt.Errorf("chat not found: %w", ErrNotFound)
		}
		return time.Time{}, fmt.Errorf("failed to create message: %w", err)
	}

	var updatedAt time.Time
	err = tx.QueryRow(ctx,
		`UPDATE chats SET updated_at = $2 WHERE id = $1 RETURNING updated_at`,
		msg.ChatID, msg.CreatedAt,
	).Scan(&updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, fmt.Errorf("chat not found: %w", ErrNotFound)
		}
		return time.Time{}, fmt.Errorf("failed to update chat timestamp: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return time.Time{}, fmt.Errorf("failed to commit message: %w", err)
	}
	return updatedAt, nil
}

// ListByChat returns the complete history of a chat in creation order
func (r *MessageRepository) ListByChat(ctx context.Context, chatID string) ([]*models.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE chat_id = $1
		ORDER BY created_at, id
	`
	return r.list(ctx, query, chatID)
}

// ListRecent returns the latest limit messages of a chat in creation order
func (r *MessageRepository) ListRecent(ctx context.Context, chatID string, limit int) ([]*models.Message, error) {
	query := `
		SELECT ` + messageColumns + ` FROM (
			SELECT ` + messageColumns + `
			FROM messages
			WHERE chat_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		) recent
		ORDER BY created_at, id
	`
	return r.list(ctx, query, chatID, limit)
}

// Last returns the most recent message of a chat, or nil when the chat is empty
func (r *MessageRepository) Last(ctx context.Context, chatID string) (*models.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE chat_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	msg, err := scanMessage(r.db.QueryRow(ctx, query, chatID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get last message: %w", err)
	}
	return msg, nil
}

// MarkRead stamps readAt on every unread message of the chat not sent by
// readerID and returns how many rows changed.
func (r *MessageRepository) MarkRead(ctx context.Context, chatID, readerID string, readAt time.Time) (int64, error) {
	query := `
		UPDATE messages
		SET read_at = $3
		WHERE chat_id = $1 AND sender_id <> $2 AND read_at IS NULL
	`
	result, err := r.db.Exec(ctx, query, chatID, readerID, readAt)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}
	return result.RowsAffected(), nil
}

func (r *MessageRepository) list(ctx context.Context, query string, args ...any) ([]*models.Message, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := []*models.Message{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}
	return messages, nil
}

func scanMessage(row pgx.Row) (*models.Message, error) {
	var (
		msg     models.Message
		msgType string
	)
	err := row.Scan(&msg.ID, &msg.ChatID, &msg.SenderID, &msg.Text, &msgType, &msg.ImageURL, &msg.ReadAt, &msg.CreatedAt)
	if err != nil {
		return nil, err
	}
	msg.Type = models.MessageType(msgType)
	return &msg, nil
}
