package repository

import (
	"context"
	"errors"
	"fmt"

	"matchchat-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

const chatColumns = `id, user_a_id, user_b_id, created_at, updated_at`

// ChatRepository handles database operations for chats
type ChatRepository struct {
	db DB
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// CreateOrGet inserts chat unless a chat already exists for the same
// participant pair, in which case the stored chat is returned instead.
// created reports whether chat was inserted.
func (r *ChatRepository) CreateOrGet(ctx context.Context, chat *models.Chat) (*models.Chat, bool, error) {
	insert := `
		INSERT INTO chats (id, user_a_id, user_b_id, pair_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (pair_key) DO NOTHING
		RETURNING ` + chatColumns
	stored, err := scanChat(r.db.QueryRow(ctx, insert,
		chat.ID, chat.Participants[0], chat.Participants[1], chat.PairKey(), chat.CreatedAt, chat.UpdatedAt,
	))
	if err == nil {
		return stored, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		if isForeignKeyViolation(err) {
			return nil, false, fmt.Errorf("participant not found: %w", ErrNotFound)
		}
		return nil, false, fmt.Errorf("failed to create chat: %w", err)
	}

	// The pair already has a chat; the conflicting insert has committed.
	existing, err := scanChat(r.db.QueryRow(ctx,
		`SELECT `+chatColumns+` FROM chats WHERE pair_key = $1`, chat.PairKey(),
	))
	if err != nil {
		return nil, false, fmt.Errorf("failed to get chat by pair: %w", err)
	}
	return existing, false, nil
}

// GetByID retrieves a chat by ID
func (r *ChatRepository) GetByID(ctx context.Context, id string) (*models.Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats WHERE id = $1`
	chat, err := scanChat(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("chat not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}
	return chat, nil
}

// ListByUser returns the chats a user takes part in, most recently updated first
func (r *ChatRepository) ListByUser(ctx context.Context, userID string) ([]*models.Chat, error) {
	query := `
		SELECT ` + chatColumns + `
		FROM chats
		WHERE user_a_id = $1 OR user_b_id = $1
		ORDER BY updated_at DESC, id
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer rows.Close()

	chats := []*models.Chat{}
	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		chats = append(chats, chat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chats: %w", err)
	}
	return chats, nil
}

func scanChat(row pgx.Row) (*models.Chat, error) {
	var chat models.Chat
	err := row.Scan(&chat.ID, &chat.Participants[0], &chat.Participants[1], &chat.CreatedAt, &chat.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &chat, nil
}
