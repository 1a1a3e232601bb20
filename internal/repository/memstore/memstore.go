// Package memstore is an in-memory implementation of the repositories. It
// backs the service tests and the "memory" database driver.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"matchchat-backend/internal/models"
	"matchchat-backend/internal/repository"
)

// Store holds every entity behind a single lock
type Store struct {
	mu       sync.RWMutex
	users    map[string]*models.User
	emails   map[string]string
	chats    map[string]*models.Chat
	pairs    map[string]string
	messages map[string][]*models.Message
}

// New creates an empty store
func New() *Store {
	return &Store{
		users:    make(map[string]*models.User),
		emails:   make(map[string]string),
		chats:    make(map[string]*models.Chat),
		pairs:    make(map[string]string),
		messages: make(map[string][]*models.Message),
	}
}

// Users returns the user repository view of the store
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Chats returns the chat repository view of the store
func (s *Store) Chats() *ChatRepository { return &ChatRepository{s: s} }

// Messages returns the message repository view of the store
func (s *Store) Messages() *MessageRepository { return &MessageRepository{s: s} }

// UserRepository stores users in memory
type UserRepository struct {
	s *Store
}

func (r *UserRepository) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, taken := r.s.emails[key]; taken {
		return repository.ErrDuplicateEmail
	}
	r.s.users[user.ID] = cloneUser(user)
	r.s.emails[key] = user.ID
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.users[id]
	if !ok {
		return nil, fmt.Errorf("user not found: %w", repository.ErrNotFound)
	}
	return cloneUser(user), nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.emails[strings.ToLower(email)]
	if !ok {
		return nil, fmt.Errorf("user not found: %w", repository.ErrNotFound)
	}
	return cloneUser(r.s.users[id]), nil
}

func (r *UserRepository) EmailExists(_ context.Context, email string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.emails[strings.ToLower(email)]
	return ok, nil
}

func (r *UserRepository) List(_ context.Context) ([]*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := make([]*models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, cloneUser(u))
	}
	sort.SliceStable(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID > users[j].ID
		}
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

func (r *UserRepository) Update(_ context.Context, id string, upd models.ProfileUpdate, now time.Time) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[id]
	if !ok {
		return nil, fmt.Errorf("user not found: %w", repository.ErrNotFound)
	}
	if upd.Name.Set {
		user.Name = upd.Name.Value
	}
	if upd.Age.Set {
		user.Age = upd.Age.Value
	}
	if upd.Bio.Set {
		user.Bio = cloneString(upd.Bio.Value)
	}
	if upd.Photos.Set {
		user.Photos = slices.Clone(upd.Photos.Value)
	}
	if upd.Location.Set {
		user.Location = cloneLocation(upd.Location.Value)
	}
	if upd.Preferences.Set {
		user.Preferences = models.DefaultPreferences()
		if upd.Preferences.Value != nil {
			user.Preferences = *upd.Preferences.Value
			user.Preferences.Interests = slices.Clone(upd.Preferences.Value.Interests)
		}
	}
	user.UpdatedAt = now
	return cloneUser(user), nil
}

func (r *UserRepository) UpdatePushToken(_ context.Context, userID string, pushToken *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[userID]
	if !ok {
		return fmt.Errorf("user not found: %w", repository.ErrNotFound)
	}
	user.PushToken = cloneString(pushToken)
	return nil
}

// ChatRepository stores chats in memory
type ChatRepository struct {
	s *Store
}

// CreateOrGet is a compare-and-insert on the participant pair key
func (r *ChatRepository) CreateOrGet(_ context.Context, chat *models.Chat) (*models.Chat, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, id := range chat.Participants {
		if _, ok := r.s.users[id]; !ok {
			return nil, false, fmt.Errorf("participant not found: %w", repository.ErrNotFound)
		}
	}
	if id, ok := r.s.pairs[chat.PairKey()]; ok {
		existing := *r.s.chats[id]
		return &existing, false, nil
	}

	stored := *chat
	r.s.chats[chat.ID] = &stored
	r.s.pairs[chat.PairKey()] = chat.ID
	created := stored
	return &created, true, nil
}

func (r *ChatRepository) GetByID(_ context.Context, id string) (*models.Chat, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	chat, ok := r.s.chats[id]
	if !ok {
		return nil, fmt.Errorf("chat not found: %w", repository.ErrNotFound)
	}
	c := *chat
	return &c, nil
}

func (r *ChatRepository) ListByUser(_ context.Context, userID string) ([]*models.Chat, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	chats := []*models.Chat{}
	for _, chat := range r.s.chats {
		if chat.HasParticipant(userID) {
			c := *chat
			chats = append(chats, &c)
		}
	}
	sort.SliceStable(chats, func(i, j int) bool {
		if chats[i].UpdatedAt.Equal(chats[j].UpdatedAt) {
			return chats[i].ID < chats[j].ID
		}
		return chats[i].UpdatedAt.After(chats[j].UpdatedAt)
	})
	return chats, nil
}

// MessageRepository stores messages in memory, per chat in creation order
type MessageRepository struct {
	s *Store
}

func (r *MessageRepository) Create(_ context.Context, msg *models.Message) (time.Time, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	chat, ok := r.s.chats[msg.ChatID]
	if !ok {
		return time.Time{}, fmt.Errorf("chat not found: %w", repository.ErrNotFound)
	}
	stored := cloneMessage(msg)
	history := r.s.messages[msg.ChatID]
	idx := sort.Search(len(history), func(i int) bool {
		return messageLess(stored, history[i])
	})
	r.s.messages[msg.ChatID] = slices.Insert(history, idx, stored)
	chat.UpdatedAt = msg.CreatedAt
	return chat.UpdatedAt, nil
}

func (r *MessageRepository) ListByChat(_ context.Context, chatID string) ([]*models.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return cloneMessages(r.s.messages[chatID]), nil
}

func (r *MessageRepository) ListRecent(_ context.Context, chatID string, limit int) ([]*models.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	history := r.s.messages[chatID]
	if limit >= 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	return cloneMessages(history), nil
}

func (r *MessageRepository) Last(_ context.Context, chatID string) (*models.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	history := r.s.messages[chatID]
	if len(history) == 0 {
		return nil, nil
	}
	return cloneMessage(history[len(history)-1]), nil
}

func (r *MessageRepository) MarkRead(_ context.Context, chatID, readerID string, readAt time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var count int64
	for _, msg := range r.s.messages[chatID] {
		if msg.SenderID != readerID && msg.ReadAt == nil {
			at := readAt
			msg.ReadAt = &at
			count++
		}
	}
	return count, nil
}

func messageLess(a, b *models.Message) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID < b.ID
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneLocation(l *models.Location) *models.Location {
	if l == nil {
		return nil
	}
	c := *l
	c.City = cloneString(l.City)
	return &c
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Bio = cloneString(u.Bio)
	c.Photos = slices.Clone(u.Photos)
	c.Location = cloneLocation(u.Location)
	c.Preferences.Interests = slices.Clone(u.Preferences.Interests)
	c.PushToken = cloneString(u.PushToken)
	return &c
}

func cloneMessage(m *models.Message) *models.Message {
	c := *m
	c.ImageURL = cloneString(m.ImageURL)
	if m.ReadAt != nil {
		at := *m.ReadAt
		c.ReadAt = &at
	}
	return &c
}

func cloneMessages(messages []*models.Message) []*models.Message {
	out := make([]*models.Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, cloneMessage(m))
	}
	return out
}
