package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"matchchat-backend/internal/metrics"
	"matchchat-backend/internal/models"
	"matchchat-backend/internal/repository/memstore"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type publishedEvent struct {
	Channel string
	Event   string
	Data    any
}

// recordingNotifier captures every published event
type recordingNotifier struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (n *recordingNotifier) record(channel, event string, data any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, publishedEvent{Channel: channel, Event: event, Data: data})
}

func (n *recordingNotifier) PublishMessage(chatID string, msg models.MessageView) {
	n.record(chatID, EventReceiveMessage, msg)
}

func (n *recordingNotifier) PublishChatUpdate(userID string, update models.ChatUpdate) {
	n.record(userID, ChatUpdateEvent(userID), update)
}

func (n *recordingNotifier) PublishMessagesRead(chatID string, receipt models.ReadReceipt) {
	n.record(chatID, EventMessagesRead, receipt)
}

func (n *recordingNotifier) Events() []publishedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]publishedEvent(nil), n.events...)
}

type testEnv struct {
	store    *memstore.Store
	metrics  *metrics.Metrics
	notifier *recordingNotifier
	auth     *AuthService
	users    *UserService
	chats    *ChatService
	messages *MessageService
	clock    *fakeClock
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memstore.New()
	m := metrics.New()
	notifier := &recordingNotifier{}
	clock := &fakeClock{now: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}

	env := &testEnv{
		store:    store,
		metrics:  m,
		notifier: notifier,
		auth:     NewAuthService(store.Users(), NewTokenManager("test-secret", time.Hour)),
		users:    NewUserService(store.Users()),
		chats:    NewChatService(store.Users(), store.Chats(), store.Messages(), m),
		clock:    clock,
	}
	env.messages = NewMessageService(env.chats, store.Messages(), notifier, m)
	env.users.now = clock.Now
	env.chats.now = clock.Now
	env.messages.now = clock.Now
	return env
}

// addUser stores a user directly, skipping the bcrypt cost of Register
func (e *testEnv) addUser(t *testing.T, name string) *models.User {
	t.Helper()
	now := e.clock.Now()
	user := &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        name + "@example.com",
		PasswordHash: "not-a-real-hash",
		Age:          25,
		Photos:       []string{"https://cdn.example.com/" + name + ".jpg"},
		Preferences:  models.DefaultPreferences(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, e.store.Users().Create(context.Background(), user))
	return user
}

func (e *testEnv) chatBetween(t *testing.T, a, b *models.User) models.ChatView {
	t.Helper()
	chat, _, err := e.chats.CreateOrGetChat(context.Background(), a.ID, CreateChatInput{UserID: a.ID, OtherUserID: b.ID})
	require.NoError(t, err)
	return chat
}
