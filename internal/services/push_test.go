package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"matchchat-backend/internal/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePusher struct {
	mu    sync.Mutex
	sent  map[string]PushMessage
	fails bool
}

func (p *fakePusher) Push(_ context.Context, deviceToken string, msg PushMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fails {
		return errors.New("apns unavailable")
	}
	if p.sent == nil {
		p.sent = make(map[string]PushMessage)
	}
	p.sent[deviceToken] = msg
	return nil
}

type fakePresence map[string]bool

func (p fakePresence) IsOnline(userID string) bool { return p[userID] }

func TestPushFallback_PublishChatUpdate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.addUser(t, "alice")
	bob := env.addUser(t, "bob")
	carol := env.addUser(t, "carol")
	require.NoError(t, env.store.Users().UpdatePushToken(ctx, bob.ID, lo.ToPtr("bob-device")))
	require.NoError(t, env.store.Users().UpdatePushToken(ctx, alice.ID, lo.ToPtr("alice-device")))

	pusher := &fakePusher{}
	presence := fakePresence{carol.ID: true}
	fallback := NewPushFallback(env.notifier, presence, env.store.Users(), pusher, time.Second, env.metrics)

	update := models.ChatUpdate{
		ChatID:      "chat-1",
		LastMessage: models.MessageView{SenderID: alice.ID, Text: "hello there", Type: models.MessageTypeText},
	}
	fallback.PublishChatUpdate(alice.ID, update) // sender
	fallback.PublishChatUpdate(bob.ID, update)   // offline with token
	fallback.PublishChatUpdate(carol.ID, update) // online
	fallback.Wait()

	assert.Len(t, env.notifier.Events(), 3, "the wrapped notifier always receives the update")
	require.Len(t, pusher.sent, 1)
	got := pusher.sent["bob-device"]
	assert.Equal(t, "alice", got.Title)
	assert.Equal(t, "hello there", got.Body)
	assert.Equal(t, "chat-1", got.ChatID)
	assert.InDelta(t, 1, testutil.ToFloat64(env.metrics.PushNotifications.WithLabelValues("sent")), 0)
}

func TestPushFallback_SkipsAndFailures(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addUser(t, "alice")
	bob := env.addUser(t, "bob")

	pusher := &fakePusher{fails: true}
	fallback := NewPushFallback(NopNotifier{}, fakePresence{}, env.store.Users(), pusher, time.Second, env.metrics)
	update := models.ChatUpdate{LastMessage: models.MessageView{SenderID: alice.ID, Text: "x"}}

	fallback.PublishChatUpdate(bob.ID, update)
	fallback.Wait()
	assert.InDelta(t, 1, testutil.ToFloat64(env.metrics.PushNotifications.WithLabelValues("skipped")), 0)

	require.NoError(t, env.store.Users().UpdatePushToken(context.Background(), bob.ID, lo.ToPtr("bob-device")))
	fallback.PublishChatUpdate(bob.ID, update)
	fallback.Wait()
	assert.InDelta(t, 1, testutil.ToFloat64(env.metrics.PushNotifications.WithLabelValues("failed")), 0)
}

func TestPushBody(t *testing.T) {
	assert.Equal(t, "Sent a photo", pushBody(models.MessageView{Type: models.MessageTypeImage, Text: "caption"}))

	long := strings.Repeat("é", pushBodyLimit+10)
	body := pushBody(models.MessageView{Type: models.MessageTypeText, Text: long})
	assert.Len(t, []rune(body), pushBodyLimit)
	assert.True(t, strings.HasSuffix(body, "…"))
}
