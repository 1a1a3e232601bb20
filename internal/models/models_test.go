package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileUpdate_PresenceFlags(t *testing.T) {
	var upd ProfileUpdate
	err := json.Unmarshal([]byte(`{"bio": "hello", "location": null}`), &upd)
	require.NoError(t, err)

	assert.True(t, upd.Bio.Set)
	require.NotNil(t, upd.Bio.Value)
	assert.Equal(t, "hello", *upd.Bio.Value)

	assert.True(t, upd.Location.Set)
	assert.Nil(t, upd.Location.Value)

	assert.False(t, upd.Name.Set)
	assert.False(t, upd.Age.Set)
	assert.False(t, upd.Photos.Set)
	assert.False(t, upd.Preferences.Set)
	assert.False(t, upd.Empty())
}

func TestProfileUpdate_Empty(t *testing.T) {
	var upd ProfileUpdate
	require.NoError(t, json.Unmarshal([]byte(`{}`), &upd))
	assert.True(t, upd.Empty())
}

func TestPairKey_OrderIndependent(t *testing.T) {
	assert.Equal(t, PairKey("a", "b"), PairKey("b", "a"))
	assert.NotEqual(t, PairKey("a", "b"), PairKey("a", "c"))

	chat := &Chat{Participants: [2]string{"zed", "amy"}}
	assert.Equal(t, "amy:zed", chat.PairKey())
	assert.True(t, chat.HasParticipant("zed"))
	assert.False(t, chat.HasParticipant(""))
	assert.False(t, chat.HasParticipant("bob"))
}

func TestMessageType_Valid(t *testing.T) {
	assert.True(t, MessageTypeText.Valid())
	assert.True(t, MessageTypeImage.Valid())
	assert.True(t, MessageTypeSystem.Valid())
	assert.False(t, MessageType("video").Valid())
	assert.False(t, MessageType("").Valid())
}

func TestNewUserView_StripsPrivateFields(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 30, 0, 123456789, time.UTC)
	u := &User{
		ID:           "u1",
		Name:         "Ann",
		Email:        "ann@example.com",
		PasswordHash: "$2a$12$secret",
		Age:          25,
		PushToken:    func() *string { s := "device"; return &s }(),
		Preferences:  DefaultPreferences(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	data, err := json.Marshal(NewUserView(u))
	require.NoError(t, err)

	body := string(data)
	assert.NotContains(t, body, "secret")
	assert.NotContains(t, body, "ann@example.com")
	assert.NotContains(t, body, "device")
	assert.Contains(t, body, `"createdAt":"2026-03-01T12:30:00.123Z"`)
	assert.Contains(t, body, `"photos":[]`)
	assert.Contains(t, body, `"location":null`)
	assert.Contains(t, body, `"maxDistance":50`)
}

func TestNewMessageView_NullableFields(t *testing.T) {
	m := &Message{ID: "m1", ChatID: "c1", SenderID: "u1", Text: "hi", Type: MessageTypeText}
	view := NewMessageView(m)
	assert.Nil(t, view.ReadAt)
	assert.Nil(t, view.ImageURL)

	readAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m.ReadAt = &readAt
	view = NewMessageView(m)
	require.NotNil(t, view.ReadAt)
	assert.Equal(t, "2026-01-02T03:04:05.000Z", *view.ReadAt)
}
