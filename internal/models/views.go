package models

import (
	"time"

	"github.com/samber/lo"
)

// TimeLayout is the wire format of every timestamp (UTC, millisecond precision)
const TimeLayout = "2006-01-02T15:04:05.000Z"

// FormatTime renders t in TimeLayout
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// UserView is the public profile view. It never carries credentials,
// the email address or the push token.
type UserView struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Age         int              `json:"age"`
	Bio         *string          `json:"bio"`
	Photos      []string         `json:"photos"`
	Location    *Location        `json:"location"`
	Preferences *PreferencesView `json:"preferences"`
	CreatedAt   string           `json:"createdAt"`
	UpdatedAt   string           `json:"updatedAt"`
}

// PreferencesView renders a zero max distance as null
type PreferencesView struct {
	AgeRange    AgeRange `json:"ageRange"`
	MaxDistance *int     `json:"maxDistance"`
	Interests   []string `json:"interests"`
}

// NewUserView projects a user onto its public view
func NewUserView(u *User) UserView {
	var bio *string
	if u.Bio != nil && *u.Bio != "" {
		bio = u.Bio
	}

	prefs := &PreferencesView{
		AgeRange:  u.Preferences.AgeRange,
		Interests: lo.Ternary(u.Preferences.Interests == nil, []string{}, u.Preferences.Interests),
	}
	if u.Preferences.MaxDistance != 0 {
		prefs.MaxDistance = lo.ToPtr(u.Preferences.MaxDistance)
	}

	return UserView{
		ID:          u.ID,
		Name:        u.Name,
		Age:         u.Age,
		Bio:         bio,
		Photos:      lo.Ternary(u.Photos == nil, []string{}, u.Photos),
		Location:    u.Location,
		Preferences: prefs,
		CreatedAt:   FormatTime(u.CreatedAt),
		UpdatedAt:   FormatTime(u.UpdatedAt),
	}
}

// NewUserViews projects a list of users
func NewUserViews(users []*User) []UserView {
	return lo.Map(users, func(u *User, _ int) UserView {
		return NewUserView(u)
	})
}

// MessageView is the wire representation of a message
type MessageView struct {
	ID        string      `json:"id"`
	ChatID    string      `json:"chatId"`
	SenderID  string      `json:"senderId"`
	Text      string      `json:"text"`
	Type      MessageType `json:"type"`
	CreatedAt string      `json:"createdAt"`
	ReadAt    *string     `json:"readAt"`
	ImageURL  *string     `json:"imageUrl"`
}

// NewMessageView projects a message onto its wire representation
func NewMessageView(m *Message) MessageView {
	view := MessageView{
		ID:        m.ID,
		ChatID:    m.ChatID,
		SenderID:  m.SenderID,
		Text:      m.Text,
		Type:      m.Type,
		CreatedAt: FormatTime(m.CreatedAt),
	}
	if m.ReadAt != nil {
		view.ReadAt = lo.ToPtr(FormatTime(*m.ReadAt))
	}
	if m.ImageURL != nil && *m.ImageURL != "" {
		view.ImageURL = m.ImageURL
	}
	return view
}

// NewMessageViews projects a list of messages, preserving order
func NewMessageViews(messages []*Message) []MessageView {
	return lo.Map(messages, func(m *Message, _ int) MessageView {
		return NewMessageView(m)
	})
}

// ChatView is a chat with its (possibly windowed) history
type ChatView struct {
	ID           string        `json:"id"`
	Participants []string      `json:"participants"`
	Messages     []MessageView `json:"messages"`
	LastMessage  *MessageView  `json:"lastMessage"`
	CreatedAt    string        `json:"createdAt"`
	UpdatedAt    string        `json:"updatedAt"`
}

// NewChatView builds a chat view. last may be nil.
func NewChatView(c *Chat, messages []*Message, last *Message) ChatView {
	view := ChatView{
		ID:           c.ID,
		Participants: []string{c.Participants[0], c.Participants[1]},
		Messages:     NewMessageViews(messages),
		CreatedAt:    FormatTime(c.CreatedAt),
		UpdatedAt:    FormatTime(c.UpdatedAt),
	}
	if last != nil {
		view.LastMessage = lo.ToPtr(NewMessageView(last))
	}
	return view
}

// ChatUpdate is the lightweight summary pushed on a user channel
type ChatUpdate struct {
	ChatID      string      `json:"chatId"`
	LastMessage MessageView `json:"lastMessage"`
	UpdatedAt   string      `json:"updatedAt"`
}

// ReadReceipt is pushed on a chat channel after a bulk read
type ReadReceipt struct {
	ChatID   string `json:"chatId"`
	ReaderID string `json:"readerId"`
	ReadAt   string `json:"readAt"`
	Count    int64  `json:"count"`
}
