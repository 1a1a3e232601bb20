package models

import (
	"slices"
	"time"
)

const (
	MinAge = 18
	MaxAge = 120

	DefaultAgeRangeMin = 18
	DefaultAgeRangeMax = 100
	DefaultMaxDistance = 50 // km
)

// User represents a registered user
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Age          int
	Bio          *string
	Photos       []string
	Location     *Location
	Preferences  Preferences
	PushToken    *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Location is an optional geolocation attached to a profile
type Location struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
	City      *string `json:"city"`
}

// AgeRange is the accepted partner age range
type AgeRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Preferences hold the discovery filters of a user
type Preferences struct {
	AgeRange    AgeRange `json:"ageRange"`
	MaxDistance int      `json:"maxDistance"`
	Interests   []string `json:"interests"`
}

// DefaultPreferences returns the preferences assigned at registration
func DefaultPreferences() Preferences {
	return Preferences{
		AgeRange:    AgeRange{Min: DefaultAgeRangeMin, Max: DefaultAgeRangeMax},
		MaxDistance: DefaultMaxDistance,
		Interests:   []string{},
	}
}

// Chat represents a two-party conversation. Participants keep display order,
// the creator first.
type Chat struct {
	ID           string
	Participants [2]string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasParticipant reports whether userID takes part in the chat
func (c *Chat) HasParticipant(userID string) bool {
	return userID != "" && slices.Contains(c.Participants[:], userID)
}

// PairKey returns the order-independent key of a participant pair
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}

// PairKey returns the order-independent key of the chat's participants
func (c *Chat) PairKey() string {
	return PairKey(c.Participants[0], c.Participants[1])
}

// MessageType is the kind of content a message carries
type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeImage  MessageType = "image"
	MessageTypeSystem MessageType = "system"
)

// Valid reports whether t is a known message type
func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeSystem:
		return true
	}
	return false
}

// Message represents a message posted in a chat. ReadAt stays nil until the
// other participant marks the chat as read.
type Message struct {
	ID        string
	ChatID    string
	SenderID  string
	Text      string
	Type      MessageType
	ImageURL  *string
	ReadAt    *time.Time
	CreatedAt time.Time
}
