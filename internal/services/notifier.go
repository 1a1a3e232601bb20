package services

import "matchchat-backend/internal/models"

// Realtime event names
const (
	EventReceiveMessage = "receive-message"
	EventMessagesRead   = "messages-read"
	EventJoinChat       = "join-chat"
	EventLeaveChat      = "leave-chat"
	EventJoinedChat     = "joined-chat"
	EventLeftChat       = "left-chat"
	EventTyping         = "typing"
	EventUserTyping     = "user-typing"
	EventError          = "error"
)

// ChatUpdateEvent returns the event name of a user's chat-list channel
func ChatUpdateEvent(userID string) string {
	return "chat-update-" + userID
}

// Notifier fans out realtime events. Implementations must not block and must
// never fail the write that triggered them.
type Notifier interface {
	PublishMessage(chatID string, msg models.MessageView)
	PublishChatUpdate(userID string, update models.ChatUpdate)
	PublishMessagesRead(chatID string, receipt models.ReadReceipt)
}

// NopNotifier drops every event
type NopNotifier struct{}

func (NopNotifier) PublishMessage(string, models.MessageView) {}
func (NopNotifier) PublishChatUpdate(string, models.ChatUpdate) {}
func (NopNotifier) PublishMessagesRead(string, models.ReadReceipt) {}
