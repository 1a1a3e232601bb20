package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"matchchat-backend/internal/apperr"
	"matchchat-backend/internal/metrics"
	"matchchat-backend/internal/models"
	"matchchat-backend/internal/repository"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 64
	joinTimeout    = 5 * time.Second
)

var (
	errHubClosed  = errors.New("hub is closed")
	errConnClosed = errors.New("connection closed")
)

// WSMessage is a realtime frame in either direction
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type wsOutbound struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Client is one websocket connection of a user
type Client struct {
	hub    *WSHub
	conn   *websocket.Conn
	userID string
	send   chan []byte
	// chat ids this client joined, guarded by hub.mu
	chats map[string]struct{}
	done  chan struct{}
	once  sync.Once
}

// UserID returns the authenticated user of the connection
func (c *Client) UserID() string {
	return c.userID
}

// WSHub is the subscription registry of realtime clients: user id to live
// connections and chat id to the connections that joined it.
type WSHub struct {
	mu      sync.RWMutex
	users   map[string]map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
	chats   ChatStore
	metrics *metrics.Metrics
	closed  bool
}

// NewWSHub creates a new WebSocket hub
func NewWSHub(chats ChatStore, m *metrics.Metrics) *WSHub {
	return &WSHub{
		users:   make(map[string]map[*Client]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
		chats:   chats,
		metrics: m,
	}
}

// Register subscribes a new connection to its user channel
func (h *WSHub) Register(userID string, conn *websocket.Conn) (*Client, error) {
	client := &Client{
		hub:    h,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, sendBufferSize),
		chats:  make(map[string]struct{}),
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, errHubClosed
	}
	if h.users[userID] == nil {
		h.users[userID] = make(map[*Client]struct{})
	}
	h.users[userID][client] = struct{}{}
	h.metrics.RealtimeClients.Inc()

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")
	return client, nil
}

// Unregister removes a connection from every channel it is subscribed to
func (h *WSHub) Unregister(c *Client) {
	h.mu.Lock()
	removed := h.removeLocked(c)
	h.mu.Unlock()

	c.shutdown()
	if removed {
		log.Info().Str("user_id", c.userID).Msg("WebSocket connection unregistered")
	}
}

func (h *WSHub) removeLocked(c *Client) bool {
	conns, ok := h.users[c.userID]
	if !ok {
		return false
	}
	if _, ok := conns[c]; !ok {
		return false
	}
	delete(conns, c)
	if len(conns) == 0 {
		delete(h.users, c.userID)
	}
	for chatID := range c.chats {
		h.leaveLocked(c, chatID)
	}
	h.metrics.RealtimeClients.Dec()
	return true
}

func (h *WSHub) leaveLocked(c *Client, chatID string) {
	delete(c.chats, chatID)
	if room, ok := h.rooms[chatID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, chatID)
		}
	}
}

// IsOnline checks if a user has at least one live connection
func (h *WSHub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID]) > 0
}

// Join subscribes a client to a chat channel. Only participants may join.
func (h *WSHub) Join(ctx context.Context, c *Client, chatID string) error {
	chat, err := h.chats.GetByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("Chat not found")
		}
		return apperr.Internal("failed to get chat", err)
	}
	if !chat.HasParticipant(c.userID) {
		return apperr.Forbidden("Not authorized to access this chat")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.users[c.userID][c]; !ok {
		return errConnClosed
	}
	if h.rooms[chatID] == nil {
		h.rooms[chatID] = make(map[*Client]struct{})
	}
	h.rooms[chatID][c] = struct{}{}
	c.chats[chatID] = struct{}{}
	return nil
}

// Leave unsubscribes a client from a chat channel
func (h *WSHub) Leave(c *Client, chatID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, chatID)
}

func (h *WSHub) joined(c *Client, chatID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := c.chats[chatID]
	return ok
}

// PublishMessage sends a new message to every client in the chat channel
func (h *WSHub) PublishMessage(chatID string, msg models.MessageView) {
	h.broadcastRoom(chatID, EventReceiveMessage, msg, nil)
}

// PublishChatUpdate sends a chat summary to every connection of a user
func (h *WSHub) PublishChatUpdate(userID string, update models.ChatUpdate) {
	event := ChatUpdateEvent(userID)
	data, ok := encodeEvent(event, update)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.users[userID] {
		h.deliver(c, event, data)
	}
}

// PublishMessagesRead sends a read receipt to the chat channel
func (h *WSHub) PublishMessagesRead(chatID string, receipt models.ReadReceipt) {
	h.broadcastRoom(chatID, EventMessagesRead, receipt, nil)
}

func (h *WSHub) broadcastRoom(chatID, event string, payload any, except *Client) {
	data, ok := encodeEvent(event, payload)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[chatID] {
		if c != except {
			h.deliver(c, event, data)
		}
	}
}

// deliver queues data without blocking; a full queue drops the event.
// Callers hold h.mu.
func (h *WSHub) deliver(c *Client, event string, data []byte) {
	select {
	case c.send <- data:
		h.metrics.RealtimeDelivered.WithLabelValues(event).Inc()
	default:
		h.metrics.RealtimeDropped.WithLabelValues(event).Inc()
		log.Warn().Str("user_id", c.userID).Str("event", event).Msg("Client send queue full, dropping event")
	}
}

// Close disconnects every client
func (h *WSHub) Close() {
	h.mu.Lock()
	h.closed = true
	var clients []*Client
	for _, conns := range h.users {
		for c := range conns {
			clients = append(clients, c)
		}
	}
	for _, c := range clients {
		h.removeLocked(c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.shutdown()
	}
}

func encodeEvent(event string, payload any) ([]byte, bool) {
	data, err := json.Marshal(wsOutbound{Event: event, Data: payload})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("Failed to marshal realtime event")
		return nil, false
	}
	return data, true
}

// Run pumps the connection until it closes. It blocks.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

func (c *Client) shutdown() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *Client) readPump() {
	defer c.hub.Unregister(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("user_id", c.userID).Msg("WebSocket read error")
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("Invalid message format")
			continue
		}
		c.handle(msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.shutdown()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.shutdown()
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

func (c *Client) handle(msg WSMessage) {
	switch msg.Event {
	case EventJoinChat:
		chatID := chatIDFromData(msg.Data)
		if chatID == "" {
			c.sendError("chatId is required")
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), joinTimeout)
		defer cancel()
		if err := c.hub.Join(ctx, c, chatID); err != nil {
			if apperr.KindOf(err) == apperr.KindUnexpected {
				log.Error().Err(err).Str("chat_id", chatID).Msg("Failed to join chat")
			}
			c.sendError(apperr.PublicMessage(err))
			return
		}
		log.Debug().Str("user_id", c.userID).Str("chat_id", chatID).Msg("Joined chat")
		c.reply(EventJoinedChat, map[string]string{"chatId": chatID})

	case EventLeaveChat:
		chatID := chatIDFromData(msg.Data)
		if chatID == "" {
			c.sendError("chatId is required")
			return
		}
		c.hub.Leave(c, chatID)
		c.reply(EventLeftChat, map[string]string{"chatId": chatID})

	case EventTyping:
		var payload map[string]any
		if err := json.Unmarshal(msg.Data, &payload); err != nil || payload == nil {
			c.sendError("Invalid typing payload")
			return
		}
		chatID, _ := payload["chatId"].(string)
		if chatID == "" || !c.hub.joined(c, chatID) {
			c.sendError("Join the chat before sending typing events")
			return
		}
		payload["userId"] = c.userID
		c.hub.broadcastRoom(chatID, EventUserTyping, payload, c)

	default:
		c.sendError("Unknown event type")
	}
}

// chatIDFromData accepts either a bare chat id string or {"chatId": "..."}
func chatIDFromData(data json.RawMessage) string {
	var chatID string
	if err := json.Unmarshal(data, &chatID); err == nil {
		return chatID
	}
	var obj struct {
		ChatID string `json:"chatId"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		return obj.ChatID
	}
	return ""
}

func (c *Client) reply(event string, payload any) {
	data, ok := encodeEvent(event, payload)
	if !ok {
		return
	}
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	c.hub.deliver(c, event, data)
}

func (c *Client) sendError(message string) {
	c.reply(EventError, map[string]string{"message": message})
}
