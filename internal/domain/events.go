package domain

import (
	"encoding/json"
	"strconv"
	"time"
)

// WebSocket event names from client.
const (
	EventSendMessage = "sendMessage"
	EventTypingStart = "userTyping"
	EventTypingStop  = "userStoppedTyping"
)

// WebSocket event names to client.
const (
	EventChatHistory = "chatHistory"
	EventNewMessage  = "newMessage"
	EventUsersOnline = "usersOnline"
	EventError       = "error"
)

// Message payload kinds within a newMessage event.
const (
	MessageTypeUser   = "user"
	MessageTypeSystem = "system"
)

// SystemUsername is the author shown on server-synthesized messages.
const SystemUsername = "System"

// Envelope is the wire frame for every event in both directions:
// an event name plus an event-specific data object.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// OutEvent is an outbound event before marshalling.
type OutEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// NewOutEvent builds an outbound event envelope.
func NewOutEvent(eventType string, data interface{}) *OutEvent {
	return &OutEvent{Type: eventType, Data: data}
}

// Client -> Server payloads

// SendMessagePayload carries the body of a sendMessage event.
type SendMessagePayload struct {
	Message string `json:"message"`
}

// Server -> Client payloads

// MessagePayload is one chat message as delivered to clients, either a
// persisted user message or a transient system notification.
type MessagePayload struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	UserRole  string    `json:"userRole,omitempty"`
}

// PresenceEntry is one online user in the roster broadcast.
type PresenceEntry struct {
	Username    string    `json:"username"`
	Role        string    `json:"role"`
	ConnectedAt time.Time `json:"connectedAt"`
}

// PresenceSnapshot is a consistent point-in-time view of who is online.
type PresenceSnapshot struct {
	Count int             `json:"count"`
	Users []PresenceEntry `json:"users"`
}

// TypingPayload identifies the user behind a typing relay.
type TypingPayload struct {
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping,omitempty"`
}

// ErrorPayload is a scoped error delivered only to the offending session.
type ErrorPayload struct {
	Message string `json:"message"`
}

// NewErrorEvent builds a scoped error event.
func NewErrorEvent(message string) *OutEvent {
	return NewOutEvent(EventError, ErrorPayload{Message: message})
}

// NewSystemMessage builds a transient, non-persisted system notification
// with a synthetic unix-millis id.
func NewSystemMessage(body string, at time.Time) MessagePayload {
	return MessagePayload{
		ID:        "sys-" + strconv.FormatInt(at.UnixMilli(), 10),
		Username:  SystemUsername,
		Message:   body,
		Timestamp: at,
		Type:      MessageTypeSystem,
	}
}
