package domain

import "time"

// DefaultRoom is the single global chat room. Multi-room is supported by
// the field but every current producer uses the default.
const DefaultRoom = "general"

// MaxMessageLength is the maximum accepted chat message body length in
// characters, after trimming.
const MaxMessageLength = 500

// ChatMessage is a persisted chat message. Immutable once stored except
// for administrative deletion.
type ChatMessage struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	UserID    string    `json:"user_id"`
	UserRole  string    `json:"user_role"`
	Body      string    `json:"message"`
	Room      string    `json:"room"`
	CreatedAt time.Time `json:"created_at"`
}

// ToPayload converts a persisted message to its wire representation.
func (m *ChatMessage) ToPayload() MessagePayload {
	return MessagePayload{
		ID:        m.ID,
		Username:  m.Username,
		Message:   m.Body,
		Timestamp: m.CreatedAt,
		Type:      MessageTypeUser,
		UserRole:  m.UserRole,
	}
}

// ChatHistoryResponse is the REST history page, oldest first.
type ChatHistoryResponse struct {
	Messages []ChatMessage `json:"messages"`
	Total    int           `json:"total"`
	Limit    int           `json:"limit"`
	Offset   int           `json:"offset"`
}
