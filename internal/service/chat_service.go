package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aadrigaar/portal-productos/internal/domain"
	"github.com/aadrigaar/portal-productos/internal/hub"
	"github.com/aadrigaar/portal-productos/internal/presence"
	"github.com/aadrigaar/portal-productos/internal/repository"
	"github.com/aadrigaar/portal-productos/pkg/log"
)

type chatService struct {
	hub          *hub.Hub
	registry     *presence.Registry
	messages     repository.MessageRepository
	historyLimit int
}

// NewChatService creates the realtime chat service.
func NewChatService(h *hub.Hub, registry *presence.Registry, messages repository.MessageRepository, historyLimit int) ChatService {
	if historyLimit <= 0 {
		historyLimit = 50
	}
	return &chatService{
		hub:          h,
		registry:     registry,
		messages:     messages,
		historyLimit: historyLimit,
	}
}

// HandleConnect admits an authenticated session into the chat room. The
// session is registered before any traffic is emitted, so the presence
// snapshot broadcast at the end already includes the newcomer.
func (s *chatService) HandleConnect(ctx context.Context, client *hub.Client) error {
	session := client.Session
	if !session.Authenticate() {
		return domain.ErrSessionState
	}

	if err := s.registry.Register(client.SessionID, session.Identity, session.ConnectedAt); err != nil {
		log.Ctx(ctx).Error().Err(err).
			Str(log.FieldSessionID, client.SessionID).
			Msg("failed to register session")
		client.SendEvent(domain.NewErrorEvent("failed to join the chat"))
		return err
	}
	s.hub.Add(client)
	username := session.Identity.Username

	welcome := domain.NewSystemMessage(
		"Welcome to the chat, "+username+"! Type a message to get started.",
		time.Now().UTC(),
	)
	client.SendEvent(domain.NewOutEvent(domain.EventNewMessage, welcome))

	s.replayHistory(ctx, client)

	joined := domain.NewSystemMessage(username+" has joined the chat", time.Now().UTC())
	s.hub.Broadcast(domain.NewOutEvent(domain.EventNewMessage, joined), client.SessionID)

	s.broadcastPresence()

	session.Activate()

	log.Ctx(ctx).Info().
		Str(log.FieldSessionID, client.SessionID).
		Str(log.FieldUsername, username).
		Int("online", s.registry.Count()).
		Msg("session joined chat")
	return nil
}

// replayHistory sends the most recent persisted messages to a single
// client, oldest first, as one chatHistory payload. A storage failure
// only skips the replay; the session stays up.
func (s *chatService) replayHistory(ctx context.Context, client *hub.Client) {
	recent, err := s.messages.QueryRecent(ctx, domain.DefaultRoom, s.historyLimit)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).
			Str(log.FieldSessionID, client.SessionID).
			Msg("failed to load chat history")
		return
	}

	payloads := make([]domain.MessagePayload, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		payloads = append(payloads, recent[i].ToPayload())
	}
	client.SendEvent(domain.NewOutEvent(domain.EventChatHistory, payloads))
}

// HandleSendMessage validates, persists, and fans out a chat message.
// Validation and persistence failures are reported only to the sender.
func (s *chatService) HandleSendMessage(ctx context.Context, client *hub.Client, body string) error {
	if !client.Session.IsActive() {
		client.SendEvent(domain.NewErrorEvent("not connected to chat"))
		return nil
	}

	body = strings.TrimSpace(body)
	if body == "" {
		client.SendEvent(domain.NewErrorEvent("message cannot be empty"))
		return nil
	}
	if utf8.RuneCountInString(body) > domain.MaxMessageLength {
		client.SendEvent(domain.NewErrorEvent("message is too long"))
		return nil
	}

	identity := client.Session.Identity
	msg := &domain.ChatMessage{
		Username: identity.Username,
		UserID:   identity.ID,
		UserRole: identity.Role,
		Body:     body,
		Room:     domain.DefaultRoom,
	}

	if err := s.messages.Append(ctx, msg); err != nil {
		log.Ctx(ctx).Error().Err(err).
			Str(log.FieldSessionID, client.SessionID).
			Msg("failed to persist chat message")
		client.SendEvent(domain.NewErrorEvent("failed to send message"))
		return err
	}

	s.hub.Broadcast(domain.NewOutEvent(domain.EventNewMessage, msg.ToPayload()), "")

	log.Ctx(ctx).Debug().
		Str(log.FieldMessageID, msg.ID).
		Str(log.FieldUsername, identity.Username).
		Msg("chat message delivered")
	return nil
}

// HandleTypingStart relays a typing notification to every other session.
func (s *chatService) HandleTypingStart(ctx context.Context, client *hub.Client) error {
	return s.relayTyping(client, domain.EventTypingStart, true)
}

// HandleTypingStop relays the end of a typing notification to every
// other session.
func (s *chatService) HandleTypingStop(ctx context.Context, client *hub.Client) error {
	return s.relayTyping(client, domain.EventTypingStop, false)
}

func (s *chatService) relayTyping(client *hub.Client, event string, isTyping bool) error {
	if !client.Session.IsActive() {
		return nil
	}

	payload := domain.TypingPayload{
		Username: client.Session.Identity.Username,
		IsTyping: isTyping,
	}
	s.hub.Broadcast(domain.NewOutEvent(event, payload), client.SessionID)
	return nil
}

// HandleDisconnect tears a session down. The Close transition on the
// session guarantees the cleanup runs once no matter how many callers
// race here.
func (s *chatService) HandleDisconnect(ctx context.Context, client *hub.Client) error {
	wasActive := client.Session.IsActive()
	if !client.Session.Close() {
		return nil
	}

	s.hub.Remove(client.SessionID)
	s.registry.Unregister(client.SessionID)
	client.Close()

	if wasActive {
		username := client.Session.Identity.Username
		left := domain.NewSystemMessage(username+" has left the chat", time.Now().UTC())
		s.hub.Broadcast(domain.NewOutEvent(domain.EventNewMessage, left), client.SessionID)
		s.broadcastPresence()

		log.Ctx(ctx).Info().
			Str(log.FieldSessionID, client.SessionID).
			Str(log.FieldUsername, username).
			Int("online", s.registry.Count()).
			Msg("session left chat")
	}
	return nil
}

// OnlineCount reports how many sessions are currently registered.
func (s *chatService) OnlineCount() int {
	return s.registry.Count()
}

func (s *chatService) broadcastPresence() {
	snapshot := s.registry.Snapshot()
	s.hub.Broadcast(domain.NewOutEvent(domain.EventUsersOnline, snapshot), "")
}
