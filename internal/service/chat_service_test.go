package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/aadrigaar/portal-productos/internal/config"
	"github.com/aadrigaar/portal-productos/internal/domain"
	"github.com/aadrigaar/portal-productos/internal/hub"
	"github.com/aadrigaar/portal-productos/internal/presence"
)

// fakeMessageRepo is an in-memory MessageRepository for service tests.
type fakeMessageRepo struct {
	mu        sync.Mutex
	messages  []domain.ChatMessage
	appendErr error
	queryErr  error
	seq       int
}

func (f *fakeMessageRepo) Append(_ context.Context, msg *domain.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.seq++
	msg.ID = fmt.Sprintf("msg-%d", f.seq)
	msg.CreatedAt = time.Now().UTC()
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeMessageRepo) QueryRecent(_ context.Context, room string, limit int) ([]domain.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queryErr != nil {
		return nil, f.queryErr
	}

	var out []domain.ChatMessage
	for i := len(f.messages) - 1; i >= 0 && len(out) < limit; i-- {
		if f.messages[i].Room == room {
			out = append(out, f.messages[i])
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) QueryPage(ctx context.Context, room string, limit, offset int) ([]domain.ChatMessage, error) {
	newest, err := f.QueryRecent(ctx, room, limit+offset)
	if err != nil {
		return nil, err
	}
	if offset >= len(newest) {
		return nil, nil
	}
	return newest[offset:], nil
}

func (f *fakeMessageRepo) Delete(_ context.Context, id string) (*domain.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.messages {
		if f.messages[i].ID == id {
			deleted := f.messages[i]
			f.messages = append(f.messages[:i], f.messages[i+1:]...)
			return &deleted, nil
		}
	}
	return nil, errors.New("message not found")
}

func (f *fakeMessageRepo) Clear(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := int64(len(f.messages))
	f.messages = nil
	return count, nil
}

func (f *fakeMessageRepo) stored() []domain.ChatMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.ChatMessage, len(f.messages))
	copy(out, f.messages)
	return out
}

type chatFixture struct {
	hub      *hub.Hub
	registry *presence.Registry
	repo     *fakeMessageRepo
	chat     ChatService
}

func newChatFixture(repo *fakeMessageRepo) *chatFixture {
	if repo == nil {
		repo = &fakeMessageRepo{}
	}
	h := hub.NewHub()
	registry := presence.NewRegistry()
	return &chatFixture{
		hub:      h,
		registry: registry,
		repo:     repo,
		chat:     NewChatService(h, registry, repo, 50),
	}
}

// newTestClient builds a client without a transport; events accumulate
// in the buffered send channel where tests read them back.
func newTestClient(username, role string) *hub.Client {
	id := uuid.New().String()
	session := domain.NewSession(id, domain.Identity{
		ID:       "user-" + username,
		Username: username,
		Email:    username + "@test.local",
		Role:     role,
	})
	return hub.NewClient(id, nil, session, config.WebSocketConfig{SendBufferSize: 64})
}

func drainEvents(t *testing.T, client *hub.Client) []domain.Envelope {
	t.Helper()
	var events []domain.Envelope
	for {
		select {
		case frame := <-client.Send:
			var env domain.Envelope
			if err := json.Unmarshal(frame, &env); err != nil {
				t.Fatalf("malformed frame %q: %v", frame, err)
			}
			events = append(events, env)
		default:
			return events
		}
	}
}

func eventsOfType(events []domain.Envelope, eventType string) []domain.Envelope {
	var out []domain.Envelope
	for _, e := range events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func TestHandleConnectDeliversWelcomeHistoryAndPresence(t *testing.T) {
	repo := &fakeMessageRepo{}
	for i := 1; i <= 3; i++ {
		repo.Append(context.Background(), &domain.ChatMessage{
			Username: "earlier",
			Body:     fmt.Sprintf("message %d", i),
			Room:     domain.DefaultRoom,
		})
	}

	f := newChatFixture(repo)
	client := newTestClient("alice", domain.RoleUser)

	if err := f.chat.HandleConnect(context.Background(), client); err != nil {
		t.Fatalf("HandleConnect: %v", err)
	}

	if got := client.Session.State(); got != domain.SessionActive {
		t.Fatalf("session state = %v, want active", got)
	}

	events := drainEvents(t, client)
	if len(events) < 3 {
		t.Fatalf("expected at least 3 events, got %d: %+v", len(events), events)
	}

	if events[0].Type != domain.EventNewMessage {
		t.Fatalf("first event = %s, want %s", events[0].Type, domain.EventNewMessage)
	}
	var welcome domain.MessagePayload
	if err := json.Unmarshal(events[0].Data, &welcome); err != nil {
		t.Fatal(err)
	}
	if welcome.Type != domain.MessageTypeSystem || welcome.Username != domain.SystemUsername {
		t.Errorf("welcome = %+v, want system message", welcome)
	}
	if !strings.Contains(welcome.Message, "alice") {
		t.Errorf("welcome not personalized: %q", welcome.Message)
	}

	history := eventsOfType(events, domain.EventChatHistory)
	if len(history) != 1 {
		t.Fatalf("got %d chatHistory events, want 1", len(history))
	}
	var replay []domain.MessagePayload
	if err := json.Unmarshal(history[0].Data, &replay); err != nil {
		t.Fatal(err)
	}
	if len(replay) != 3 {
		t.Fatalf("replayed %d messages, want 3", len(replay))
	}
	for i := 1; i < len(replay); i++ {
		if replay[i].Timestamp.Before(replay[i-1].Timestamp) {
			t.Errorf("history out of order at %d: %v before %v", i, replay[i].Timestamp, replay[i-1].Timestamp)
		}
	}
	if replay[0].Message != "message 1" || replay[2].Message != "message 3" {
		t.Errorf("history not oldest-first: %+v", replay)
	}

	online := eventsOfType(events, domain.EventUsersOnline)
	if len(online) != 1 {
		t.Fatalf("got %d usersOnline events, want 1", len(online))
	}
	var snapshot domain.PresenceSnapshot
	if err := json.Unmarshal(online[0].Data, &snapshot); err != nil {
		t.Fatal(err)
	}
	if snapshot.Count != 1 || len(snapshot.Users) != 1 || snapshot.Users[0].Username != "alice" {
		t.Errorf("snapshot = %+v, want alice alone", snapshot)
	}
}

func TestHandleConnectBroadcastsJoinToOthersOnly(t *testing.T) {
	f := newChatFixture(nil)
	alice := newTestClient("alice", domain.RoleUser)
	bob := newTestClient("bob", domain.RoleUser)

	if err := f.chat.HandleConnect(context.Background(), alice); err != nil {
		t.Fatal(err)
	}
	drainEvents(t, alice)

	if err := f.chat.HandleConnect(context.Background(), bob); err != nil {
		t.Fatal(err)
	}

	aliceEvents := drainEvents(t, alice)
	joins := eventsOfType(aliceEvents, domain.EventNewMessage)
	if len(joins) != 1 {
		t.Fatalf("alice got %d newMessage events, want 1 join notice", len(joins))
	}
	var join domain.MessagePayload
	if err := json.Unmarshal(joins[0].Data, &join); err != nil {
		t.Fatal(err)
	}
	if join.Type != domain.MessageTypeSystem || !strings.Contains(join.Message, "bob has joined") {
		t.Errorf("join notice = %+v", join)
	}

	online := eventsOfType(aliceEvents, domain.EventUsersOnline)
	if len(online) != 1 {
		t.Fatalf("alice got %d usersOnline events, want 1", len(online))
	}
	var snapshot domain.PresenceSnapshot
	if err := json.Unmarshal(online[0].Data, &snapshot); err != nil {
		t.Fatal(err)
	}
	if snapshot.Count != 2 {
		t.Errorf("snapshot count = %d, want 2", snapshot.Count)
	}

	// Bob must not see his own join notice, only welcome + history + presence.
	bobEvents := drainEvents(t, bob)
	for _, e := range eventsOfType(bobEvents, domain.EventNewMessage) {
		var msg domain.MessagePayload
		if err := json.Unmarshal(e.Data, &msg); err != nil {
			t.Fatal(err)
		}
		if strings.Contains(msg.Message, "bob has joined") {
			t.Errorf("bob received his own join notice: %+v", msg)
		}
	}
}

func TestHandleConnectSurvivesHistoryFailure(t *testing.T) {
	repo := &fakeMessageRepo{queryErr: errors.New("storage down")}
	f := newChatFixture(repo)
	client := newTestClient("alice", domain.RoleUser)

	if err := f.chat.HandleConnect(context.Background(), client); err != nil {
		t.Fatalf("HandleConnect: %v", err)
	}

	events := drainEvents(t, client)
	if got := eventsOfType(events, domain.EventChatHistory); len(got) != 0 {
		t.Errorf("expected no chatHistory events, got %d", len(got))
	}
	if !client.Session.IsActive() {
		t.Error("session should remain active when history is unavailable")
	}
}

func TestHandleSendMessageBroadcastsToEveryone(t *testing.T) {
	f := newChatFixture(nil)
	alice := newTestClient("alice", domain.RoleAdmin)
	bob := newTestClient("bob", domain.RoleUser)
	for _, c := range []*hub.Client{alice, bob} {
		if err := f.chat.HandleConnect(context.Background(), c); err != nil {
			t.Fatal(err)
		}
		drainEvents(t, c)
	}
	drainEvents(t, alice)

	if err := f.chat.HandleSendMessage(context.Background(), alice, "  hello world  "); err != nil {
		t.Fatalf("HandleSendMessage: %v", err)
	}

	for name, c := range map[string]*hub.Client{"alice": alice, "bob": bob} {
		events := eventsOfType(drainEvents(t, c), domain.EventNewMessage)
		if len(events) != 1 {
			t.Fatalf("%s got %d newMessage events, want 1", name, len(events))
		}
		var msg domain.MessagePayload
		if err := json.Unmarshal(events[0].Data, &msg); err != nil {
			t.Fatal(err)
		}
		if msg.Message != "hello world" {
			t.Errorf("%s saw body %q, want trimmed %q", name, msg.Message, "hello world")
		}
		if msg.Username != "alice" || msg.UserRole != domain.RoleAdmin || msg.Type != domain.MessageTypeUser {
			t.Errorf("%s saw wrong attribution: %+v", name, msg)
		}
		if msg.ID == "" {
			t.Errorf("%s saw message without id", name)
		}
	}

	stored := f.repo.stored()
	if len(stored) != 1 {
		t.Fatalf("stored %d messages, want 1", len(stored))
	}
	if stored[0].UserID != alice.Session.Identity.ID || stored[0].Username != "alice" {
		t.Errorf("stored message not bound to sender identity: %+v", stored[0])
	}
}

func TestHandleSendMessageValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"whitespace only", "   \t\n  "},
		{"over length limit", strings.Repeat("x", domain.MaxMessageLength+1)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newChatFixture(nil)
			alice := newTestClient("alice", domain.RoleUser)
			bob := newTestClient("bob", domain.RoleUser)
			for _, c := range []*hub.Client{alice, bob} {
				if err := f.chat.HandleConnect(context.Background(), c); err != nil {
					t.Fatal(err)
				}
				drainEvents(t, c)
			}
			drainEvents(t, alice)

			if err := f.chat.HandleSendMessage(context.Background(), alice, tc.body); err != nil {
				t.Fatalf("HandleSendMessage: %v", err)
			}

			aliceEvents := drainEvents(t, alice)
			if got := eventsOfType(aliceEvents, domain.EventError); len(got) != 1 {
				t.Fatalf("sender got %d error events, want 1", len(got))
			}
			if got := eventsOfType(aliceEvents, domain.EventNewMessage); len(got) != 0 {
				t.Errorf("rejected message was broadcast to sender")
			}
			if got := drainEvents(t, bob); len(got) != 0 {
				t.Errorf("other session received %d events for a rejected message", len(got))
			}
			if got := len(f.repo.stored()); got != 0 {
				t.Errorf("rejected message was persisted: %d stored", got)
			}
		})
	}
}

func TestHandleSendMessageAcceptsMaxLengthBody(t *testing.T) {
	f := newChatFixture(nil)
	alice := newTestClient("alice", domain.RoleUser)
	if err := f.chat.HandleConnect(context.Background(), alice); err != nil {
		t.Fatal(err)
	}
	drainEvents(t, alice)

	body := strings.Repeat("x", domain.MaxMessageLength)
	if err := f.chat.HandleSendMessage(context.Background(), alice, body); err != nil {
		t.Fatalf("HandleSendMessage: %v", err)
	}

	events := drainEvents(t, alice)
	if got := eventsOfType(events, domain.EventError); len(got) != 0 {
		t.Fatalf("max-length message rejected")
	}
	if got := eventsOfType(events, domain.EventNewMessage); len(got) != 1 {
		t.Fatalf("max-length message not broadcast")
	}
}

func TestHandleSendMessagePersistFailureScopedToSender(t *testing.T) {
	repo := &fakeMessageRepo{appendErr: errors.New("storage down")}
	f := newChatFixture(repo)
	alice := newTestClient("alice", domain.RoleUser)
	bob := newTestClient("bob", domain.RoleUser)
	for _, c := range []*hub.Client{alice, bob} {
		if err := f.chat.HandleConnect(context.Background(), c); err != nil {
			t.Fatal(err)
		}
		drainEvents(t, c)
	}
	drainEvents(t, alice)

	if err := f.chat.HandleSendMessage(context.Background(), alice, "hello"); err == nil {
		t.Fatal("expected persistence error")
	}

	aliceEvents := drainEvents(t, alice)
	if got := eventsOfType(aliceEvents, domain.EventError); len(got) != 1 {
		t.Fatalf("sender got %d error events, want 1", len(got))
	}
	if got := drainEvents(t, bob); len(got) != 0 {
		t.Errorf("other session received %d events for a failed message", len(got))
	}
	if !alice.Session.IsActive() {
		t.Error("session should survive a persistence failure")
	}
}

func TestTypingRelayExcludesSenderAndSkipsDedup(t *testing.T) {
	f := newChatFixture(nil)
	alice := newTestClient("alice", domain.RoleUser)
	bob := newTestClient("bob", domain.RoleUser)
	for _, c := range []*hub.Client{alice, bob} {
		if err := f.chat.HandleConnect(context.Background(), c); err != nil {
			t.Fatal(err)
		}
		drainEvents(t, c)
	}
	drainEvents(t, alice)

	// Repeated starts relay every time; the server does not deduplicate.
	f.chat.HandleTypingStart(context.Background(), alice)
	f.chat.HandleTypingStart(context.Background(), alice)
	f.chat.HandleTypingStop(context.Background(), alice)

	if got := drainEvents(t, alice); len(got) != 0 {
		t.Errorf("sender received %d of their own typing events", len(got))
	}

	bobEvents := drainEvents(t, bob)
	starts := eventsOfType(bobEvents, domain.EventTypingStart)
	stops := eventsOfType(bobEvents, domain.EventTypingStop)
	if len(starts) != 2 || len(stops) != 1 {
		t.Fatalf("bob got %d starts and %d stops, want 2 and 1", len(starts), len(stops))
	}
	var payload domain.TypingPayload
	if err := json.Unmarshal(starts[0].Data, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Username != "alice" {
		t.Errorf("typing relay attributed to %q, want alice", payload.Username)
	}
}

func TestHandleDisconnectCleansUpAndNotifies(t *testing.T) {
	f := newChatFixture(nil)
	alice := newTestClient("alice", domain.RoleUser)
	bob := newTestClient("bob", domain.RoleUser)
	for _, c := range []*hub.Client{alice, bob} {
		if err := f.chat.HandleConnect(context.Background(), c); err != nil {
			t.Fatal(err)
		}
		drainEvents(t, c)
	}
	drainEvents(t, alice)

	if err := f.chat.HandleDisconnect(context.Background(), bob); err != nil {
		t.Fatalf("HandleDisconnect: %v", err)
	}

	if got := f.registry.Count(); got != 1 {
		t.Errorf("registry count = %d, want 1", got)
	}
	if got := f.hub.Count(); got != 1 {
		t.Errorf("hub count = %d, want 1", got)
	}

	aliceEvents := drainEvents(t, alice)
	leaves := eventsOfType(aliceEvents, domain.EventNewMessage)
	if len(leaves) != 1 {
		t.Fatalf("alice got %d newMessage events, want 1 leave notice", len(leaves))
	}
	var leave domain.MessagePayload
	if err := json.Unmarshal(leaves[0].Data, &leave); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(leave.Message, "bob has left") {
		t.Errorf("leave notice = %q", leave.Message)
	}

	online := eventsOfType(aliceEvents, domain.EventUsersOnline)
	if len(online) != 1 {
		t.Fatalf("alice got %d usersOnline events, want 1", len(online))
	}
	var snapshot domain.PresenceSnapshot
	if err := json.Unmarshal(online[0].Data, &snapshot); err != nil {
		t.Fatal(err)
	}
	if snapshot.Count != 1 || snapshot.Users[0].Username != "alice" {
		t.Errorf("snapshot after disconnect = %+v", snapshot)
	}
}

func TestHandleDisconnectRunsCleanupExactlyOnce(t *testing.T) {
	f := newChatFixture(nil)
	alice := newTestClient("alice", domain.RoleUser)
	bob := newTestClient("bob", domain.RoleUser)
	for _, c := range []*hub.Client{alice, bob} {
		if err := f.chat.HandleConnect(context.Background(), c); err != nil {
			t.Fatal(err)
		}
		drainEvents(t, c)
	}
	drainEvents(t, alice)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.chat.HandleDisconnect(context.Background(), bob)
		}()
	}
	wg.Wait()

	aliceEvents := drainEvents(t, alice)
	if got := eventsOfType(aliceEvents, domain.EventNewMessage); len(got) != 1 {
		t.Errorf("got %d leave notices, want exactly 1", len(got))
	}
	if got := eventsOfType(aliceEvents, domain.EventUsersOnline); len(got) != 1 {
		t.Errorf("got %d presence broadcasts, want exactly 1", len(got))
	}
	if got := f.registry.Count(); got != 1 {
		t.Errorf("registry count = %d, want 1", got)
	}
}

func TestSendMessageRejectedBeforeActivation(t *testing.T) {
	f := newChatFixture(nil)
	client := newTestClient("alice", domain.RoleUser)

	if err := f.chat.HandleSendMessage(context.Background(), client, "too early"); err != nil {
		t.Fatalf("HandleSendMessage: %v", err)
	}

	events := drainEvents(t, client)
	if got := eventsOfType(events, domain.EventError); len(got) != 1 {
		t.Fatalf("got %d error events, want 1", len(got))
	}
	if got := len(f.repo.stored()); got != 0 {
		t.Errorf("message persisted before activation: %d stored", got)
	}
}

func TestHistoryReplayCappedAtLimit(t *testing.T) {
	repo := &fakeMessageRepo{}
	for i := 1; i <= 60; i++ {
		repo.Append(context.Background(), &domain.ChatMessage{
			Username: "earlier",
			Body:     fmt.Sprintf("message %d", i),
			Room:     domain.DefaultRoom,
		})
	}

	f := newChatFixture(repo)
	client := newTestClient("alice", domain.RoleUser)
	if err := f.chat.HandleConnect(context.Background(), client); err != nil {
		t.Fatal(err)
	}

	history := eventsOfType(drainEvents(t, client), domain.EventChatHistory)
	if len(history) != 1 {
		t.Fatalf("got %d chatHistory events, want 1", len(history))
	}
	var replay []domain.MessagePayload
	if err := json.Unmarshal(history[0].Data, &replay); err != nil {
		t.Fatal(err)
	}
	if len(replay) != 50 {
		t.Fatalf("replayed %d messages, want 50", len(replay))
	}
	// The newest 50 of 60, oldest first: 11 .. 60.
	if replay[0].Message != "message 11" || replay[49].Message != "message 60" {
		t.Errorf("replay window wrong: first %q last %q", replay[0].Message, replay[49].Message)
	}
}
