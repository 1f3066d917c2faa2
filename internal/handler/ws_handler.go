package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/aadrigaar/portal-productos/internal/auth"
	"github.com/aadrigaar/portal-productos/internal/config"
	"github.com/aadrigaar/portal-productos/internal/domain"
	"github.com/aadrigaar/portal-productos/internal/hub"
	"github.com/aadrigaar/portal-productos/internal/service"
	"github.com/aadrigaar/portal-productos/pkg/log"
	"github.com/aadrigaar/portal-productos/pkg/response"
)

// WSHandler upgrades chat connections. The credential is verified before
// the upgrade, so a rejected handshake never touches the presence
// registry or the hub.
type WSHandler struct {
	verifier *auth.Verifier
	chat     service.ChatService
	cfg      config.WebSocketConfig
	upgrader websocket.Upgrader
}

// NewWSHandler creates the WebSocket handler.
func NewWSHandler(verifier *auth.Verifier, chat service.ChatService, cfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		verifier: verifier,
		chat:     chat,
		cfg:      cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Handle verifies the handshake credential, upgrades the connection,
// and runs the session until it disconnects.
func (h *WSHandler) Handle(c *gin.Context) {
	credential := extractCredential(c)

	identity, err := h.verifier.Verify(c.Request.Context(), credential)
	if err != nil {
		response.Unauthorized(c, handshakeErrorMessage(err))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Ctx(c.Request.Context()).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	sessionID := uuid.New().String()
	session := domain.NewSession(sessionID, *identity)
	client := hub.NewClient(sessionID, conn, session, h.cfg)

	// The request context dies with the handshake; the session outlives it.
	ctx := log.WithLogger(context.Background(), log.L().With().
		Str(log.FieldSessionID, sessionID).
		Str(log.FieldUserID, identity.ID).
		Str(log.FieldUsername, identity.Username).
		Logger())

	go client.WritePump()

	if err := h.chat.HandleConnect(ctx, client); err != nil {
		client.Close()
		return
	}

	client.ReadPump(
		func(cl *hub.Client, frame []byte) {
			h.dispatch(ctx, cl, frame)
		},
		func(cl *hub.Client) {
			h.chat.HandleDisconnect(ctx, cl)
		},
	)
}

// dispatch routes one inbound frame to the chat service. Malformed or
// unknown frames produce a scoped error for the sender only.
func (h *WSHandler) dispatch(ctx context.Context, client *hub.Client, frame []byte) {
	var envelope domain.Envelope
	if err := json.Unmarshal(frame, &envelope); err != nil {
		client.SendEvent(domain.NewErrorEvent("invalid message format"))
		return
	}

	switch envelope.Type {
	case domain.EventSendMessage:
		var payload domain.SendMessagePayload
		if len(envelope.Data) > 0 {
			if err := json.Unmarshal(envelope.Data, &payload); err != nil {
				client.SendEvent(domain.NewErrorEvent("invalid message format"))
				return
			}
		}
		h.chat.HandleSendMessage(ctx, client, payload.Message)

	case domain.EventTypingStart:
		h.chat.HandleTypingStart(ctx, client)

	case domain.EventTypingStop:
		h.chat.HandleTypingStop(ctx, client)

	default:
		client.SendEvent(domain.NewErrorEvent("unknown event type"))
	}
}

// extractCredential pulls the bearer token from the token query
// parameter or the Authorization header.
func extractCredential(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}

	authHeader := c.GetHeader(auth.AuthHeaderKey)
	if strings.HasPrefix(authHeader, auth.BearerPrefix) {
		return strings.TrimPrefix(authHeader, auth.BearerPrefix)
	}
	return ""
}

func handshakeErrorMessage(err error) string {
	switch err {
	case auth.ErrMissingCredential:
		return "access token required"
	case auth.ErrIdentityNotFound:
		return "user not found"
	default:
		return "invalid or expired token"
	}
}
