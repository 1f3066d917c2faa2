package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aadrigaar/portal-productos/internal/config"
	"github.com/aadrigaar/portal-productos/internal/domain"
	"github.com/aadrigaar/portal-productos/pkg/log"
)

// Client wraps one WebSocket connection with its session and a buffered
// outbound queue drained by WritePump.
type Client struct {
	SessionID string
	Conn      *websocket.Conn
	Send      chan []byte
	Session   *domain.Session

	cfg       config.WebSocketConfig
	closeOnce sync.Once
	done      chan struct{}
}

// NewClient creates a client for an upgraded connection.
func NewClient(sessionID string, conn *websocket.Conn, session *domain.Session, cfg config.WebSocketConfig) *Client {
	bufSize := cfg.SendBufferSize
	if bufSize <= 0 {
		bufSize = 256
	}
	return &Client{
		SessionID: sessionID,
		Conn:      conn,
		Send:      make(chan []byte, bufSize),
		Session:   session,
		cfg:       cfg,
		done:      make(chan struct{}),
	}
}

// Close tears down the transport. Safe to call multiple times.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.Conn != nil {
			c.Conn.Close()
		}
	})
}

// Done is closed when the client is shut down.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// ReadPump reads inbound frames until the connection dies, then invokes
// onClose. onClose fires for every termination cause: explicit disconnect,
// transport error, or pong timeout.
func (c *Client) ReadPump(handler func(*Client, []byte), onClose func(*Client)) {
	defer func() {
		onClose(c)
		c.Close()
	}()

	c.Conn.SetReadLimit(c.cfg.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				l := log.L()
				l.Debug().Err(err).Str(log.FieldSessionID, c.SessionID).Msg("websocket read error")
			}
			return
		}

		handler(c, message)
	}
}

// WritePump drains the send queue onto the connection and keeps the
// connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}

// SendEvent marshals and enqueues an outbound event. Events to a client
// whose buffer is full are dropped; the hub removes such clients on
// broadcast.
func (c *Client) SendEvent(event *domain.OutEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	select {
	case c.Send <- data:
	default:
	}
	return nil
}
