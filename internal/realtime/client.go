package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	maxFrame   = 8 * 1024
	sendBuffer = 256
)

// TokenParser resolves an access token to a user id.
type TokenParser interface {
	ParseAccessToken(raw string) (uuid.UUID, error)
}

// MessageSender persists a chat message and pushes it to both participants.
type MessageSender interface {
	SendMessage(ctx context.Context, senderID, targetID uuid.UUID, text string) (*models.ChatMessage, error)
}

type Client struct {
	ID     uuid.UUID
	UserID uuid.UUID

	conn *websocket.Conn
	hub  *Hub
	send chan []byte

	mu     sync.Mutex
	closed bool
}

func (c *Client) trySend(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		close(c.send)
		c.closed = true
	}
}

type chatFrame struct {
	TargetUserID uuid.UUID `json:"targetUserId"`
	Text         string    `json:"text"`
}

// Gateway upgrades authenticated requests to sockets. The token travels in
// the "token" query parameter since browsers cannot set headers on upgrade.
type Gateway struct {
	hub      *Hub
	tokens   TokenParser
	sender   MessageSender
	upgrader websocket.Upgrader
}

func NewGateway(hub *Hub, tokens TokenParser, sender MessageSender, allowedOrigins []string) *Gateway {
	allowAll := len(allowedOrigins) == 0
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		origins[o] = true
	}
	return &Gateway{
		hub:    hub,
		tokens: tokens,
		sender: sender,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowAll || origin == "" || origins[origin]
			},
		},
	}
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("token")
	if raw == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	userID, err := g.tokens.ParseAccessToken(raw)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "user_id", userID.String(), "error", err)
		return
	}

	c := &Client{
		ID:     uuid.New(),
		UserID: userID,
		conn:   conn,
		hub:    g.hub,
		send:   make(chan []byte, sendBuffer),
	}
	if !g.hub.Register(c) {
		return
	}

	go c.writePump()
	go c.readPump(g.sender)
}

func (c *Client) readPump(sender MessageSender) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxFrame)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				slog.Warn("socket closed unexpectedly", "user_id", c.UserID.String(), "error", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.sendError("invalid JSON frame")
			continue
		}

		switch env.Type {
		case "heartbeat":
			_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
			if frame, err := encode("heartbeat", map[string]int64{"ts": time.Now().Unix()}); err == nil {
				c.trySend(frame)
			}
		case "message":
			c.handleMessage(sender, env.Data)
		default:
			c.sendError("unknown frame type: " + env.Type)
		}
	}
}

func (c *Client) handleMessage(sender MessageSender, data json.RawMessage) {
	var frame chatFrame
	if err := json.Unmarshal(data, &frame); err != nil || frame.TargetUserID == uuid.Nil {
		c.sendError("message needs targetUserId and text")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	if _, err := sender.SendMessage(ctx, c.UserID, frame.TargetUserID, frame.Text); err != nil {
		c.sendError(err.Error())
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) sendError(msg string) {
	if frame, err := encode("error", map[string]string{"message": msg}); err == nil {
		c.trySend(frame)
	}
}
