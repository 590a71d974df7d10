package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/cache"
)

// BroadcastChannel carries pushes between instances.
const BroadcastChannel = "lynk:ws:broadcast"

const defaultMaxConnectionsPerUser = 5

// Envelope is the frame format on the socket in both directions.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// broadcastMessage is published on BroadcastChannel. PodID lets the sender
// skip its own messages.
type broadcastMessage struct {
	UserID  string `json:"user_id"`
	PodID   string `json:"pod_id"`
	Payload []byte `json:"payload"`
}

// Hub tracks live sockets per user, one entry per device.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[uuid.UUID]*Client

	maxConnectionsPerUser int

	pubsub   cache.PubSub
	podID    string
	cancel   func()
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewHub(pubsub cache.PubSub) *Hub {
	return &Hub{
		clients:               make(map[uuid.UUID]map[uuid.UUID]*Client),
		maxConnectionsPerUser: defaultMaxConnectionsPerUser,
		pubsub:                pubsub,
		podID:                 uuid.NewString(),
	}
}

// Start subscribes to BroadcastChannel so pushes made on other instances
// reach sockets held by this one.
func (h *Hub) Start(ctx context.Context) error {
	ch, cancel, err := h.pubsub.Subscribe(ctx, BroadcastChannel)
	if err != nil {
		return fmt.Errorf("hub subscribe: %w", err)
	}
	h.cancel = cancel

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for msg := range ch {
			h.handleBroadcast([]byte(msg.Payload))
		}
	}()
	slog.Info("realtime hub subscribed", "channel", BroadcastChannel, "pod", h.podID[:8])
	return nil
}

// Stop ends the subscription and closes every socket.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		if h.cancel != nil {
			h.cancel()
		}
		h.wg.Wait()

		h.mu.RLock()
		var all []*Client
		for _, devices := range h.clients {
			for _, c := range devices {
				all = append(all, c)
			}
		}
		h.mu.RUnlock()
		for _, c := range all {
			h.Unregister(c)
		}
	})
}

// Register adds a client. A user over the device limit gets an error frame
// and a closed socket.
func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	if h.clients[c.UserID] == nil {
		h.clients[c.UserID] = make(map[uuid.UUID]*Client)
	}
	if len(h.clients[c.UserID]) >= h.maxConnectionsPerUser {
		h.mu.Unlock()
		slog.Warn("too many sockets for user", "user_id", c.UserID.String(), "limit", h.maxConnectionsPerUser)
		if frame, err := encode("error", map[string]string{"code": "too_many_devices"}); err == nil {
			_ = c.conn.WriteMessage(websocket.TextMessage, frame)
		}
		_ = c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "too many devices"))
		_ = c.conn.Close()
		return false
	}
	h.clients[c.UserID][c.ID] = c
	devices := len(h.clients[c.UserID])
	h.mu.Unlock()

	slog.Info("socket connected", "user_id", c.UserID.String(), "devices", devices)
	return true
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if devices, ok := h.clients[c.UserID]; ok {
		if _, found := devices[c.ID]; found {
			delete(devices, c.ID)
			if len(devices) == 0 {
				delete(h.clients, c.UserID)
			}
		}
	}
	h.mu.Unlock()
	c.closeSend()
}

// SendToUser writes to every local socket of userID. It reports whether any
// socket accepted the message.
func (h *Hub) SendToUser(userID uuid.UUID, message []byte) bool {
	h.mu.RLock()
	devices := make([]*Client, 0, len(h.clients[userID]))
	for _, c := range h.clients[userID] {
		devices = append(devices, c)
	}
	h.mu.RUnlock()

	sent := false
	for _, c := range devices {
		if c.trySend(message) {
			sent = true
			continue
		}
		slog.Warn("socket send buffer full, dropping client", "user_id", userID.String())
		go h.Unregister(c)
	}
	return sent
}

// BroadcastToUser delivers locally and publishes for the other instances.
func (h *Hub) BroadcastToUser(userID uuid.UUID, message []byte) {
	h.SendToUser(userID, message)

	data, err := json.Marshal(broadcastMessage{UserID: userID.String(), PodID: h.podID, Payload: message})
	if err != nil {
		slog.Error("failed to marshal broadcast", "error", err)
		return
	}
	if err := h.pubsub.Publish(context.Background(), BroadcastChannel, string(data)); err != nil {
		slog.Error("failed to publish broadcast", "error", err)
	}
}

func (h *Hub) handleBroadcast(data []byte) {
	var msg broadcastMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		slog.Error("invalid broadcast payload", "error", err)
		return
	}
	if msg.PodID == h.podID {
		return
	}
	userID, err := uuid.Parse(msg.UserID)
	if err != nil {
		return
	}
	h.SendToUser(userID, msg.Payload)
}

// Notify pushes a typed frame to a user on any instance.
func (h *Hub) Notify(userID uuid.UUID, kind string, data interface{}) {
	frame, err := encode(kind, data)
	if err != nil {
		slog.Error("failed to encode notification", "type", kind, "error", err)
		return
	}
	h.BroadcastToUser(userID, frame)
}

func (h *Hub) IsOnline(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

func encode(kind string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: kind, Data: raw})
}
