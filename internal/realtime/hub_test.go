package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/cache"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokens map[string]uuid.UUID

func (f fakeTokens) ParseAccessToken(raw string) (uuid.UUID, error) {
	if id, ok := f[raw]; ok {
		return id, nil
	}
	return uuid.Nil, errors.New("invalid token")
}

type sentMessage struct {
	From, To uuid.UUID
	Text     string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (f *fakeSender) SendMessage(_ context.Context, from, to uuid.UUID, text string) (*models.ChatMessage, error) {
	if text == "" {
		return nil, errors.New("message cannot be empty")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{From: from, To: to, Text: text})
	return &models.ChatMessage{ID: uuid.New(), SenderID: from, Text: text}, nil
}

func (f *fakeSender) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func startHub(t *testing.T, ps cache.PubSub) *Hub {
	t.Helper()
	h := NewHub(ps)
	require.NoError(t, h.Start(context.Background()))
	t.Cleanup(h.Stop)
	return h
}

func serve(t *testing.T, h *Hub, tokens fakeTokens, sender MessageSender) string {
	t.Helper()
	srv := httptest.NewServer(NewGateway(h, tokens, sender, nil))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, h *Hub, url, token string, userID uuid.UUID) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url+"/?token="+token, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return h.IsOnline(userID) }, time.Second, 10*time.Millisecond)
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func TestGatewayRejectsMissingToken(t *testing.T) {
	h := startHub(t, cache.NewLocalPubSub(8))
	url := serve(t, h, fakeTokens{}, &fakeSender{})

	_, resp, err := websocket.DefaultDialer.Dial(url+"/", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(url+"/?token=bogus", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestNotifyReachesSocket(t *testing.T) {
	alice := uuid.New()
	h := startHub(t, cache.NewLocalPubSub(8))
	url := serve(t, h, fakeTokens{"a": alice}, &fakeSender{})
	conn := dial(t, h, url, "a", alice)

	h.Notify(alice, "notification", map[string]string{"kind": "match"})

	env := readEnvelope(t, conn)
	assert.Equal(t, "notification", env.Type)
	assert.JSONEq(t, `{"kind":"match"}`, string(env.Data))
}

func TestNotifyCrossesInstances(t *testing.T) {
	bob := uuid.New()
	ps := cache.NewLocalPubSub(8)
	h1 := startHub(t, ps)
	h2 := startHub(t, ps)
	url := serve(t, h2, fakeTokens{"b": bob}, &fakeSender{})
	conn := dial(t, h2, url, "b", bob)

	assert.False(t, h1.IsOnline(bob))
	h1.Notify(bob, "message", map[string]string{"text": "hi"})

	env := readEnvelope(t, conn)
	assert.Equal(t, "message", env.Type)

	// h2 ignores its own publication, so a local notify arrives once
	h2.Notify(bob, "notification", map[string]int{"n": 1})
	env = readEnvelope(t, conn)
	assert.Equal(t, "notification", env.Type)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestSocketFrames(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	sender := &fakeSender{}
	h := startHub(t, cache.NewLocalPubSub(8))
	url := serve(t, h, fakeTokens{"a": alice}, sender)
	conn := dial(t, h, url, "a", alice)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "heartbeat"}))
	assert.Equal(t, "heartbeat", readEnvelope(t, conn).Type)

	frame, err := json.Marshal(map[string]interface{}{
		"type": "message",
		"data": map[string]string{"targetUserId": bob.String(), "text": "hello"},
	})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
	require.Eventually(t, func() bool { return len(sender.messages()) == 1 }, time.Second, 10*time.Millisecond)
	got := sender.messages()[0]
	assert.Equal(t, sentMessage{From: alice, To: bob, Text: "hello"}, got)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "dance"}))
	env := readEnvelope(t, conn)
	assert.Equal(t, "error", env.Type)
	assert.Contains(t, string(env.Data), "unknown frame type")

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type": "message",
		"data": map[string]string{"targetUserId": bob.String()},
	}))
	env = readEnvelope(t, conn)
	assert.Equal(t, "error", env.Type)
	assert.Contains(t, string(env.Data), "message cannot be empty")
}

func TestDeviceLimit(t *testing.T) {
	alice := uuid.New()
	h := startHub(t, cache.NewLocalPubSub(8))
	h.maxConnectionsPerUser = 1
	url := serve(t, h, fakeTokens{"a": alice}, &fakeSender{})
	dial(t, h, url, "a", alice)

	second, _, err := websocket.DefaultDialer.Dial(url+"/?token=a", nil)
	require.NoError(t, err)
	defer second.Close()

	env := readEnvelope(t, second)
	assert.Equal(t, "error", env.Type)
	assert.Contains(t, string(env.Data), "too_many_devices")
}
