package websocket

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, *websocket.Conn) {
	t.Helper()

	hub := NewHub(zerolog.Nop())
	go hub.Run()
	t.Cleanup(hub.Stop)

	url := serveHub(t, hub)
	return hub, dial(t, hub, url, 1)
}

func serveHub(t *testing.T, hub *Hub) string {
	t.Helper()

	e := echo.New()
	e.GET("/ws", hub.HandleWebSocket)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, hub *Hub, url string, wantClients int) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.ClientCount() == wantClients }, time.Second, 10*time.Millisecond)
	return conn
}

func readType(t *testing.T, conn *websocket.Conn, wait time.Duration) (string, error) {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(wait))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return "", err
	}
	var msg struct {
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg.Type, nil
}

func TestHub_BroadcastReachesClient(t *testing.T) {
	hub, conn := startHub(t)

	require.NoError(t, hub.Broadcast("view:updated", map[string]string{"viewId": "abc"}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type    string            `json:"type"`
		Payload map[string]string `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "view:updated", msg.Type)
	assert.Equal(t, "abc", msg.Payload["viewId"])
}

func TestHub_RoutesIncomingMessages(t *testing.T) {
	hub, conn := startHub(t)

	got := make(chan string, 1)
	hub.Handle("view:close", func(_ *Client, payload json.RawMessage) error {
		var p struct {
			ViewID string `json:"viewId"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		got <- p.ViewID
		return nil
	})

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"view:close","payload":{"viewId":"v1"}}`)))

	select {
	case id := <-got:
		assert.Equal(t, "v1", id)
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not invoked")
	}
}

func TestHub_PublishOnlyReachesSubscribers(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()
	t.Cleanup(hub.Stop)

	joined := make(chan *Client, 1)
	hub.Handle("join", func(c *Client, payload json.RawMessage) error {
		var topic string
		if err := json.Unmarshal(payload, &topic); err != nil {
			return err
		}
		c.Subscribe(topic)
		joined <- c
		return nil
	})

	url := serveHub(t, hub)
	owner := dial(t, hub, url, 1)
	other := dial(t, hub, url, 2)

	require.NoError(t, owner.WriteMessage(websocket.TextMessage, []byte(`{"type":"join","payload":"view-1"}`)))
	var client *Client
	select {
	case client = <-joined:
	case <-time.After(2 * time.Second):
		t.Fatal("join handler was not invoked")
	}
	assert.True(t, client.Subscribed("view-1"))
	assert.Equal(t, 1, hub.Subscribers("view-1"))
	assert.False(t, client.Subscribed("view-2"))

	require.NoError(t, hub.Publish("view-1", "view:updated", map[string]string{"viewId": "view-1"}))

	msgType, err := readType(t, owner, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "view:updated", msgType)

	_, err = readType(t, other, 200*time.Millisecond)
	assert.Error(t, err, "unsubscribed client must not receive the event")

	assert.Error(t, hub.Publish("", "view:updated", nil))
}

func TestClient_Unsubscribe(t *testing.T) {
	c := newClient(NewHub(zerolog.Nop()), nil)
	c.Subscribe("a")
	c.Unsubscribe("a")
	assert.False(t, c.Subscribed("a"))
}

func TestHub_BroadcastAfterStopDoesNotBlock(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()
	assert.True(t, hub.Running())
	hub.Stop()
	assert.False(t, hub.Running())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			_ = hub.Broadcast("noop", nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Broadcast blocked after Stop")
	}
}
