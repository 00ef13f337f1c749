package websocket

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// MessageHandler handles one incoming message type. c is the sending client.
type MessageHandler func(c *Client, payload json.RawMessage) error

// Message represents an outgoing WebSocket message.
type Message struct {
	Type      string `json:"type"`
	Payload   any    `json:"payload"`
	Timestamp string `json:"timestamp"`
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type inbound struct {
	client *Client
	raw    []byte
}

// outbound is an encoded message. An empty topic reaches every client.
type outbound struct {
	topic string
	data  []byte
}

// Hub fans out server events to every connected browser and routes
// browser messages to registered handlers.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client
	incoming   chan inbound
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
	handlers   map[string]MessageHandler
	logger     zerolog.Logger

	onConnCount func(n int)
}

// Client represents a WebSocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	topicsMu sync.RWMutex
	topics   map[string]struct{}
}

// Subscribe adds topic to the messages this client receives from Publish.
func (c *Client) Subscribe(topic string) {
	c.topicsMu.Lock()
	defer c.topicsMu.Unlock()
	c.topics[topic] = struct{}{}
}

// Unsubscribe removes topic from the client's subscriptions.
func (c *Client) Unsubscribe(topic string) {
	c.topicsMu.Lock()
	defer c.topicsMu.Unlock()
	delete(c.topics, topic)
}

// Subscribed reports whether the client subscribed to topic.
func (c *Client) Subscribed(topic string) bool {
	c.topicsMu.RLock()
	defer c.topicsMu.RUnlock()
	_, ok := c.topics[topic]
	return ok
}

func newClient(h *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, 256),
		topics: make(map[string]struct{}),
	}
}

// NewHub creates a new WebSocket hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan outbound, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		incoming:   make(chan inbound, 256),
		done:       make(chan struct{}),
		handlers:   make(map[string]MessageHandler),
		logger:     logger.With().Str("component", "websocket").Logger(),
	}
}

// Handle registers a handler for messages of the given type sent by browsers.
func (h *Hub) Handle(msgType string, handler MessageHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[msgType] = handler
}

// OnConnectionCount registers a callback invoked whenever the client count changes.
func (h *Hub) OnConnectionCount(fn func(n int)) {
	h.onConnCount = fn
}

// Run starts the hub's main loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.reportCount(n)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.reportCount(n)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if message.topic != "" && !client.Subscribed(message.topic) {
					continue
				}
				select {
				case client.send <- message.data:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()

		case in := <-h.incoming:
			h.dispatch(in)
		}
	}
}

// Running reports whether Stop has not been called.
func (h *Hub) Running() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// Stop terminates Run and drops every client.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) reportCount(n int) {
	if h.onConnCount != nil {
		h.onConnCount(n)
	}
}

func (h *Hub) dispatch(in inbound) {
	var msg inboundMessage
	if err := json.Unmarshal(in.raw, &msg); err != nil {
		h.logger.Debug().Err(err).Msg("dropping malformed client message")
		return
	}

	h.mu.RLock()
	handler, ok := h.handlers[msg.Type]
	h.mu.RUnlock()
	if !ok {
		return
	}

	if err := handler(in.client, msg.Payload); err != nil {
		h.logger.Warn().Err(err).Str("type", msg.Type).Msg("client message handler failed")
	}
}

// Broadcast sends a message to all connected clients.
// It never blocks once the hub has been stopped.
func (h *Hub) Broadcast(msgType string, payload any) error {
	return h.send("", msgType, payload)
}

// Publish sends a message only to clients subscribed to topic.
func (h *Hub) Publish(topic, msgType string, payload any) error {
	if topic == "" {
		return errors.New("publish requires a topic")
	}
	return h.send(topic, msgType, payload)
}

func (h *Hub) send(topic, msgType string, payload any) error {
	data, err := json.Marshal(Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}

	select {
	case h.broadcast <- outbound{topic: topic, data: data}:
	case <-h.done:
	}
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Subscribers returns the number of connected clients subscribed to topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for client := range h.clients {
		if client.Subscribed(topic) {
			n++
		}
	}
	return n
}

// HandleWebSocket handles WebSocket connection upgrade.
func (h *Hub) HandleWebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := newClient(h, conn)

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return echo.NewHTTPError(http.StatusServiceUnavailable, "shutting down")
	}

	go client.writePump()
	go client.readPump()

	return nil
}

// readPump pumps messages from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug().Err(err).Msg("websocket closed unexpectedly")
			}
			return
		}

		select {
		case c.hub.incoming <- inbound{client: c, raw: message}:
		case <-c.hub.done:
			return
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
