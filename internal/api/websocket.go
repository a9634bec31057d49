package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/gray-logic-sensors/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-sensors/internal/infrastructure/logging"
)

// WebSocket message types.
const (
	WSTypeSubscribe   = "subscribe"
	WSTypeUnsubscribe = "unsubscribe"
	WSTypePing        = "ping"
	WSTypePong        = "pong"
	WSTypeEvent       = "event"
	WSTypeResponse    = "response"
	WSTypeError       = "error"
)

const (
	// wsSendBufferSize is how many outbound messages a client may lag
	// behind before broadcasts to it are dropped.
	wsSendBufferSize = 256

	wsDefaultPingInterval = 30 * time.Second
	wsDefaultPongWait     = 10 * time.Second
	wsDefaultReadLimit    = 8192
)

// WSMessage is the envelope for every message the server sends.
type WSMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// WSSubscribePayload is the payload for subscribe/unsubscribe messages.
type WSSubscribePayload struct {
	Channels []string `json:"channels"`
}

// wsRequest is a message received from a client. The payload is decoded
// once its type is known.
type wsRequest struct {
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

// wsTimings holds the keepalive settings with defaults applied.
type wsTimings struct {
	pingInterval time.Duration
	pongWait     time.Duration
	readLimit    int64
}

func timingsFrom(cfg config.WebSocketConfig) wsTimings {
	t := wsTimings{
		pingInterval: time.Duration(cfg.PingInterval) * time.Second,
		pongWait:     time.Duration(cfg.PongTimeout) * time.Second,
		readLimit:    int64(cfg.MaxMessageSize),
	}
	if t.pingInterval <= 0 {
		t.pingInterval = wsDefaultPingInterval
	}
	if t.pongWait <= 0 {
		t.pongWait = wsDefaultPongWait
	}
	if t.readLimit <= 0 {
		t.readLimit = wsDefaultReadLimit
	}
	return t
}

// readDeadline is how long a connection may stay silent.
func (t wsTimings) readDeadline() time.Time {
	return time.Now().Add(t.pingInterval + t.pongWait)
}

// Hub tracks connected clients and fans events out to subscribers.
//
// Thread Safety: all methods are safe for concurrent use.
type Hub struct {
	timings wsTimings
	logger  *logging.Logger

	mu      sync.RWMutex
	clients map[*WSClient]struct{}
}

// WSClient is one connected WebSocket session.
type WSClient struct {
	hub      *Hub
	conn     *websocket.Conn
	username string

	mu            sync.Mutex
	send          chan []byte
	closed        bool
	subscriptions map[string]struct{}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin policy is enforced by the CORS middleware.
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// NewHub creates a hub using the keepalive settings in cfg.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		timings: timingsFrom(cfg),
		logger:  logger,
		clients: make(map[*WSClient]struct{}),
	}
}

// Run blocks until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*WSClient]struct{})
	h.mu.Unlock()

	for c := range clients {
		c.close()
		if c.conn != nil {
			c.conn.Close() //nolint:errcheck // shutting down
		}
	}
}

// Register adds a client.
func (h *Hub) Register(c *WSClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "username", c.username, "clients", n)
}

// Unregister removes a client and closes its send queue. Repeated calls
// are no-ops.
func (h *Hub) Unregister(c *WSClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()

	c.close()
	if ok {
		h.logger.Debug("websocket client disconnected", "username", c.username, "clients", n)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends payload as an event on channel to every subscribed
// client. Clients whose queue is full miss the event.
func (h *Hub) Broadcast(channel string, payload any) {
	data, err := json.Marshal(WSMessage{
		Type:      WSTypeEvent,
		EventType: channel,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	})
	if err != nil {
		h.logger.Error("encoding websocket event failed", "channel", channel, "error", err)
		return
	}

	// Client locks are taken only after the hub lock is released.
	h.mu.RLock()
	targets := make([]*WSClient, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range targets {
		if !c.isSubscribed(channel) {
			continue
		}
		if c.deliver(data) {
			delivered++
		} else {
			h.logger.Warn("websocket client lagging, event dropped", "username", c.username, "channel", channel)
		}
	}
	if delivered > 0 {
		h.logger.Debug("websocket event sent", "channel", channel, "recipients", delivered)
	}
}

func newWSClient(hub *Hub, conn *websocket.Conn, username string) *WSClient {
	return &WSClient{
		hub:           hub,
		conn:          conn,
		username:      username,
		send:          make(chan []byte, wsSendBufferSize),
		subscriptions: make(map[string]struct{}),
	}
}

// deliver queues data without blocking. It reports false when the client
// is closed or its queue is full.
func (c *WSClient) deliver(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// close ends the send queue once; writePump then sends a close frame.
func (c *WSClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *WSClient) isSubscribed(channel string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.subscriptions[channel]
	return ok
}

// readPump handles inbound messages until the connection fails or goes
// silent for longer than the ping interval plus pong wait.
func (c *WSClient) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close() //nolint:errcheck // connection already failing
	}()

	t := c.hub.timings
	c.conn.SetReadLimit(t.readLimit)
	c.conn.SetReadDeadline(t.readDeadline()) //nolint:errcheck // checked by ReadMessage
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(t.readDeadline())
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "username", c.username, "error", err)
			}
			return
		}
		// Application messages count as liveness too; some browsers never
		// answer protocol pings.
		c.conn.SetReadDeadline(t.readDeadline()) //nolint:errcheck // checked by ReadMessage
		c.handleMessage(data)
	}
}

// writePump drains the send queue and pings on the configured interval.
func (c *WSClient) writePump() {
	t := c.hub.timings
	ticker := time.NewTicker(t.pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close() //nolint:errcheck // pump exiting
	}()

	write := func(messageType int, data []byte) error {
		c.conn.SetWriteDeadline(time.Now().Add(t.pongWait)) //nolint:errcheck // checked by WriteMessage
		return c.conn.WriteMessage(messageType, data)
	}

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				write(websocket.CloseMessage, nil) //nolint:errcheck // best-effort goodbye
				return
			}
			if err := write(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *WSClient) handleMessage(data []byte) {
	var req wsRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.replyError("", "invalid JSON message")
		return
	}

	switch req.Type {
	case WSTypeSubscribe:
		c.updateSubscriptions(req, true)
	case WSTypeUnsubscribe:
		c.updateSubscriptions(req, false)
	case WSTypePing:
		c.reply(req.ID, WSTypePong, nil)
	default:
		c.replyError(req.ID, "unknown message type: "+req.Type)
	}
}

// updateSubscriptions adds or removes the channels named in req. A
// subscribe naming any unknown channel changes nothing.
func (c *WSClient) updateSubscriptions(req wsRequest, subscribe bool) {
	var sub WSSubscribePayload
	if len(req.Payload) == 0 || json.Unmarshal(req.Payload, &sub) != nil || len(sub.Channels) == 0 {
		c.replyError(req.ID, "payload must list channels")
		return
	}

	if subscribe {
		for _, ch := range sub.Channels {
			if _, ok := knownChannels[ch]; !ok {
				c.replyError(req.ID, "unknown channel: "+ch)
				return
			}
		}
	}

	c.mu.Lock()
	for _, ch := range sub.Channels {
		if subscribe {
			c.subscriptions[ch] = struct{}{}
		} else {
			delete(c.subscriptions, ch)
		}
	}
	c.mu.Unlock()

	key := "unsubscribed"
	if subscribe {
		key = "subscribed"
		c.hub.logger.Debug("websocket client subscribed", "username", c.username, "channels", sub.Channels)
	}
	c.reply(req.ID, WSTypeResponse, map[string]any{key: sub.Channels})
}

func (c *WSClient) reply(id, msgType string, payload any) {
	data, err := json.Marshal(WSMessage{
		Type:      msgType,
		ID:        id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	})
	if err != nil {
		return
	}
	c.deliver(data)
}

func (c *WSClient) replyError(id, message string) {
	c.reply(id, WSTypeError, map[string]string{"message": message})
}
