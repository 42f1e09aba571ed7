package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lumina-io/lumina-core/internal/infrastructure/config"
	"github.com/lumina-io/lumina-core/internal/infrastructure/logging"
	"github.com/lumina-io/lumina-core/internal/schedule"
)

// Message types on the WebSocket wire.
const (
	wsTypeSubscribe   = "subscribe"
	wsTypeUnsubscribe = "unsubscribe"
	wsTypePing        = "ping"
	wsTypePong        = "pong"
	wsTypeEvent       = "event"
	wsTypeResponse    = "response"
	wsTypeError       = "error"
)

// Broadcast channels clients can subscribe to.
const (
	ChannelSuggestionsUpdated = "suggestions.updated"
	ChannelSuggestionsCleared = "suggestions.cleared"
)

// outboxSize is the per-connection outbound buffer. A connection that
// falls this far behind starts dropping broadcasts rather than stalling
// the hub.
const outboxSize = 256

// wsEnvelope is the frame exchanged with WebSocket clients.
type wsEnvelope struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// wsChannelList is the payload of subscribe and unsubscribe frames.
type wsChannelList struct {
	Channels []string `json:"channels"`
}

// suggestionsPayload is the broadcast payload for suggestion events.
type suggestionsPayload struct {
	UserID string          `json:"user_id"`
	Items  []schedule.Item `json:"items,omitempty"`
}

// Hub fans events out to WebSocket clients. It doubles as the
// orchestrator's suggestion surface: pending schedule items are pushed
// to subscribed clients the moment a regeneration produces them.
type Hub struct {
	cfg    config.WebSocketConfig
	logger *logging.Logger

	mu    sync.RWMutex
	conns map[*wsConn]struct{}
}

// NewHub creates a hub with no connections.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:    cfg,
		logger: logger,
		conns:  make(map[*wsConn]struct{}),
	}
}

// Run blocks until the context is cancelled, then disconnects everyone.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	conns := make([]*wsConn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.conns = make(map[*wsConn]struct{})
	h.mu.Unlock()

	for _, c := range conns {
		c.shutdown()
	}
}

// PublishPending pushes freshly generated suggestions to connected clients.
func (h *Hub) PublishPending(userID string, items []schedule.Item) {
	h.Broadcast(ChannelSuggestionsUpdated, suggestionsPayload{UserID: userID, Items: items})
}

// ClearPending tells clients that all outstanding suggestions for a user
// were discarded.
func (h *Hub) ClearPending(userID string) {
	h.Broadcast(ChannelSuggestionsCleared, suggestionsPayload{UserID: userID})
}

// Broadcast delivers an event frame to every connection subscribed to
// channel. Slow connections drop the frame instead of blocking.
func (h *Hub) Broadcast(channel string, payload any) {
	data, err := json.Marshal(wsEnvelope{
		Type:      wsTypeEvent,
		EventType: channel,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	})
	if err != nil {
		h.logger.Error("failed to marshal broadcast message", "error", err)
		return
	}

	// Snapshot under the hub lock; enqueue after releasing it so a stuck
	// connection can't wedge the whole hub.
	h.mu.RLock()
	conns := make([]*wsConn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range conns {
		if c.subscribed(channel) && c.enqueue(data) {
			sent++
		}
	}
	if sent > 0 {
		h.logger.Debug("broadcast sent", "channel", channel, "recipients", sent)
	}
}

// ClientCount reports the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) attach(c *wsConn) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "clients", h.ClientCount())
}

func (h *Hub) detach(c *wsConn) {
	h.mu.Lock()
	_, present := h.conns[c]
	delete(h.conns, c)
	h.mu.Unlock()

	if present {
		c.shutdown()
	}
	h.logger.Debug("websocket client disconnected", "clients", h.ClientCount())
}

// wsConn is one client connection with its subscription set and
// outbound queue.
type wsConn struct {
	hub  *Hub
	sock *websocket.Conn

	mu       sync.Mutex
	closed   bool
	outbox   chan []byte
	channels map[string]struct{}
}

// handleWebSocket upgrades the HTTP connection after redeeming the
// single-use ticket from POST /auth/ws-ticket.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ticket := r.URL.Query().Get("ticket")
	if ticket == "" {
		writeUnauthorized(w, "ticket query parameter is required")
		return
	}
	if !s.tickets.redeem(ticket) {
		writeUnauthorized(w, "invalid or expired ticket")
		return
	}

	sock, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &wsConn{
		hub:      s.hub,
		sock:     sock,
		outbox:   make(chan []byte, outboxSize),
		channels: make(map[string]struct{}),
	}
	s.hub.attach(c)

	go c.writeLoop(s.wsCfg)
	go c.readLoop(s.wsCfg)
}

// Origin checking is handled by the CORS middleware, not at upgrade time.
var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(_ *http.Request) bool { return true },
}

// readLoop consumes client frames until the connection drops.
func (c *wsConn) readLoop(cfg config.WebSocketConfig) {
	defer c.hub.detach(c)

	deadline := time.Duration(cfg.PingInterval+cfg.PongTimeout) * time.Second

	c.sock.SetReadLimit(int64(cfg.MaxMessageSize))
	//nolint:errcheck // Best-effort deadline on connection setup
	c.sock.SetReadDeadline(time.Now().Add(deadline))
	c.sock.SetPongHandler(func(string) error {
		return c.sock.SetReadDeadline(time.Now().Add(deadline))
	})

	for {
		_, frame, err := c.sock.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "error", err)
			} else {
				c.hub.logger.Debug("websocket closed", "error", err)
			}
			return
		}
		// Any client frame counts as liveness, not just protocol pongs.
		//nolint:errcheck // Best-effort deadline reset
		c.sock.SetReadDeadline(time.Now().Add(deadline))
		c.dispatch(frame)
	}
}

// writeLoop drains the outbox and keeps the connection alive with pings.
func (c *wsConn) writeLoop(cfg config.WebSocketConfig) {
	ticker := time.NewTicker(time.Duration(cfg.PingInterval) * time.Second)
	defer func() {
		ticker.Stop()
		c.sock.Close()
	}()

	writeWait := time.Duration(cfg.PongTimeout) * time.Second

	for {
		select {
		case frame, ok := <-c.outbox:
			if !ok {
				//nolint:errcheck // Best-effort close message
				c.sock.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			//nolint:errcheck // Best-effort deadline; write error caught below
			c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			//nolint:errcheck // Best-effort deadline; ping error caught below
			c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch handles one inbound frame.
func (c *wsConn) dispatch(frame []byte) {
	var msg wsEnvelope
	if err := json.Unmarshal(frame, &msg); err != nil {
		c.reply("", wsTypeError, map[string]string{"message": "invalid JSON message"})
		return
	}

	switch msg.Type {
	case wsTypeSubscribe:
		c.updateChannels(msg, true)
	case wsTypeUnsubscribe:
		c.updateChannels(msg, false)
	case wsTypePing:
		c.reply(msg.ID, wsTypePong, nil)
	default:
		c.reply(msg.ID, wsTypeError, map[string]string{"message": "unknown message type: " + msg.Type})
	}
}

// updateChannels applies a subscribe or unsubscribe frame and confirms
// the change back to the client.
func (c *wsConn) updateChannels(msg wsEnvelope, add bool) {
	raw, err := json.Marshal(msg.Payload)
	if err != nil {
		c.reply(msg.ID, wsTypeError, map[string]string{"message": "invalid payload"})
		return
	}
	var list wsChannelList
	if err := json.Unmarshal(raw, &list); err != nil {
		c.reply(msg.ID, wsTypeError, map[string]string{"message": "invalid " + msg.Type + " payload"})
		return
	}

	c.mu.Lock()
	for _, ch := range list.Channels {
		if add {
			c.channels[ch] = struct{}{}
		} else {
			delete(c.channels, ch)
		}
	}
	c.mu.Unlock()

	if add {
		c.hub.logger.Info("websocket client subscribed", "channels", list.Channels)
		c.reply(msg.ID, wsTypeResponse, map[string]any{"subscribed": list.Channels})
		return
	}
	c.reply(msg.ID, wsTypeResponse, map[string]any{"unsubscribed": list.Channels})
}

// reply sends a response frame, dropping it if the connection is gone.
func (c *wsConn) reply(id, msgType string, payload any) {
	data, err := json.Marshal(wsEnvelope{
		Type:      msgType,
		ID:        id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	})
	if err != nil {
		return
	}
	c.enqueue(data)
}

func (c *wsConn) subscribed(channel string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.channels[channel]
	return ok
}

// enqueue offers a frame to the outbox without blocking. It returns
// false when the connection is closed or the buffer is full.
func (c *wsConn) enqueue(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.outbox <- frame:
		return true
	default:
		return false
	}
}

// shutdown closes the outbox exactly once so writeLoop can exit. Safe
// to call from either the hub or the connection's own read loop.
func (c *wsConn) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.outbox)
}
