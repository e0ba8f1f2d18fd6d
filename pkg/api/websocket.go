package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins (CORS handled by main server)
		return true
	},
}

// Channel names.
const userChannelPrefix = "user:"

func orderbookChannel(symbol string) string  { return "orderbook:" + symbol }
func marketDataChannel(symbol string) string { return "market_data:" + symbol }
func userChannel(userID string) string       { return userChannelPrefix + userID }

// Hub maintains active WebSocket connections and routes messages to the
// clients subscribed to a channel.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once

	mu  sync.RWMutex
	log *zap.SugaredLogger
}

func NewHub(log *zap.SugaredLogger) *Hub {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run processes registrations until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Infow("ws_connected", "user_id", client.userID, "clients", n)

		case client := <-h.unregister:
			h.drop(client)
		}
	}
}

// Stop closes every connection and ends Run.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// join registers client, reporting false once the hub has stopped.
func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) drop(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		h.log.Infow("ws_disconnected", "user_id", client.userID, "clients", len(h.clients))
	}
}

// BroadcastToChannel sends a message to all clients subscribed to a channel.
// Clients whose buffer is full miss the message.
func (h *Hub) BroadcastToChannel(channel string, msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Warnw("ws_marshal_failed", "type", msg.Type, "err", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if !client.IsSubscribed(channel) {
			continue
		}
		select {
		case client.send <- data:
		default:
			h.log.Debugw("ws_send_dropped", "user_id", client.userID, "channel", channel)
		}
	}
}

// SendToUser delivers msg to every connection of userID.
func (h *Hub) SendToUser(userID string, msg WSMessage) {
	h.BroadcastToChannel(userChannel(userID), msg)
}

// ClientCount returns the number of registered connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Client represents a WebSocket connection
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string

	subscriptions map[string]bool
	subsMu        sync.RWMutex
}

func newClient(hub *Hub, conn *websocket.Conn, userID string, channels ...string) *Client {
	c := &Client{
		hub:           hub,
		conn:          conn,
		send:          make(chan []byte, sendBuffer),
		userID:        userID,
		subscriptions: make(map[string]bool),
	}
	for _, ch := range channels {
		c.subscriptions[ch] = true
	}
	return c
}

func (c *Client) IsSubscribed(channel string) bool {
	c.subsMu.RLock()
	defer c.subsMu.RUnlock()
	return c.subscriptions[channel]
}

// Subscribe adds a channel subscription. Private user channels other than
// the client's own are refused.
func (c *Client) Subscribe(channel string) bool {
	if strings.HasPrefix(channel, userChannelPrefix) && channel != userChannel(c.userID) {
		return false
	}
	c.subsMu.Lock()
	c.subscriptions[channel] = true
	c.subsMu.Unlock()
	return true
}

// Unsubscribe removes a channel subscription. The user's private channel
// cannot be dropped.
func (c *Client) Unsubscribe(channel string) {
	if channel == userChannel(c.userID) {
		return
	}
	c.subsMu.Lock()
	delete(c.subscriptions, channel)
	c.subsMu.Unlock()
}

// enqueue queues a message for this client only.
func (c *Client) enqueue(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debugw("ws_read_failed", "user_id", c.userID, "err", err)
			}
			break
		}

		var req WSSubscribeRequest
		if err := json.Unmarshal(message, &req); err != nil {
			c.hub.log.Debugw("ws_invalid_message", "user_id", c.userID, "err", err)
			continue
		}

		switch req.Op {
		case "subscribe":
			for _, channel := range req.Channels {
				if !c.Subscribe(channel) {
					c.hub.log.Warnw("ws_subscribe_refused", "user_id", c.userID, "channel", channel)
				}
			}
		case "unsubscribe":
			for _, channel := range req.Channels {
				c.Unsubscribe(channel)
			}
		default:
			c.hub.log.Debugw("ws_unknown_op", "user_id", c.userID, "op", req.Op)
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection.
// Each message is its own text frame.
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
				// Hub closed the channel
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

// handleWebSocket upgrades the connection, subscribes it to the default
// market's channels and the user's private channel, and sends the initial
// state.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID := s.userID(w, r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnw("ws_upgrade_failed", "err", err)
		return
	}

	client := newClient(s.hub, conn, userID,
		userChannel(userID),
		orderbookChannel(s.symbol),
		marketDataChannel(s.symbol),
	)

	client.enqueue(WSMessage{Type: "user_info", Data: UserInfo{UserID: userID}})
	if eng, err := s.registry.Get(s.symbol); err == nil {
		client.enqueue(WSMessage{Type: "order_book", Data: toOrderbookSnapshot(eng.OrderBook())})
	}

	if !client.hub.join(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
