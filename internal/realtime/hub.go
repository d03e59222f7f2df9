package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"rateapp/internal/redis"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced at the HTTP layer
	},
}

// ActionFunc handles a domain action received over a websocket
// connection (join_session, submit_rating, ...). It returns the direct
// reply payload for the caller; broadcasts happen via the Publisher.
type ActionFunc func(ctx context.Context, userID uuid.UUID, action string, data json.RawMessage) (interface{}, error)

type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan Envelope
	subscribe  chan subscription
}

type subscription struct {
	client *Client
	topic  string
	add    bool
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID uuid.UUID
	topics map[string]bool
	action ActionFunc

	// mu guards send against writes racing the close: both the hub's
	// drop path and the client's own reply path write to send.
	mu     sync.Mutex
	closed bool
}

// trySend queues a frame without blocking. Returns false when the
// buffer is full or the client is already closed.
func (c *Client) trySend(data []byte) bool {
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

// close shuts the send channel exactly once.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// inbound frame from a client.
type clientFrame struct {
	Action string `json:"action"`
	Topic  string `json:"topic,omitempty"`
}

// reply frame for a direct (non-broadcast) response.
type replyFrame struct {
	Action  string      `json:"action"`
	OK      bool        `json:"ok"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Envelope),
		subscribe:  make(chan subscription),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			logrus.WithField("user_id", client.userID).Debug("websocket client connected")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				logrus.WithField("user_id", client.userID).Debug("websocket client disconnected")
			}
			client.close()

		case sub := <-h.subscribe:
			if _, ok := h.clients[sub.client]; ok {
				if sub.add {
					sub.client.topics[sub.topic] = true
				} else {
					delete(sub.client.topics, sub.topic)
				}
			}

		case env := <-h.broadcast:
			data, err := json.Marshal(env)
			if err != nil {
				continue
			}
			for client := range h.clients {
				if !client.topics[env.Topic] {
					continue
				}
				if !client.trySend(data) {
					delete(h.clients, client)
					client.close()
				}
			}
		}
	}
}

// RunBridge forwards fan-out events published to redis into the local
// broadcast loop. Blocks until ctx is canceled.
func (h *Hub) RunBridge(ctx context.Context, client *redis.Client) {
	psub := client.PSubscribe(ctx, channelPrefix+"*")
	defer psub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-psub.Channel():
			if !ok {
				return
			}
			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				logrus.WithError(err).Warn("dropping malformed fan-out message")
				continue
			}
			h.broadcast <- env
		}
	}
}

// Broadcast injects an envelope directly into the local fan-out loop.
func (h *Hub) Broadcast(env Envelope) {
	h.broadcast <- env
}

// HandleWebSocket upgrades the request and starts the client pumps.
// AuthRequired middleware must have stored the user id already.
func HandleWebSocket(hub *Hub, c *gin.Context, userID uuid.UUID, action ActionFunc) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		userID: userID,
		topics: make(map[string]bool),
		action: action,
	}

	hub.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithError(err).Debug("websocket read error")
			}
			break
		}

		var frame clientFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.reply(replyFrame{Action: "error", Message: "malformed frame"})
			continue
		}

		switch frame.Action {
		case "subscribe":
			c.hub.subscribe <- subscription{client: c, topic: frame.Topic, add: true}
		case "unsubscribe":
			c.hub.subscribe <- subscription{client: c, topic: frame.Topic, add: false}
		default:
			if c.action == nil {
				c.reply(replyFrame{Action: frame.Action, Message: "unknown action"})
				continue
			}
			result, err := c.action(context.Background(), c.userID, frame.Action, raw)
			if err != nil {
				c.reply(replyFrame{Action: frame.Action, Message: err.Error()})
				continue
			}
			c.reply(replyFrame{Action: frame.Action, OK: true, Data: result})
		}
	}
}

func (c *Client) reply(frame replyFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	c.trySend(data)
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			logrus.WithError(err).Debug("websocket write error")
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
