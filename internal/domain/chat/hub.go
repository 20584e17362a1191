package chat

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"besaha/internal/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
	sendBuffer = 256
)

// connection represents a single WebSocket client
type connection struct {
	userID int64
	conn   *websocket.Conn
	send   chan []byte
	topics map[string]bool
}

// Hub fans events out to websocket clients by topic.
type Hub struct {
	mu    sync.RWMutex
	conns map[*connection]struct{}
	log   *zap.SugaredLogger
}

func NewHub(log *zap.SugaredLogger) *Hub {
	return &Hub{
		conns: make(map[*connection]struct{}),
		log:   log.Named("ws"),
	}
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c] = struct{}{}
	metrics.WebSocketConnections.Inc()
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[c]; ok {
		delete(h.conns, c)
		close(c.send)
		metrics.WebSocketConnections.Dec()
	}
}

// Count returns the number of open connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Broadcast sends an event to every client subscribed to topic. Slow
// clients whose buffer is full miss the event.
func (h *Hub) Broadcast(topic, eventType string, data any) {
	frame, err := json.Marshal(Event{Type: eventType, Topic: topic, Data: data})
	if err != nil {
		h.log.Warnw("encode ws event", "topic", topic, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.conns {
		if !c.topics[topic] {
			continue
		}
		select {
		case c.send <- frame:
		default:
			h.log.Debugw("ws client too slow, event dropped", "user_id", c.userID, "topic", topic)
		}
	}
}

// ServeWS registers a new connection and blocks until it closes.
func (h *Hub) ServeWS(conn *websocket.Conn, userID int64, topics []string) {
	c := &connection{
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		topics: make(map[string]bool, len(topics)),
	}
	for _, t := range topics {
		c.topics[t] = true
	}

	h.register(c)
	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) reply(c *connection, ev Event) {
	frame, err := json.Marshal(ev)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.conns[c]; !ok {
		return
	}
	select {
	case c.send <- frame:
	default:
	}
}

func (h *Hub) readPump(c *connection) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var cmd clientCommand
		if err := json.Unmarshal(raw, &cmd); err != nil {
			continue
		}
		if !ValidTopic(cmd.Topic) {
			h.reply(c, Event{Type: EventError, Topic: cmd.Topic, Data: "unknown topic"})
			continue
		}

		switch cmd.Type {
		case commandSubscribe:
			h.mu.Lock()
			c.topics[cmd.Topic] = true
			h.mu.Unlock()
			h.reply(c, Event{Type: EventSubscribed, Topic: cmd.Topic})
		case commandUnsubscribe:
			h.mu.Lock()
			delete(c.topics, cmd.Topic)
			h.mu.Unlock()
			h.reply(c, Event{Type: EventUnsubscribed, Topic: cmd.Topic})
		}
	}
}

func (h *Hub) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
