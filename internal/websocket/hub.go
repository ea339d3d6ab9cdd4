package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"field-data-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// TopicFeed carries store, project and location changes. Every client is
	// subscribed to it on connect.
	TopicFeed = "feed"

	capturePrefix = "capture:"
)

// CaptureTopic carries the live state and audio visualization of one capture
// session.
func CaptureTopic(sessionID string) string {
	return capturePrefix + sessionID
}

type Message struct {
	Type  string      `json:"type"`
	Topic string      `json:"topic"`
	Data  interface{} `json:"data"`
}

// clusterMessage is what travels over the Redis channel.
type clusterMessage struct {
	Origin  string          `json:"origin"`
	Topic   string          `json:"topic"`
	Message json.RawMessage `json:"message"`
}

type Hub struct {
	// Registered clients by connection id.
	clients map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex

	// Redis connection for cross-instance fanout; nil runs single instance.
	rdb     *redis.Client
	channel string
	// instance id, so our own Redis publications are not delivered twice
	origin string

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, channel string, log logger.ILogger) *Hub {
	if channel == "" {
		channel = "field_feed"
	}
	return &Hub{
		clients:    make(map[uuid.UUID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		rdb:        rdb,
		channel:    channel,
		origin:     uuid.New().String(),
		logger:     log,
	}
}

// Run owns client registration until ctx ends, then disconnects everyone.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for id, c := range h.clients {
				close(c.Send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.Id] = client
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"client_id": client.Id})

		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[client.Id]; ok && c == client {
		delete(h.clients, client.Id)
		close(client.Send)
		h.logger.Info("Hub", "Client unregistered", map[string]interface{}{"client_id": client.Id})
	}
}

// Publish delivers to local subscribers of topic and to every other instance.
func (h *Hub) Publish(topic, msgType string, data interface{}) {
	raw, err := json.Marshal(Message{Type: msgType, Topic: topic, Data: data})
	if err != nil {
		h.logger.Error("Hub", "Failed to encode message", map[string]interface{}{"type": msgType, "error": err.Error()})
		return
	}

	h.deliver(topic, raw)

	if h.rdb != nil {
		payload, _ := json.Marshal(clusterMessage{Origin: h.origin, Topic: topic, Message: raw})
		if err := h.rdb.Publish(context.Background(), h.channel, payload).Err(); err != nil {
			h.logger.Warn("Hub", "Redis publish failed", map[string]interface{}{"topic": topic, "error": err.Error()})
		}
	}
}

// PublishLocal delivers to this instance only. Used for high-rate traffic
// such as visualization frames.
func (h *Hub) PublishLocal(topic, msgType string, data interface{}) {
	raw, err := json.Marshal(Message{Type: msgType, Topic: topic, Data: data})
	if err != nil {
		return
	}
	h.deliver(topic, raw)
}

func (h *Hub) deliver(topic string, raw []byte) {
	var slow []*Client

	h.mu.RLock()
	for _, client := range h.clients {
		if !client.subscribed(topic) {
			continue
		}
		select {
		case client.Send <- raw:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Warn("Hub", "Client Send buffer full, dropping client", map[string]interface{}{"client_id": client.Id})
		h.remove(client)
	}
}

// Register adds a client. It returns false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount is the number of locally connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, h.channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var payload clusterMessage
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				h.logger.Warn("Hub", "Redis message parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			if payload.Origin == h.origin {
				continue
			}
			h.deliver(payload.Topic, payload.Message)
		}
	}
}
