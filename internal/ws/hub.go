package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/quocanhngo/sportcast/internal/model"
	"github.com/quocanhngo/sportcast/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisChannel = "sportcast:dashboard"

// Hub manages dashboard WebSocket connections and event broadcasting.
// With Redis configured, events go through Pub/Sub so every instance
// delivers them to its own clients.
type Hub struct {
	clients map[*Client]bool
	mu      sync.RWMutex

	// Channels for registering/unregistering clients
	register   chan *Client
	unregister chan *Client

	// Channel for broadcasting events to local clients
	broadcast chan *model.WSEvent

	// Redis client for Pub/Sub, nil for a single instance
	rdb redis.UniversalClient

	// Closed once Run returns
	done chan struct{}

	log *zap.Logger
}

// NewHub creates a new WebSocket Hub
func NewHub(rdb redis.UniversalClient) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *model.WSEvent, 256),
		rdb:        rdb,
		done:       make(chan struct{}),
		log:        logger.WithModule("ws"),
	}
}

// Run starts the Hub's main event loop
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	if h.rdb != nil {
		go h.subscribeRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case event := <-h.broadcast:
			h.broadcastToLocal(event)
		}
	}
}

// Register queues a client for registration with the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

// Unregister queues a client for removal
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast delivers an event to every dashboard client on every instance
func (h *Hub) Broadcast(event *model.WSEvent) {
	if h.rdb != nil {
		h.publishToRedis(event)
		return
	}
	select {
	case h.broadcast <- event:
	default:
		h.log.Warn("broadcast buffer full, dropping event", zap.String("type", event.Type))
	}
}

// ClientCount returns the number of local connections
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	h.log.Info("dashboard client connected", zap.String("remote", client.Remote), zap.Int("connections", len(h.clients)))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	h.log.Info("dashboard client disconnected", zap.String("remote", client.Remote))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
}

// broadcastToLocal sends an event to all connected local clients
func (h *Hub) broadcastToLocal(event *model.WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("marshal broadcast event", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			// Client's send buffer is full, drop the connection
			close(client.send)
			delete(h.clients, client)
		}
	}
}

// ========== Redis Pub/Sub for Horizontal Scaling ==========

func (h *Hub) publishToRedis(event *model.WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("marshal event for redis", zap.Error(err))
		return
	}

	if err := h.rdb.Publish(context.Background(), redisChannel, data).Err(); err != nil {
		h.log.Error("publish to redis", zap.Error(err))
	}
}

// subscribeRedis subscribes to Redis and delivers events to local clients
func (h *Hub) subscribeRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, redisChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	h.log.Info("redis pub/sub subscriber started", zap.String("channel", redisChannel))

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event model.WSEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				h.log.Warn("unmarshal redis message", zap.Error(err))
				continue
			}
			select {
			case h.broadcast <- &event:
			case <-ctx.Done():
				return
			}
		}
	}
}
