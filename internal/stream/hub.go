package stream

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

const (
	channelPrefix  = "workouts:"
	channelSuffix  = ":events"
	channelPattern = channelPrefix + "*" + channelSuffix
)

// Hub fans workout events out to the websocket clients of each owner. With
// redis, events go through pub/sub so every API instance sees them; without
// it, delivery is local only.
type Hub struct {
	redis   *redis.Client
	pubsub  *redis.PubSub
	log     *slog.Logger
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	OwnerID string
	Send    chan []byte
}

func NewHub(redisClient *redis.Client, log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	h := &Hub{
		redis:   redisClient,
		log:     log.With("component", "stream"),
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		ctx := context.Background()
		pubsub := redisClient.PSubscribe(ctx, channelPattern)
		if _, err := pubsub.Receive(ctx); err != nil {
			h.log.Warn("redis subscribe failed, delivering locally", "error", err)
			_ = pubsub.Close()
		} else {
			h.pubsub = pubsub
			go h.forward(pubsub.Channel())
		}
	}
	return h
}

func (h *Hub) Register(ownerID string) *Client {
	client := &Client{
		OwnerID: ownerID,
		Send:    make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[ownerID] == nil {
		h.clients[ownerID] = map[*Client]struct{}{}
	}
	h.clients[ownerID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ownerClients, ok := h.clients[client.OwnerID]; ok {
		if _, registered := ownerClients[client]; !registered {
			return
		}
		delete(ownerClients, client)
		if len(ownerClients) == 0 {
			delete(h.clients, client.OwnerID)
		}
		close(client.Send)
	}
}

// Broadcast delivers payload to every client of ownerID.
func (h *Hub) Broadcast(ownerID string, payload []byte) {
	if h.pubsub != nil {
		err := h.redis.Publish(context.Background(), redisChannel(ownerID), payload).Err()
		if err == nil {
			return
		}
		h.log.Warn("redis publish failed, delivering locally", "owner_id", ownerID, "error", err)
	}
	h.deliver(ownerID, payload)
}

// Close stops the redis subscription.
func (h *Hub) Close() error {
	if h.pubsub == nil {
		return nil
	}
	return h.pubsub.Close()
}

func (h *Hub) deliver(ownerID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[ownerID] {
		select {
		case client.Send <- payload:
		default:
			h.log.Debug("client buffer full, dropping event", "owner_id", ownerID)
		}
	}
}

func (h *Hub) forward(msgs <-chan *redis.Message) {
	for msg := range msgs {
		ownerID := ownerIDFromChannel(msg.Channel)
		if ownerID == "" {
			continue
		}
		h.deliver(ownerID, []byte(msg.Payload))
	}
}

func redisChannel(ownerID string) string {
	return channelPrefix + ownerID + channelSuffix
}

func ownerIDFromChannel(ch string) string {
	if len(ch) <= len(channelPrefix)+len(channelSuffix) || !strings.HasPrefix(ch, channelPrefix) || !strings.HasSuffix(ch, channelSuffix) {
		return ""
	}
	return ch[len(channelPrefix) : len(ch)-len(channelSuffix)]
}
