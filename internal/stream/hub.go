// Package stream fans live walk positions out to watchers ("friends on
// this route"), locally over channels and across instances via Redis
// pub/sub.
package stream

import (
	"context"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

type Hub struct {
	redis    *redis.Client
	watchers map[string]map[*Watcher]struct{}
	mu       sync.RWMutex
}

type Watcher struct {
	WalkID string
	Send   chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:    redisClient,
		watchers: map[string]map[*Watcher]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register(walkID string) *Watcher {
	w := &Watcher{
		WalkID: walkID,
		Send:   make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.watchers[walkID] == nil {
		h.watchers[walkID] = map[*Watcher]struct{}{}
	}
	h.watchers[walkID][w] = struct{}{}
	return w
}

func (h *Hub) Unregister(w *Watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if walkWatchers, ok := h.watchers[w.WalkID]; ok {
		delete(walkWatchers, w)
		if len(walkWatchers) == 0 {
			delete(h.watchers, w.WalkID)
		}
	}
	close(w.Send)
}

// Broadcast delivers payload to local watchers of a walk and publishes it
// for watchers connected to other instances. Slow watchers are skipped,
// never blocked on. The read lock is held across the sends so a watcher
// unregistering mid-broadcast cannot close its channel under us.
func (h *Hub) Broadcast(walkID string, payload []byte) {
	h.mu.RLock()
	for w := range h.watchers[walkID] {
		select {
		case w.Send <- payload:
		default:
		}
	}
	h.mu.RUnlock()

	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(walkID), payload).Err()
		if err != nil {
			log.Printf("stream: redis publish error: %v", err)
		}
	}
}

func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, "walks:*:live")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		walkID := walkIDFromChannel(msg.Channel)
		h.mu.RLock()
		for w := range h.watchers[walkID] {
			select {
			case w.Send <- []byte(msg.Payload):
			default:
			}
		}
		h.mu.RUnlock()
	}
}

func redisChannel(walkID string) string {
	return "walks:" + walkID + ":live"
}

func walkIDFromChannel(ch string) string {
	// walks:{walk}:live
	const prefix = "walks:"
	const suffix = ":live"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
