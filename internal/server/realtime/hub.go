// Package realtime fans out per-user events to every live stream of that
// user. Each user id is one broadcast group.
package realtime

import (
	"context"
	"sync"

	"github.com/sku-codemong/codemong-Backend-02/internal/logging"
)

const (
	EventFriendRequestReceived  = "friend:request:received"
	EventFriendRequestResponded = "friend:request:responded"
)

const defaultBuffer = 16

type Event struct {
	Type    string
	Payload map[string]any
}

// Subscription is one live stream's membership in a user's group.
type Subscription struct {
	UserID int64
	ch     chan Event
	hub    *Hub
	once   sync.Once
}

// Events is closed when the subscription is closed.
func (s *Subscription) Events() <-chan Event { return s.ch }

// Close leaves the group. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() { s.hub.remove(s) })
}

type Hub struct {
	mu     sync.RWMutex
	groups map[int64]map[*Subscription]struct{}
	buffer int
	log    logging.Logger
}

func NewHub(log logging.Logger) *Hub {
	return &Hub{
		groups: make(map[int64]map[*Subscription]struct{}),
		buffer: defaultBuffer,
		log:    log,
	}
}

func (h *Hub) Subscribe(userID int64) *Subscription {
	s := &Subscription{UserID: userID, ch: make(chan Event, h.buffer), hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	g, ok := h.groups[userID]
	if !ok {
		g = make(map[*Subscription]struct{})
		h.groups[userID] = g
	}
	g[s] = struct{}{}
	return s
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if g, ok := h.groups[s.UserID]; ok {
		delete(g, s)
		if len(g) == 0 {
			delete(h.groups, s.UserID)
		}
	}
	close(s.ch)
}

// Publish delivers ev to every stream of userID and returns how many got
// it. A stream whose buffer is full misses the event.
func (h *Hub) Publish(ctx context.Context, userID int64, ev Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for s := range h.groups[userID] {
		select {
		case s.ch <- ev:
			delivered++
		default:
			h.log.Warn(ctx, "realtime event dropped, subscriber too slow", "user_id", userID, "type", ev.Type)
		}
	}
	return delivered
}

// Connections reports the number of live streams for userID.
func (h *Hub) Connections(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[userID])
}
