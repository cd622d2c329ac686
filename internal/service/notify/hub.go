// Package notify fans turn events out to transports. Delivery is best
// effort: a slow subscriber loses events instead of stalling the turn loop.
package notify

import (
	"context"
	"sync"

	"github.com/sandevgo/parley/internal/core"
	"github.com/sandevgo/parley/pkg/log"
)

const subscriberBuffer = 16

type Hub struct {
	mu     sync.RWMutex
	subs   map[int]chan core.Event
	nextID int
	closed bool
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[int]chan core.Event),
	}
}

// Subscribe registers an observer and returns its event channel plus an
// unsubscribe func. The channel is closed on unsubscribe and on hub Close.
func (h *Hub) Subscribe() (<-chan core.Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++

	ch := make(chan core.Event, subscriberBuffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.subs[id] = ch

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
}

// Publish delivers the event to every subscriber without blocking.
func (h *Hub) Publish(ctx context.Context, event core.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subs {
		select {
		case ch <- event:
		default:
			log.FromCtx(ctx).Warn().
				Int("subscriber", id).
				Str("type", event.Type).
				Msg("Subscriber buffer full, dropping event")
		}
	}
}

// Close shuts down all subscriber channels. Publish after Close is a no-op.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
