package stream

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"

	"popup-service/internal/observability"
)

// listenerBuffer bounds each listener's queue. A consumer that falls this far
// behind starts losing events rather than blocking the publisher.
const listenerBuffer = 256

// Event is a named, pre-serialized message fanned out to live listeners.
type Event struct {
	Name string
	Data []byte
}

// Listener is a per-connection handle onto the hub's event feed.
type Listener struct {
	ID string
	ch chan Event
}

// Events exposes the listener's queue for draining.
func (l *Listener) Events() <-chan Event {
	return l.ch
}

// Hub maintains the set of connected live-stream listeners.
type Hub struct {
	mu        sync.RWMutex
	listeners map[*Listener]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{listeners: make(map[*Listener]struct{})}
}

// Subscribe registers a new listener.
func (h *Hub) Subscribe() *Listener {
	l := &Listener{
		ID: uuid.NewString(),
		ch: make(chan Event, listenerBuffer),
	}
	h.mu.Lock()
	h.listeners[l] = struct{}{}
	total := len(h.listeners)
	h.mu.Unlock()

	log.Printf("stream listener connected id=%s total=%d", l.ID, total)
	return l
}

// Unsubscribe removes a listener and closes its queue. Safe to call twice.
func (h *Hub) Unsubscribe(l *Listener) {
	h.mu.Lock()
	if _, ok := h.listeners[l]; ok {
		delete(h.listeners, l)
		close(l.ch)
	}
	total := len(h.listeners)
	h.mu.Unlock()

	log.Printf("stream listener disconnected id=%s total=%d", l.ID, total)
}

// Publish serializes the payload once and enqueues the event to every
// listener. The send never blocks: a listener with a full queue loses the
// event instead of stalling the publisher.
func (h *Hub) Publish(name string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("stream publish marshal error: %v", err)
		return
	}

	event := Event{Name: name, Data: data}

	// Sends stay under the read lock so Unsubscribe cannot close a channel
	// mid-fanout. They cannot block: the enqueue is drop-on-full.
	h.mu.RLock()
	for l := range h.listeners {
		select {
		case l.ch <- event:
		default:
			observability.IncStreamDropped()
		}
	}
	h.mu.RUnlock()

	observability.IncStreamEvent(name)
}

// Len reports the number of connected listeners.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}
