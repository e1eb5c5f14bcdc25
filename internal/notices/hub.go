package notices

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mrlokans/prayerbook/internal/logger"
)

const (
	defaultRecent     = 50
	subscriberBacklog = 32
)

// Hub fans out notices and events to subscribers. Delivery never blocks the
// sender: a subscriber whose buffer is full misses the event.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]chan Event
	nextID uint64
	recent []Event
	limit  int
}

// NewHub keeps the last recent events for late subscribers.
func NewHub(recent int) *Hub {
	if recent <= 0 {
		recent = defaultRecent
	}
	return &Hub{subs: make(map[uint64]chan Event), limit: recent}
}

// Notify publishes a notice. An empty message uses the default text for kind.
func (h *Hub) Notify(kind Kind, message string) {
	if message == "" {
		message = Message(kind)
	}
	h.Publish(Event{
		ID:       uuid.NewString(),
		Type:     EventNotice,
		Kind:     kind,
		Message:  message,
		Blocking: kind.Blocking(),
		At:       time.Now(),
	})
	logger.Debug("notice", "kind", kind, "message", message)
}

func (h *Hub) Publish(event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.At.IsZero() {
		event.At = time.Now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.recent = append(h.recent, event)
	if len(h.recent) > h.limit {
		h.recent = h.recent[len(h.recent)-h.limit:]
	}
	for _, ch := range h.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe returns a channel of future events and a cancel func that closes it.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan Event, subscriberBacklog)
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Recent returns up to n of the latest events, oldest first.
func (h *Hub) Recent(n int) []Event {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if n <= 0 || n > len(h.recent) {
		n = len(h.recent)
	}
	out := make([]Event, n)
	copy(out, h.recent[len(h.recent)-n:])
	return out
}

// Subscribers returns the number of open subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
