// Package events fans transmission events out to live subscribers such as
// websocket clients of the web UI.
package events

import (
	"log/slog"
	"sync"

	"github.com/nadzzz/lircbridge/internal/lirc"
)

// Hub broadcasts lirc events. Slow subscribers lose events rather than
// blocking the sender.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan lirc.Event]struct{}
	buffer int
}

// NewHub creates a hub whose subscriber channels hold buffer events.
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{subs: make(map[chan lirc.Event]struct{}), buffer: buffer}
}

// Publish delivers e to every subscriber that has room for it.
func (h *Hub) Publish(e lirc.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- e:
		default:
			slog.Debug("event dropped for slow subscriber", "remote", e.Remote, "command", e.Command)
		}
	}
}

// Subscribe registers a new subscriber. The returned cancel func must be
// called to release it; it closes the channel.
func (h *Hub) Subscribe() (<-chan lirc.Event, func()) {
	ch := make(chan lirc.Event, h.buffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Len returns the number of active subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
