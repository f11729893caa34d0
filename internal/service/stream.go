package service

import (
	"sync"

	"github.com/auditgate/auditgate/internal/model"
)

// Hub fans newly written request-log entries out to live-tail subscribers.
type Hub struct {
	mu   sync.Mutex
	subs map[chan *model.RequestLog]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan *model.RequestLog]struct{})}
}

// Subscribe returns a channel of new entries and a cancel func that must
// be called when the subscriber goes away.
func (h *Hub) Subscribe() (<-chan *model.RequestLog, func()) {
	ch := make(chan *model.RequestLog, 64)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Broadcast delivers to every subscriber without blocking; slow consumers
// lose entries rather than stall the writer.
func (h *Hub) Broadcast(entry *model.RequestLog) {
	if entry == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- entry:
		default:
		}
	}
}
