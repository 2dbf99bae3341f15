package events

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Event is a change notification for one journal row. OwnerUID routes it and is not sent to clients.
type Event struct {
	OwnerUID uint64    `json:"-"`
	Kind     string    `json:"kind"`
	Action   Action    `json:"action"`
	UID      uint64    `json:"uid"`
	At       time.Time `json:"at"`
}

// Hub fans journal changes out to the websocket subscribers of each owner.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]map[chan Event]struct{}
	logger *zap.Logger

	published     uint64
	droppedFanout uint64
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{subs: map[uint64]map[chan Event]struct{}{}, logger: logger}
}

// Subscribe registers a buffered channel for ownerUID. The returned func unsubscribes and closes it.
func (h *Hub) Subscribe(ownerUID uint64, buf int) (<-chan Event, func()) {
	if buf <= 0 {
		buf = 16
	}
	ch := make(chan Event, buf)
	h.mu.Lock()
	if h.subs[ownerUID] == nil {
		h.subs[ownerUID] = map[chan Event]struct{}{}
	}
	h.subs[ownerUID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[ownerUID], ch)
			if len(h.subs[ownerUID]) == 0 {
				delete(h.subs, ownerUID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Publish never blocks: a subscriber with a full buffer misses the event.
func (h *Hub) Publish(ev Event) {
	if h == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	atomic.AddUint64(&h.published, 1)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[ev.OwnerUID] {
		select {
		case ch <- ev:
		default:
			atomic.AddUint64(&h.droppedFanout, 1)
		}
	}
}

func (h *Hub) Dropped() uint64 {
	return atomic.LoadUint64(&h.droppedFanout)
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.subs {
		n += len(set)
	}
	return n
}

// Run logs hub stats until ctx is done.
func (h *Hub) Run(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.logger.Info("events hub stats",
				zap.Int("subscribers", h.Subscribers()),
				zap.Uint64("published", atomic.LoadUint64(&h.published)),
				zap.Uint64("dropped_fanout", h.Dropped()),
			)
		}
	}
}
