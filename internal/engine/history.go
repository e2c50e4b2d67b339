package engine

import (
	"sync"
	"time"
)

// Event is one recorded encounter, as exposed to history readers and
// pushed to live subscribers.
type Event struct {
	Seq       uint64    `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Mons      []string  `json:"mons"`
	Total     uint64    `json:"total"`
}

// History keeps a bounded in-memory ring of recent encounter events and
// fans them out to a live channel. The ring survives only for the
// process lifetime; the durable tally lives in State.
type History struct {
	mu     sync.RWMutex
	events []Event
	max    int
	seq    uint64
	live   chan Event
}

// NewHistory creates a history ring holding at most max events.
func NewHistory(max int) *History {
	if max <= 0 {
		max = 100
	}
	return &History{
		events: make([]Event, 0, max),
		max:    max,
		live:   make(chan Event, 64),
	}
}

// Emit records an event and offers it to the live channel without
// blocking. A slow or absent subscriber drops live events but never
// stalls the detection loop.
func (h *History) Emit(mons []string, total uint64) Event {
	h.mu.Lock()
	h.seq++
	ev := Event{
		Seq:       h.seq,
		Timestamp: time.Now(),
		Mons:      append([]string{}, mons...),
		Total:     total,
	}
	if len(h.events) == h.max {
		copy(h.events, h.events[1:])
		h.events[len(h.events)-1] = ev
	} else {
		h.events = append(h.events, ev)
	}
	h.mu.Unlock()

	select {
	case h.live <- ev:
	default:
	}
	return ev
}

// Recent returns the buffered events, oldest first.
func (h *History) Recent() []Event {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]Event{}, h.events...)
}

// Events returns the live feed channel. Events are dropped rather than
// queued when nothing is draining it.
func (h *History) Events() <-chan Event {
	return h.live
}
