package session

import (
	"sync"
	"time"

	"redub/internal/editor"
	"redub/internal/queue"
)

// EventType discriminates the payload carried by an Event.
type EventType string

const (
	// EventState carries a full state snapshot after a mutation.
	EventState EventType = "state"
	// EventProgress carries one progress tick for a running operation.
	EventProgress EventType = "progress"
	// EventQueue carries a queue entry status change.
	EventQueue EventType = "queue"
)

// ProgressUpdate is the payload of a progress tick event.
type ProgressUpdate struct {
	EntryID int64      `json:"entryId"`
	Kind    queue.Kind `json:"kind"`
	Percent float64    `json:"percent"`
	Message string     `json:"message,omitempty"`
}

// QueueUpdate is the payload of a queue status event.
type QueueUpdate struct {
	EntryID int64        `json:"entryId"`
	Kind    queue.Kind   `json:"kind"`
	Status  queue.Status `json:"status"`
}

// Event is one entry in the session event stream. Exactly one payload field
// is set, matching Type.
type Event struct {
	Seq  int64     `json:"seq"`
	Type EventType `json:"type"`
	At   time.Time `json:"at"`

	State    *editor.State   `json:"state,omitempty"`
	Progress *ProgressUpdate `json:"progress,omitempty"`
	Queue    *QueueUpdate    `json:"queue,omitempty"`
}

const hubHistorySize = 256

// Hub assigns monotonically increasing sequence numbers to events, keeps a
// bounded replay buffer for Since reads, and fans events out to subscribers.
// Sends to subscribers never block: a slow consumer misses events and
// recovers through Since using the last sequence it saw.
type Hub struct {
	mu      sync.Mutex
	seq     int64
	history []Event
	nextID  int
	subs    map[int]chan Event
	closed  bool
}

// NewHub constructs an empty event hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan Event)}
}

// LastSeq returns the sequence number of the most recent event, zero when
// nothing has been published.
func (h *Hub) LastSeq() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.seq
}

// Since returns all buffered events with a sequence strictly greater than
// seq, oldest first. Events older than the replay buffer are gone; callers
// that fall that far behind start over from the current snapshot.
func (h *Hub) Since(seq int64) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []Event
	for _, ev := range h.history {
		if ev.Seq > seq {
			out = append(out, ev)
		}
	}
	return out
}

// Subscribe registers a new consumer and returns its id together with the
// delivery channel. The buffer bounds how far the consumer may lag before
// events are dropped.
func (h *Hub) Subscribe(buffer int) (int, <-chan Event) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return -1, ch
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a consumer and closes its channel.
func (h *Hub) Unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

// Close tears down all subscriptions. Further publishes are discarded.
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

func (h *Hub) publish(ev Event) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.seq++
	ev.Seq = h.seq
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	h.history = append(h.history, ev)
	if len(h.history) > hubHistorySize {
		h.history = h.history[len(h.history)-hubHistorySize:]
	}
	subs := make([]chan Event, 0, len(h.subs))
	for _, ch := range h.subs {
		subs = append(subs, ch)
	}
	h.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
