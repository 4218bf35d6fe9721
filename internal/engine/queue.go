package engine

import (
	"sync"

	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/chat"
)

// Envelope is a chat event stamped by the dispatcher.
type Envelope struct {
	Event chat.Event

	// Seq is the global arrival order assigned by the dispatcher Sequence.
	Seq int64

	// Trace correlates every log line produced for this event.
	Trace string
}

// eventQueue is a thread-safe FIFO queue of envelopes for one user.
//
// The queue is unbounded; a user who taps faster than the store answers
// only grows their own mailbox.
type eventQueue struct {
	mu     sync.Mutex
	events []Envelope
	closed bool
}

// newEventQueue creates an empty event queue.
func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]Envelope, 0, 4),
	}
}

// Enqueue adds an envelope to the back of the queue.
// Returns false if the queue is closed.
func (q *eventQueue) Enqueue(e Envelope) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.events = append(q.events, e)
	return true
}

// TryDequeue attempts to dequeue without blocking.
// Returns (Envelope{}, false) if the queue is empty.
func (q *eventQueue) TryDequeue() (Envelope, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return Envelope{}, false
	}

	e := q.events[0]

	// Clear the slot so the backing array does not pin event text.
	q.events[0] = Envelope{}

	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}

	return e, true
}

// Len returns the current queue length.
func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Close signals that no more envelopes will be enqueued.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
}
