package engine

import "sync/atomic"

// Sequence numbers events in arrival order across all users.
//
// Per-user mailboxes run concurrently, so log lines of different users
// interleave arbitrarily; sorting them by seq recovers the order in which
// the transport delivered the events.
type Sequence struct {
	n atomic.Int64
}

// NewSequence returns a sequence whose first Next is start+1.
// A restarted bot may seed it with the last seq it logged.
func NewSequence(start int64) *Sequence {
	s := &Sequence{}
	s.n.Store(start)
	return s
}

// Next reserves the next number.
func (s *Sequence) Next() int64 {
	return s.n.Add(1)
}

// Last is the most recently reserved number, or the start value.
func (s *Sequence) Last() int64 {
	return s.n.Load()
}
