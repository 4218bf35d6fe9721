package session

import (
	"sync"
	"time"

	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/card"
)

// DefaultTTL is how long an unfinished flow survives without a new event.
const DefaultTTL = 30 * time.Minute

// Registry maps users to their conversation state.
//
// Idle users have no entry; Get reports Idle for them. A non-idle entry
// older than the TTL is treated as abandoned: Get reports Idle and Sweep
// removes it.
//
// Thread-safety: all methods are safe for concurrent use. Callers must
// still serialize events of the same user (see engine.Dispatcher) since a
// Get/Set pair is not atomic.
type Registry struct {
	mu      sync.Mutex
	entries map[card.UserID]entry
	ttl     time.Duration
	now     func() time.Time
}

type entry struct {
	state   State
	touched time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithTTL sets the abandonment timeout. Zero disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(r *Registry) {
		r.ttl = ttl
	}
}

// WithClock replaces time.Now (for tests).
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[card.UserID]entry),
		ttl:     DefaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the state of userID, Idle if none or expired.
func (r *Registry) Get(userID card.UserID) State {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[userID]
	if !ok {
		return Idle{}
	}
	if r.expired(e, r.now()) {
		delete(r.entries, userID)
		return Idle{}
	}
	return e.state
}

// Set stores the state of userID. Setting Idle removes the entry.
func (r *Registry) Set(userID card.UserID, s State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, idle := s.(Idle); idle || s == nil {
		delete(r.entries, userID)
		return
	}
	r.entries[userID] = entry{state: s, touched: r.now()}
}

// Reset returns userID to Idle, discarding any draft.
func (r *Registry) Reset(userID card.UserID) {
	r.Set(userID, Idle{})
}

// Sweep removes every expired entry and returns how many were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for uid, e := range r.entries {
		if r.expired(e, now) {
			delete(r.entries, uid)
			removed++
		}
	}
	return removed
}

// Len returns the number of users with an active flow.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) expired(e entry, now time.Time) bool {
	return r.ttl > 0 && now.Sub(e.touched) >= r.ttl
}
