package testutil

import (
	"context"
	"sync"

	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/card"
	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/store"
)

// MemoryStore is an in-memory record store with the same contract as
// store.Store. Setting Err makes every call fail with it, which simulates
// an unavailable database.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type MemoryStore struct {
	mu      sync.Mutex
	seq     int64
	records []card.Record

	// Err, when non-nil, is returned by every operation.
	Err error

	// Calls counts operations by name ("get", "insert", "update").
	Calls map[string]int
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{Calls: make(map[string]int)}
}

// GetLatest returns the newest record for userID.
func (m *MemoryStore) GetLatest(_ context.Context, userID card.UserID) (card.Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["get"]++

	if m.Err != nil {
		return card.Record{}, false, m.Err
	}
	i := m.latest(userID)
	if i < 0 {
		return card.Record{}, false, nil
	}
	return m.records[i], true, nil
}

// Insert appends a record for userID.
func (m *MemoryStore) Insert(_ context.Context, userID card.UserID, c card.Card) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["insert"]++

	if m.Err != nil {
		return 0, m.Err
	}
	m.seq++
	m.records = append(m.records, card.Record{Card: c, UserID: userID, Seq: m.seq})
	return m.seq, nil
}

// UpdateField rewrites one field of the newest record for userID.
func (m *MemoryStore) UpdateField(_ context.Context, userID card.UserID, f card.Field, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["update"]++

	if m.Err != nil {
		return m.Err
	}
	i := m.latest(userID)
	if i < 0 {
		return store.ErrNoExistingCard
	}
	m.records[i].Set(f, value)
	return nil
}

// Count returns the number of records stored for userID.
func (m *MemoryStore) Count(userID card.UserID) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, r := range m.records {
		if r.UserID == userID {
			n++
		}
	}
	return n
}

// SetErr replaces Err under the lock.
func (m *MemoryStore) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
}

func (m *MemoryStore) latest(userID card.UserID) int {
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].UserID == userID {
			return i
		}
	}
	return -1
}
