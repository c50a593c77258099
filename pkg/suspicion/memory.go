// Copyright (c) 2026 GG Loop Inc. All Rights Reserved.
// This is licensed software from GG Loop Inc, for limitations
// and restrictions contact your company contract manager.

package suspicion

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the in-process Store used by single-seat installs. State
// does not survive a restart, which is acceptable: the counter is advisory
// and the authoritative escalation record lives server-side.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]int
	sessions map[string][]time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counters: make(map[string]int),
		sessions: make(map[string][]time.Time),
	}
}

// Add implements Store.
func (m *MemoryStore) Add(ctx context.Context, accountID string, delta int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counters[accountID] += delta
	return m.counters[accountID], nil
}

// Count implements Store.
func (m *MemoryStore) Count(ctx context.Context, accountID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.counters[accountID], nil
}

// RecordSession implements Store.
func (m *MemoryStore) RecordSession(ctx context.Context, accountID string, finishedAt time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := pruneBefore(m.sessions[accountID], finishedAt.Add(-SessionWindow))
	kept = append(kept, finishedAt)
	m.sessions[accountID] = kept
	return len(kept), nil
}

// SessionsInWindow implements Store.
func (m *MemoryStore) SessionsInWindow(ctx context.Context, accountID string, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := now.Add(-SessionWindow)
	n := 0
	for _, ts := range m.sessions[accountID] {
		if ts.After(cutoff) {
			n++
		}
	}
	return n, nil
}

// Reset implements Store.
func (m *MemoryStore) Reset(ctx context.Context, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.counters, accountID)
	return nil
}

func pruneBefore(stamps []time.Time, cutoff time.Time) []time.Time {
	kept := stamps[:0]
	for _, ts := range stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	return kept
}
