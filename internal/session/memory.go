// Package session provides cart.Store implementations.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/noah-isme/backend-kasir/internal/cart"
)

type entry struct {
	sess      *cart.Session
	expiresAt time.Time
}

// Memory keeps sessions in process. Entries idle longer than TTL are dropped
// when read, and writes sweep every expired entry at most once per TTL. A zero
// TTL keeps entries until deleted.
type Memory struct {
	TTL time.Duration
	Now func() time.Time

	mu        sync.RWMutex
	entries   map[string]entry
	nextSweep time.Time
}

// NewMemory constructs an empty in-process store.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{TTL: ttl, entries: make(map[string]entry)}
}

func (m *Memory) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// Get returns a copy of the stored session.
func (m *Memory) Get(_ context.Context, id string) (*cart.Session, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[id]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		m.mu.Lock()
		if cur, ok := m.entries[id]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(m.entries, id)
		}
		m.mu.Unlock()
		return nil, false, nil
	}
	return e.sess.Clone(), true, nil
}

// Put stores a copy of s and refreshes its expiry.
func (m *Memory) Put(_ context.Context, id string, s *cart.Session) error {
	now := m.now()
	e := entry{sess: s.Clone()}
	if m.TTL > 0 {
		e.expiresAt = now.Add(m.TTL)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = make(map[string]entry)
	}
	if m.TTL > 0 && !now.Before(m.nextSweep) {
		m.sweepLocked(now)
		m.nextSweep = now.Add(m.TTL)
	}
	m.entries[id] = e
	return nil
}

// sweepLocked drops expired entries. The caller holds mu.
func (m *Memory) sweepLocked(now time.Time) {
	for id, e := range m.entries {
		if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			delete(m.entries, id)
		}
	}
}

// Delete removes the session; unknown ids are ignored.
func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
	return nil
}

// Len reports the number of stored sessions, including expired ones not yet evicted.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Ping implements health.Checker.
func (m *Memory) Ping(context.Context) error { return nil }
