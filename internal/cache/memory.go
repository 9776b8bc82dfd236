// Package cache provides transfer page caches backed by memory or Redis.
package cache

import (
	"context"
	"sync"
	"time"

	"solana-whale-graph/internal/ledger"
)

// DefaultTTL bounds how long a cached transfer page stays fresh. Transfer
// history is append-only but first-page contents shift as new transfers land.
const DefaultTTL = 5 * time.Minute

// Memory is an in-process TTL cache for transfer pages.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

type memoryEntry struct {
	records   []ledger.RawTransfer
	expiresAt time.Time
}

// NewMemory creates an in-memory cache. A non-positive ttl falls back to
// DefaultTTL.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached page and true on a hit. Expired entries are
// removed lazily.
func (m *Memory) Get(_ context.Context, key string) ([]ledger.RawTransfer, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if m.now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false, nil
	}

	records := make([]ledger.RawTransfer, len(entry.records))
	copy(records, entry.records)
	return records, true, nil
}

// Set stores a page under key.
func (m *Memory) Set(_ context.Context, key string, records []ledger.RawTransfer) error {
	stored := make([]ledger.RawTransfer, len(records))
	copy(stored, records)

	m.mu.Lock()
	m.entries[key] = memoryEntry{
		records:   stored,
		expiresAt: m.now().Add(m.ttl),
	}
	m.mu.Unlock()
	return nil
}

// Verify interface compliance at compile time.
var _ ledger.TransferCache = (*Memory)(nil)
