package cache

import (
	"context"
	"sync"
	"time"
)

// Entry is one cached upstream payload. Entries are never evicted: a stale
// entry still serves as degraded fallback data when the upstream fails, so
// freshness is always decided by the caller from CachedAt, not by expiry.
type Entry struct {
	Key      string    `json:"key"`
	Payload  []byte    `json:"payload"`
	CachedAt time.Time `json:"cachedAt"`
}

// Store is the cache backend used by the market gateway. Get returns
// (nil, nil) on a miss.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Put(ctx context.Context, key string, payload []byte, now time.Time) error
}

// MemoryStore keeps entries in process memory for the process lifetime.
// Concurrent refreshes of the same key race benignly; the later write wins.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*Entry)}
}

// Get returns the entry for key, or (nil, nil) when absent.
func (s *MemoryStore) Get(_ context.Context, key string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	return entry, nil
}

// Put stores a payload under key, replacing any previous entry.
func (s *MemoryStore) Put(_ context.Context, key string, payload []byte, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = &Entry{Key: key, Payload: payload, CachedAt: now}
	return nil
}
