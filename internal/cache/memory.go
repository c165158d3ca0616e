package cache

import (
	"context"
	"sync"
	"time"
)

// entry is one stored value and its expiry instant.
type entry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is a process-local Store backed by a mutex-guarded map with
// lazy expiry. It exists for single-process deployments and tests; shared
// deployments should inject the SQLite-backed store instead.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry

	// now is swappable for expiry tests.
	now func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]entry), now: time.Now}
}

// Get implements Store. Expired entries are deleted on access.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if s.now().After(e.expiresAt) {
		delete(s.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set implements Store. Non-positive TTLs are rejected.
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Opportunistically drop a few expired neighbors to bound memory.
	now := s.now()
	pruned := 0
	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, k)
			if pruned++; pruned >= 16 {
				break
			}
		}
	}

	s.entries[key] = entry{value: append([]byte(nil), value...), expiresAt: now.Add(ttl)}
	return true
}

// Len reports the number of stored (possibly expired) entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
