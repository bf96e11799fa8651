package cache

import (
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	createdAt time.Time
}

// MemoryStore is the default in-process cache store.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[Namespace]map[string]memoryEntry
	ttl     time.Duration
	hits    int64
	misses  int64

	// now is a test seam for TTL expiry.
	now func() time.Time
}

// NewMemoryStore creates an in-memory store with the given TTL.
// A non-positive ttl falls back to DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		entries: map[Namespace]map[string]memoryEntry{
			NamespaceAnalysis:   {},
			NamespaceGeneration: {},
		},
		ttl: ttl,
		now: time.Now,
	}
}

// Get returns the stored value, or ok=false if absent or expired. Expired
// entries are left in place; eviction happens on the next write.
func (s *MemoryStore) Get(ns Namespace, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[ns][key]
	if !ok || s.now().Sub(entry.createdAt) > s.ttl {
		s.misses++
		return nil, false
	}
	s.hits++
	return entry.value, true
}

// Put stores value and sweeps expired entries from every namespace.
func (s *MemoryStore) Put(ns Namespace, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entries[ns] == nil {
		s.entries[ns] = make(map[string]memoryEntry)
	}
	now := s.now()
	s.entries[ns][key] = memoryEntry{value: value, createdAt: now}

	for _, bucket := range s.entries {
		for k, e := range bucket {
			if now.Sub(e.createdAt) > s.ttl {
				delete(bucket, k)
			}
		}
	}
	return nil
}

// Stats returns occupancy and hit/miss counters.
func (s *MemoryStore) Stats() (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	analysis := int64(len(s.entries[NamespaceAnalysis]))
	generation := int64(len(s.entries[NamespaceGeneration]))
	return Stats{
		AnalysisEntries:   analysis,
		GenerationEntries: generation,
		Total:             analysis + generation,
		Hits:              s.hits,
		Misses:            s.misses,
	}, nil
}

// Clear removes all entries from both namespaces.
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for ns := range s.entries {
		s.entries[ns] = make(map[string]memoryEntry)
	}
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
