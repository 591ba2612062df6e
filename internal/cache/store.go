// Package cache implements the in-process aggregation cache: a bounded
// TTL+LRU entry store and a compute-or-fetch front with single-flight
// de-duplication. It is a performance layer only, never a source of truth.
package cache

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/protomforms/response-service/internal/metrics"
)

// ErrInvalidTTL is returned when an entry is stored with a non-positive TTL.
// An entry that is already expired at insertion time is meaningless.
var ErrInvalidTTL = errors.New("cache: ttl must be positive")

// entry is a single cached item. Entries are owned exclusively by the Store;
// values handed to callers must be treated as read-only.
type entry struct {
	key          string
	value        interface{}
	expiresAt    time.Time
	hitCount     int64
	lastAccessAt time.Time
	prev         *entry
	next         *entry
}

// Store is a bounded key/value store with TTL expiry and LRU eviction.
// A single mutex guards the whole store; at the expected sizes (hundreds to
// low thousands of entries) contention is negligible and the map plus
// intrusive list keep every operation O(1).
type Store struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*entry
	head     *entry
	tail     *entry
}

// NewStore creates a Store holding at most capacity entries. A capacity of
// zero is valid and makes every Set evict immediately (a no-op cache).
func NewStore(capacity int) *Store {
	if capacity < 0 {
		capacity = 0
	}
	return &Store{
		capacity: capacity,
		items:    make(map[string]*entry, capacity),
	}
}

// Get returns the value for key, or ok=false when the key is missing or
// expired. Expired entries are deleted as a side effect. On a hit the entry's
// hit count is incremented and its recency refreshed.
func (s *Store) Get(key string) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[key]
	if !ok {
		metrics.RecordCacheOperation("get", "miss")
		return nil, false
	}

	if time.Now().After(e.expiresAt) {
		s.removeEntry(e)
		metrics.RecordCacheOperation("get", "expired")
		return nil, false
	}

	e.hitCount++
	e.lastAccessAt = time.Now()
	s.moveToFront(e)
	metrics.RecordCacheOperation("get", "hit")
	return e.value, true
}

// Set inserts or overwrites the entry for key with the given TTL.
// Overwriting resets the hit count. When inserting a new key would exceed
// capacity, the entry with the oldest last access is evicted first (ties
// broken by insertion order).
func (s *Store) Set(key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		metrics.RecordCacheOperation("set", "invalid_ttl")
		return ErrInvalidTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if e, ok := s.items[key]; ok {
		e.value = value
		e.expiresAt = now.Add(ttl)
		e.hitCount = 0
		e.lastAccessAt = now
		s.moveToFront(e)
		metrics.RecordCacheOperation("set", "success")
		return nil
	}

	e := &entry{
		key:          key,
		value:        value,
		expiresAt:    now.Add(ttl),
		lastAccessAt: now,
	}
	s.items[key] = e
	s.addToFront(e)

	for len(s.items) > s.capacity {
		s.removeTail()
		metrics.RecordCacheOperation("evict", "capacity")
	}

	metrics.RecordCacheOperation("set", "success")
	metrics.UpdateCacheMetrics(len(s.items), s.capacity)
	return nil
}

// Delete removes the entry for key if present.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.items[key]; ok {
		s.removeEntry(e)
		metrics.RecordCacheOperation("delete", "success")
	}
}

// DeletePrefix removes every entry whose key starts with prefix and returns
// the number of entries removed.
func (s *Store) DeletePrefix(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.items {
		if strings.HasPrefix(key, prefix) {
			s.removeEntry(e)
			removed++
		}
	}
	if removed > 0 {
		metrics.RecordCacheOperation("delete_prefix", "success")
	}
	return removed
}

// Clear removes all entries.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make(map[string]*entry, s.capacity)
	s.head = nil
	s.tail = nil
	metrics.RecordCacheOperation("clear", "success")
	metrics.UpdateCacheMetrics(0, s.capacity)
}

// Len returns the number of physically present entries, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// EntryStats is the observability view of a single entry.
type EntryStats struct {
	Key                string `json:"key"`
	HitCount           int64  `json:"hit_count"`
	SecondsUntilExpiry int64  `json:"seconds_until_expiry"`
}

// StoreStats is a read-only snapshot of the store.
type StoreStats struct {
	Size     int          `json:"size"`
	Capacity int          `json:"capacity"`
	Entries  []EntryStats `json:"entries"`
}

// Stats returns a snapshot for observability. It does not count as access:
// hit counts and recency are left untouched.
func (s *Store) Stats() StoreStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	stats := StoreStats{
		Size:     len(s.items),
		Capacity: s.capacity,
		Entries:  make([]EntryStats, 0, len(s.items)),
	}
	for key, e := range s.items {
		remaining := int64(e.expiresAt.Sub(now).Seconds())
		if remaining < 0 {
			remaining = 0
		}
		stats.Entries = append(stats.Entries, EntryStats{
			Key:                key,
			HitCount:           e.hitCount,
			SecondsUntilExpiry: remaining,
		})
	}
	return stats
}

// removeEntry removes an entry from both the map and the linked list.
func (s *Store) removeEntry(e *entry) {
	delete(s.items, e.key)
	s.remove(e)
}

// moveToFront marks an entry as most recently used.
func (s *Store) moveToFront(e *entry) {
	if e == s.head {
		return
	}
	s.remove(e)
	s.addToFront(e)
}

func (s *Store) addToFront(e *entry) {
	e.prev = nil
	e.next = s.head
	if s.head != nil {
		s.head.prev = e
	}
	s.head = e
	if s.tail == nil {
		s.tail = e
	}
}

// remove unlinks an entry from the list without touching the map.
func (s *Store) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		s.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		s.tail = e.prev
	}
}

// removeTail evicts the least recently used entry.
func (s *Store) removeTail() {
	if s.tail == nil {
		return
	}
	delete(s.items, s.tail.key)
	s.remove(s.tail)
}
