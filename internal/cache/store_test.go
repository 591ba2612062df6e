package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_GetSet(t *testing.T) {
	tests := []struct {
		name          string
		setupStore    func() *Store
		key           string
		expectedValue interface{}
		expectedFound bool
	}{
		{
			name: "returns value when present and fresh",
			setupStore: func() *Store {
				s := NewStore(10)
				_ = s.Set("dashboard:stats:all", 42, time.Minute)
				return s
			},
			key:           "dashboard:stats:all",
			expectedValue: 42,
			expectedFound: true,
		},
		{
			name: "returns false when key missing",
			setupStore: func() *Store {
				return NewStore(10)
			},
			key:           "dashboard:stats:all",
			expectedFound: false,
		},
		{
			name: "returns false when expired",
			setupStore: func() *Store {
				s := NewStore(10)
				_ = s.Set("forms:summary:all", "stale", 30*time.Millisecond)
				time.Sleep(60 * time.Millisecond)
				return s
			},
			key:           "forms:summary:all",
			expectedFound: false,
		},
		{
			name: "overwrite replaces the value",
			setupStore: func() *Store {
				s := NewStore(10)
				_ = s.Set("k", "old", time.Minute)
				_ = s.Set("k", "new", time.Minute)
				return s
			},
			key:           "k",
			expectedValue: "new",
			expectedFound: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.setupStore()
			value, found := s.Get(tt.key)

			assert.Equal(t, tt.expectedFound, found)
			if tt.expectedFound {
				assert.Equal(t, tt.expectedValue, value)
			} else {
				assert.Nil(t, value)
			}
		})
	}
}

func TestStore_InvalidTTL(t *testing.T) {
	tests := []struct {
		name string
		ttl  time.Duration
	}{
		{name: "zero ttl", ttl: 0},
		{name: "negative ttl", ttl: -5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(10)
			_ = s.Set("existing", 1, time.Minute)

			err := s.Set("rejected", 2, tt.ttl)

			assert.ErrorIs(t, err, ErrInvalidTTL)
			_, found := s.Get("rejected")
			assert.False(t, found)

			// The store is left unchanged
			value, found := s.Get("existing")
			assert.True(t, found)
			assert.Equal(t, 1, value)
			assert.Equal(t, 1, s.Len())
		})
	}
}

func TestStore_LRUEviction(t *testing.T) {
	s := NewStore(2)

	require.NoError(t, s.Set("a", 1, time.Minute))
	require.NoError(t, s.Set("b", 2, time.Minute))

	// Touch "a" so "b" becomes the least recently used entry.
	_, found := s.Get("a")
	require.True(t, found)

	require.NoError(t, s.Set("c", 3, time.Minute))

	assert.Equal(t, 2, s.Len())

	_, found = s.Get("b")
	assert.False(t, found, "least recently used entry should be evicted")

	value, found := s.Get("a")
	assert.True(t, found)
	assert.Equal(t, 1, value)

	value, found = s.Get("c")
	assert.True(t, found)
	assert.Equal(t, 3, value)
}

func TestStore_ZeroCapacity(t *testing.T) {
	s := NewStore(0)

	err := s.Set("k", "v", time.Minute)
	assert.NoError(t, err)

	_, found := s.Get("k")
	assert.False(t, found)
	assert.Equal(t, 0, s.Len())
}

func TestStore_NegativeCapacityClamped(t *testing.T) {
	s := NewStore(-3)

	assert.NoError(t, s.Set("k", "v", time.Minute))
	assert.Equal(t, 0, s.Len())
}

func TestStore_OverwriteDoesNotEvict(t *testing.T) {
	s := NewStore(2)

	require.NoError(t, s.Set("a", 1, time.Minute))
	require.NoError(t, s.Set("b", 2, time.Minute))
	require.NoError(t, s.Set("a", 10, time.Minute))

	assert.Equal(t, 2, s.Len())
	value, found := s.Get("b")
	assert.True(t, found)
	assert.Equal(t, 2, value)
}

func TestStore_Delete(t *testing.T) {
	s := NewStore(10)
	_ = s.Set("k", "v", time.Minute)

	s.Delete("k")
	_, found := s.Get("k")
	assert.False(t, found)

	// Deleting a missing key is a no-op
	s.Delete("missing")
}

func TestStore_DeletePrefix(t *testing.T) {
	s := NewStore(10)
	_ = s.Set("dashboard:stats:all", 1, time.Minute)
	_ = s.Set("dashboard:stats:form:f1", 2, time.Minute)
	_ = s.Set("forms:summary:all", 3, time.Minute)

	removed := s.DeletePrefix("dashboard:stats")

	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, s.Len())

	_, found := s.Get("forms:summary:all")
	assert.True(t, found)
}

func TestStore_Clear(t *testing.T) {
	s := NewStore(10)
	_ = s.Set("a", 1, time.Minute)
	_ = s.Set("b", 2, time.Minute)

	s.Clear()

	assert.Equal(t, 0, s.Len())
	_, found := s.Get("a")
	assert.False(t, found)

	// The store stays usable after a clear
	assert.NoError(t, s.Set("c", 3, time.Minute))
	value, found := s.Get("c")
	assert.True(t, found)
	assert.Equal(t, 3, value)
}

func TestStore_Stats(t *testing.T) {
	s := NewStore(5)
	_ = s.Set("hot", 1, time.Minute)
	_ = s.Set("cold", 2, time.Minute)

	for i := 0; i < 3; i++ {
		_, _ = s.Get("hot")
	}

	stats := s.Stats()

	assert.Equal(t, 2, stats.Size)
	assert.Equal(t, 5, stats.Capacity)
	require.Len(t, stats.Entries, 2)

	byKey := make(map[string]EntryStats, len(stats.Entries))
	for _, e := range stats.Entries {
		byKey[e.Key] = e
	}

	assert.Equal(t, int64(3), byKey["hot"].HitCount)
	assert.Equal(t, int64(0), byKey["cold"].HitCount)
	assert.LessOrEqual(t, byKey["hot"].SecondsUntilExpiry, int64(60))
	assert.Greater(t, byKey["hot"].SecondsUntilExpiry, int64(50))
}

func TestStore_StatsDoesNotTouchRecency(t *testing.T) {
	s := NewStore(2)

	require.NoError(t, s.Set("a", 1, time.Minute))
	require.NoError(t, s.Set("b", 2, time.Minute))

	// A snapshot must not promote "a"; it stays the eviction candidate.
	_ = s.Stats()

	require.NoError(t, s.Set("c", 3, time.Minute))

	_, found := s.Get("a")
	assert.False(t, found)
	_, found = s.Get("b")
	assert.True(t, found)
}

func TestStore_OverwriteResetsHitCount(t *testing.T) {
	s := NewStore(5)
	_ = s.Set("k", 1, time.Minute)
	_, _ = s.Get("k")
	_, _ = s.Get("k")

	_ = s.Set("k", 2, time.Minute)

	stats := s.Stats()
	require.Len(t, stats.Entries, 1)
	assert.Equal(t, int64(0), stats.Entries[0].HitCount)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := NewStore(100)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				key := fmt.Sprintf("key-%d", (n+j)%30)
				_ = s.Set(key, j, time.Minute)
				_, _ = s.Get(key)
				if j%10 == 0 {
					s.Delete(key)
				}
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, s.Len(), 100)
}
