package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache key scopes. Writers invalidate by prefix; readers build full keys
// with the helpers below.
const (
	PrefixDashboardStats = "dashboard:stats"
	PrefixFormsSummary   = "forms:summary"

	// KeyDashboardStatsAll caches the global (all forms) dashboard aggregate.
	KeyDashboardStatsAll = "dashboard:stats:all"
)

// DashboardStatsKey returns the cache key for a single form's dashboard stats.
func DashboardStatsKey(formID string) string {
	if formID == "" {
		return KeyDashboardStatsAll
	}
	return PrefixDashboardStats + ":form:" + formID
}

// FormsSummaryKey returns the cache key for a summary listing filter.
func FormsSummaryKey(filter string) string {
	return PrefixFormsSummary + ":" + filter
}

// ComputeFunc produces the value for a cache key on a miss. It must be a
// side-effect-free read; it may be slow (datastore aggregation).
type ComputeFunc func(ctx context.Context) (interface{}, error)

// AggregationCache is the single point through which expensive read
// aggregations are served. On a miss, concurrent callers for the same key are
// collapsed into one compute call and all receive its result or its error.
type AggregationCache struct {
	store          *Store
	flight         singleflight.Group
	computeTimeout time.Duration
}

// NewAggregationCache creates an AggregationCache over the given store.
// computeTimeout bounds each compute call; zero disables the bound.
func NewAggregationCache(store *Store, computeTimeout time.Duration) *AggregationCache {
	return &AggregationCache{
		store:          store,
		computeTimeout: computeTimeout,
	}
}

// GetOrSet returns the cached value for key, computing and storing it on a
// miss. Compute runs at most once per key per miss window; a failed compute
// stores nothing and its error reaches every waiter, so the next call
// retries fresh. A compute that exceeds the timeout fails with the context
// error and releases its single-flight claim.
func (c *AggregationCache) GetOrSet(ctx context.Context, key string, compute ComputeFunc, ttl time.Duration) (interface{}, error) {
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}

	if value, ok := c.store.Get(key); ok {
		return value, nil
	}

	value, err, _ := c.flight.Do(key, func() (interface{}, error) {
		// A previous flight may have filled the entry between our miss and
		// acquiring the flight.
		if value, ok := c.store.Get(key); ok {
			return value, nil
		}

		computeCtx := ctx
		if c.computeTimeout > 0 {
			var cancel context.CancelFunc
			computeCtx, cancel = context.WithTimeout(ctx, c.computeTimeout)
			defer cancel()
		}

		value, err := compute(computeCtx)
		if err != nil {
			return nil, err
		}
		if err := c.store.Set(key, value, ttl); err != nil {
			return nil, err
		}
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Delete removes a single key.
func (c *AggregationCache) Delete(key string) {
	c.store.Delete(key)
}

// DeletePrefix removes every key under the given scope.
func (c *AggregationCache) DeletePrefix(prefix string) int {
	return c.store.DeletePrefix(prefix)
}

// Clear removes all cached aggregates.
func (c *AggregationCache) Clear() {
	c.store.Clear()
}

// Stats returns the underlying store snapshot.
func (c *AggregationCache) Stats() StoreStats {
	return c.store.Stats()
}
