// Package cache provides a generic thread-safe result cache.
//
// The analysis layer memoizes expensive decomposition results keyed
// by their inputs. Access patterns are low-contention (a handful of
// analyses per mesh), so a single mutex-guarded map with soft-limit
// LRU eviction is sufficient: when capacity is exceeded, the oldest
// 25% of entries are dropped.
//
//	c := cache.New[string, int](100)
//	c.Set("key", 42)
//	value, ok := c.Get("key")
//
// GetOrCreate computes missing values under the cache lock, so
// concurrent requests for the same key run the computation once.
//
// # Thread Safety
//
// Cache is safe for concurrent use. It must not be copied after
// creation (it contains a mutex).
package cache
