// Package cache provides the discardable memory pool that backs purgeable
// pixel storage.
//
// A [Pool] tracks items by size in least-recently-used order. When the
// total size exceeds the pool budget, the oldest items are asked to purge
// themselves. Items that are currently locked refuse and are skipped, so a
// locked item is never reclaimed.
//
//	pool := cache.NewPool[*Buffer](64 << 20)
//	pool.Add(buf)         // buf becomes purgeable
//	pool.Touch(buf)       // mark as recently used (e.g. on lock)
//	pool.Remove(buf)      // buf was freed by its owner
//
// # Thread Safety
//
// Pool is safe for concurrent use. Pool calls TryPurge while holding its own
// mutex, so implementations of [Purgeable] must not call back into the pool
// from TryPurge.
package cache
