// Package cache
package cache

import "context"

// Store is a TTL-bounded key/value store. Get reports a miss for both
// absent and stale entries; staleness is checked at read time. Fill
// logic belongs to the caller, which must not hold any lock of its own
// across the upstream fetch.
type Store[T any] interface {
	Get(ctx context.Context, key string) (T, bool, error)
	Set(ctx context.Context, key string, value T) error
}
