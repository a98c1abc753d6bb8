// Package cache implements the read-through cache used by the user service.
//
// The cache is a performance hint only: every operation is best-effort and
// failures degrade to a miss, they are never surfaced to callers. List-style
// entries are tracked in an explicit membership index so invalidation does
// not depend on matching key patterns against the store.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache is the flat key-value contract shared by the Redis and in-memory
// implementations.
type Cache interface {
	// Get unmarshals the entry into dest and reports whether it was present.
	// Misses, expired entries, malformed data and store errors all read as
	// absent.
	Get(ctx context.Context, key string, dest any) bool

	// Set stores the value under key with the given TTL. Best-effort.
	Set(ctx context.Context, key string, value any, ttl time.Duration)

	// SetIndexed stores the value like Set and additionally records key as a
	// member of the named index, so InvalidateIndex can find it later.
	SetIndexed(ctx context.Context, index, key string, value any, ttl time.Duration)

	// Invalidate deletes an exact key. Best-effort.
	Invalidate(ctx context.Context, key string)

	// InvalidateIndex deletes every key recorded in the index, then the
	// index itself. Best-effort.
	InvalidateIndex(ctx context.Context, index string)

	// Ping probes the backing store.
	Ping(ctx context.Context) error
}

// ListIndex tracks every cached user listing so a single invalidation covers
// all role/page/limit combinations.
const ListIndex = "users:index"

// UserKey is the per-id cache key.
func UserKey(id int64) string {
	return fmt.Sprintf("user:%d", id)
}

// ListKey derives the listing cache key from the query parameters.
func ListKey(role string, page, limit int) string {
	if role == "" {
		role = "all"
	}
	return fmt.Sprintf("users:%s:%d:%d", role, page, limit)
}
