package ports

import (
	"context"
	"time"
)

// Cache is a keyed byte store with per-entry TTL. Get returns found=false on
// a miss or an expired entry; callers treat cache errors as misses.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
