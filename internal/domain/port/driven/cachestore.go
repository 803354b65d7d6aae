package driven

import (
	"context"
	"time"
)

// CacheStore defines the driven port for the memoization backing store.
// Values are opaque bytes; expiry is the store's responsibility.
type CacheStore interface {
	// Get returns the value and true on a hit, or nil and false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
