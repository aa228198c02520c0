package warncount

import (
	"context"
	"fmt"
	"time"
)

// Default lifetime of a counter. Each increment pushes the expiry out again.
const DefaultTTL = 30 * 24 * time.Hour

// Ephemeral per-key counter with a fixed TTL and no durability guarantee.
//
// Increment must be atomic with respect to other increments of the same key; no cross-key coordination is needed.
type Store interface {
	// increments the counter (creating it at 1 if absent or expired) and returns the new value
	Increment(ctx context.Context, key string) (int, error)
	// returns 0 if the counter is absent or expired
	Get(ctx context.Context, key string) (int, error)
	Reset(ctx context.Context, key string) error
}

// Cache key for a user's automated-censorship warning counter.
func UserKey(userID uint64) string {
	return fmt.Sprintf("user_warnings_%d", userID)
}
