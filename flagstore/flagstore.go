// Enforcement markers with per-flag TTLs.
//
// The engine uses flags to remember in-flight enforcement state that should
// not re-fire on every evaluation, such as an active group lockdown. Hosts
// can also query flags directly (eg, "is this group currently locked down").
package flagstore

import (
	"context"
	"time"
)

type FlagStore interface {
	Get(ctx context.Context, key string) ([]string, error)
	// Add sets flags on a key. A ttl <= 0 means the flags never expire.
	// Re-adding a live flag refreshes its expiry.
	Add(ctx context.Context, key string, flags []string, ttl time.Duration) error
	// Remove clears flags from a key. Does not error if flags are absent.
	Remove(ctx context.Context, key string, flags []string) error
}

// Has reports whether a specific flag is currently set on a key.
func Has(ctx context.Context, s FlagStore, key, flag string) (bool, error) {
	flags, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	for _, f := range flags {
		if f == flag {
			return true, nil
		}
	}
	return false, nil
}
