// Package cache stores per-tenant settings snapshots.
package cache

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
)

// Snapshot is an immutable key/value view of one tenant's settings.
// Keys are lowercased. A snapshot is replaced, never updated.
type Snapshot struct {
	Values    map[string]string `json:"values"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// Lookup returns the value for an already-lowercased key.
func (s Snapshot) Lookup(key string) (string, bool) {
	v, ok := s.Values[key]
	return v, ok
}

// Cache holds snapshots keyed by string. Implementations must be safe for
// concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (Snapshot, bool)
	Set(ctx context.Context, key string, snap Snapshot, ttl time.Duration)
}

// LoadFunc produces a fresh key/value map on a cache miss.
type LoadFunc func(ctx context.Context) map[string]string

// GetOrLoad returns the cached snapshot for key while it is fresh according
// to clk, and otherwise loads, stores and returns a new one that expires ttl
// after now. Concurrent misses may load more than once. A load cut short by
// ctx cancellation is returned but not stored.
func GetOrLoad(ctx context.Context, c Cache, clk clock.Clock, key string, ttl time.Duration, load LoadFunc) (Snapshot, bool) {
	now := clk.Now()
	if snap, ok := c.Get(ctx, key); ok && now.Before(snap.ExpiresAt) {
		return snap, true
	}

	values := load(ctx)
	if values == nil {
		values = map[string]string{}
	}
	snap := Snapshot{Values: values, ExpiresAt: now.Add(ttl)}
	if ctx.Err() != nil {
		return snap, false
	}
	c.Set(ctx, key, snap, ttl)
	return snap, false
}
