package cache

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Ristretto is the in-process snapshot cache.
type Ristretto struct {
	c *ristretto.Cache[string, Snapshot]
}

// NewRistretto creates an in-process cache holding up to maxTenants snapshots.
func NewRistretto(maxTenants int64) (*Ristretto, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, Snapshot]{
		NumCounters: maxTenants * 10,
		MaxCost:     maxTenants,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Ristretto{c: c}, nil
}

func (r *Ristretto) Get(_ context.Context, key string) (Snapshot, bool) {
	return r.c.Get(key)
}

// Set stores snap and waits for the write buffer to drain so the entry is
// visible to the next Get.
func (r *Ristretto) Set(_ context.Context, key string, snap Snapshot, ttl time.Duration) {
	r.c.SetWithTTL(key, snap, 1, ttl)
	r.c.Wait()
}

// Close releases the cache goroutines.
func (r *Ristretto) Close() {
	r.c.Close()
}
