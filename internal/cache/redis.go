package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisClient is the subset of *redis.Client the cache needs.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	SetEx(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

// Redis shares snapshots across service replicas. Redis failures are
// treated as misses so settings reads keep working without it.
type Redis struct {
	client RedisClient
	prefix string
}

// NewRedis wraps client; every key is stored under prefix.
func NewRedis(client RedisClient, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) Get(ctx context.Context, key string) (Snapshot, bool) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("key", key).Msg("Redis snapshot read failed")
		}
		return Snapshot{}, false
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Discarding undecodable snapshot")
		return Snapshot{}, false
	}
	return snap, true
}

func (r *Redis) Set(ctx context.Context, key string, snap Snapshot, ttl time.Duration) {
	data, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := r.client.SetEx(ctx, r.prefix+key, data, ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Redis snapshot write failed")
	}
}

// Delete drops key, forcing the next read to reload.
func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
