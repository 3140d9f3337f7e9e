// Package cache stores rendered analysis reports keyed by text hash.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/medilens/medilens-api/pkg/circuitbreaker"
)

// Tier names reported by Get.
const (
	TierMemory = "memory"
	TierRedis  = "redis"
)

// Cache is a byte-value cache.
type Cache interface {
	// Get returns the value and the tier that served it.
	Get(ctx context.Context, key string) ([]byte, string, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Memory is an in-process cache backed by go-cache.
type Memory struct {
	store *cache.Cache
}

func NewMemory(defaultTTL, cleanupInterval time.Duration) *Memory {
	return &Memory{store: cache.New(defaultTTL, cleanupInterval)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, string, bool) {
	v, ok := m.store.Get(key)
	if !ok {
		return nil, "", false
	}
	b, ok := v.([]byte)
	return b, TierMemory, ok
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = cache.DefaultExpiration
	}
	m.store.Set(key, value, ttl)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.store.Delete(key)
	return nil
}

func (m *Memory) ItemCount() int {
	return m.store.ItemCount()
}

// Redis is a shared cache. Failures are logged and reported as misses.
type Redis struct {
	client *redis.Client
	prefix string
	cb     *circuitbreaker.CircuitBreaker
	logger zerolog.Logger
}

func NewRedis(client *redis.Client, prefix string, logger zerolog.Logger) *Redis {
	return &Redis{
		client: client,
		prefix: prefix,
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "redis-cache",
			MaxRequests: 5,
			Interval:    10 * time.Second,
			Timeout:     5 * time.Second,
		}),
		logger: logger,
	}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, string, bool) {
	var value []byte
	err := r.cb.Execute(func() error {
		b, err := r.client.Get(ctx, r.prefix+key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		value = b
		return err
	})
	if err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("Redis cache get failed")
		return nil, "", false
	}
	if value == nil {
		return nil, "", false
	}
	return value, TierRedis, true
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.cb.Execute(func() error {
		return r.client.Set(ctx, r.prefix+key, value, ttl).Err()
	})
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.cb.Execute(func() error {
		return r.client.Del(ctx, r.prefix+key).Err()
	})
}

// Tiered reads the local tier first and back-fills it on a remote hit.
type Tiered struct {
	local    Cache
	remote   Cache
	localTTL time.Duration
}

func NewTiered(local, remote Cache, localTTL time.Duration) *Tiered {
	return &Tiered{local: local, remote: remote, localTTL: localTTL}
}

func (t *Tiered) Get(ctx context.Context, key string) ([]byte, string, bool) {
	if v, tier, ok := t.local.Get(ctx, key); ok {
		return v, tier, true
	}
	v, tier, ok := t.remote.Get(ctx, key)
	if !ok {
		return nil, "", false
	}
	_ = t.local.Set(ctx, key, v, t.localTTL)
	return v, tier, true
}

// Set writes both tiers. A remote failure is returned after the local write.
func (t *Tiered) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_ = t.local.Set(ctx, key, value, minTTL(ttl, t.localTTL))
	return t.remote.Set(ctx, key, value, ttl)
}

func (t *Tiered) Delete(ctx context.Context, key string) error {
	_ = t.local.Delete(ctx, key)
	return t.remote.Delete(ctx, key)
}

func minTTL(a, b time.Duration) time.Duration {
	if b > 0 && (a <= 0 || b < a) {
		return b
	}
	return a
}
