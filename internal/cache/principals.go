package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/labhub/internal/authz"
	"github.com/redis/go-redis/v9"
)

// MemoryPrincipals keeps resolved principals in process. Used when no redis
// address is configured.
type MemoryPrincipals struct {
	c *Cache
}

func NewMemoryPrincipals(ttl time.Duration) *MemoryPrincipals {
	return &MemoryPrincipals{c: New(ttl)}
}

func (m *MemoryPrincipals) Get(_ context.Context, key string) (authz.Principal, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return authz.Principal{}, false, nil
	}

	p, ok := v.(authz.Principal)
	if !ok {
		m.c.Delete(key)
		return authz.Principal{}, false, nil
	}

	return p, true, nil
}

func (m *MemoryPrincipals) Set(_ context.Context, key string, p authz.Principal, ttl time.Duration) error {
	m.c.SetWithTTL(key, p, ttl)
	return nil
}

func (m *MemoryPrincipals) Delete(_ context.Context, key string) error {
	m.c.Delete(key)
	return nil
}

// RedisPrincipals shares resolved principals between API replicas.
type RedisPrincipals struct {
	rdb    redis.Cmdable
	prefix string
}

func NewRedisPrincipals(rdb redis.Cmdable, prefix string) *RedisPrincipals {
	if prefix == "" {
		prefix = "labhub:"
	}
	return &RedisPrincipals{rdb: rdb, prefix: prefix}
}

func (r *RedisPrincipals) Get(ctx context.Context, key string) (authz.Principal, bool, error) {
	raw, err := r.rdb.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return authz.Principal{}, false, nil
		}
		return authz.Principal{}, false, fmt.Errorf("redis get: %w", err)
	}

	var p authz.Principal
	if err := json.Unmarshal(raw, &p); err != nil {
		// drop the corrupt entry and report a miss
		_ = r.rdb.Del(ctx, r.prefix+key).Err()
		return authz.Principal{}, false, nil
	}

	return p, true, nil
}

func (r *RedisPrincipals) Set(ctx context.Context, key string, p authz.Principal, ttl time.Duration) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}

	return r.rdb.Set(ctx, r.prefix+key, raw, ttl).Err()
}

func (r *RedisPrincipals) Delete(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, r.prefix+key).Err()
}
