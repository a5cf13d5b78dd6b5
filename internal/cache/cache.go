// Package cache holds resolved principals between requests, either in process
// or in redis.
package cache

import (
	"sync"
	"time"
)

// sweep expired entries once this many writes have happened
const sweepEvery = 256

// Cache is a small TTL map guarded by a RWMutex.
type Cache struct {
	mu     sync.RWMutex
	ttl    time.Duration
	m      map[string]entry
	writes int
	now    func() time.Time
}

type entry struct {
	val any
	exp time.Time
}

func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Cache{
		ttl: ttl,
		m:   make(map[string]entry),
		now: time.Now,
	}
}

func (c *Cache) Get(key string) (any, bool) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if !now.Before(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false
	}

	return e.val, true
}

func (c *Cache) Set(key string, val any) {
	c.SetWithTTL(key, val, c.ttl)
}

// SetWithTTL stores val for at most ttl; a non-positive ttl uses the default.
func (c *Cache) SetWithTTL(key string, val any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}

	now := c.now()

	c.mu.Lock()
	c.m[key] = entry{val: val, exp: now.Add(ttl)}
	c.writes++
	if c.writes%sweepEvery == 0 {
		for k, e := range c.m {
			if !now.Before(e.exp) {
				delete(c.m, k)
			}
		}
	}
	c.mu.Unlock()
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

func (c *Cache) Clear() {
	c.mu.Lock()
	c.m = make(map[string]entry)
	c.mu.Unlock()
}
