// Package cache implémentations du cache de lecture du stock.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryItem struct {
	payload []byte
	expires time.Time
}

// MemoryStockCache cache en mémoire du processus; le TTL borne la durée de vie d'une entrée oubliée.
type MemoryStockCache struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	gen   uint64
	now   func() time.Time
}

func NewMemoryStockCache() *MemoryStockCache {
	return &MemoryStockCache{items: make(map[string]memoryItem), now: time.Now}
}

func (c *MemoryStockCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if !it.expires.IsZero() && c.now().After(it.expires) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return false, nil
	}
	if err := json.Unmarshal(it.payload, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *MemoryStockCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	c.mu.RLock()
	gen := c.gen
	c.mu.RUnlock()
	return c.Fill(ctx, gen, key, value, ttl)
}

func (c *MemoryStockCache) Generation(context.Context) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen, nil
}

// Fill n'écrit rien si une invalidation a eu lieu depuis gen.
func (c *MemoryStockCache) Fill(_ context.Context, gen uint64, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	it := memoryItem{payload: payload}
	if ttl > 0 {
		it.expires = c.now().Add(ttl)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return nil
	}
	c.items[key] = it
	return nil
}

func (c *MemoryStockCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	c.gen++
	c.items = make(map[string]memoryItem)
	c.mu.Unlock()
	return nil
}

// Len nombre d'entrées (expirées comprises).
func (c *MemoryStockCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// NoopStockCache désactive le cache.
type NoopStockCache struct{}

func (NoopStockCache) Get(_ context.Context, _ string, _ any) (bool, error) { return false, nil }

func (NoopStockCache) Set(_ context.Context, _ string, _ any, _ time.Duration) error { return nil }

func (NoopStockCache) Generation(context.Context) (uint64, error) { return 0, nil }

func (NoopStockCache) Fill(_ context.Context, _ uint64, _ string, _ any, _ time.Duration) error {
	return nil
}

func (NoopStockCache) Invalidate(_ context.Context) error { return nil }
