// SPDX-License-Identifier: ice License 1.0

package ratelimit

import (
	"context"
	stdlibtime "time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/zeebo/xxh3"
)

func newMemoryCounter(window stdlibtime.Duration) *memoryCounter {
	c := new(memoryCounter)
	for i := range c.shards {
		c.shards[i] = ttlcache.New[string, *entry](ttlcache.WithTTL[string, *entry](idleWindows * window))
		go c.shards[i].Start()
	}

	return c
}

func (c *memoryCounter) Close() error {
	for _, shard := range c.shards {
		shard.Stop()
	}

	return nil
}

func (c *memoryCounter) shard(key string) *ttlcache.Cache[string, *entry] {
	return c.shards[xxh3.HashString(key)%memoryShards]
}

func (c *memoryCounter) incr(_ context.Context, key string, now stdlibtime.Time, length stdlibtime.Duration) (*window, error) {
	shard := c.shard(key)
	for {
		item, _ := shard.GetOrSet(key, new(entry))
		ent := item.Value()
		ent.mx.Lock()
		// The entry might have been evicted and replaced while we were waiting for it.
		if current := shard.Get(key); current == nil || current.Value() != ent {
			ent.mx.Unlock()

			continue
		}
		if ent.expired(now, length) {
			ent.windowStart, ent.count = now, 0
		}
		ent.count++
		res := &window{count: ent.count, resetIn: ent.windowStart.Add(length).Sub(now)}
		ent.mx.Unlock()

		return res, nil
	}
}

func (c *memoryCounter) peek(_ context.Context, key string, now stdlibtime.Time, length stdlibtime.Duration) (*window, error) {
	item := c.shard(key).Get(key, ttlcache.WithDisableTouchOnHit[string, *entry]())
	if item == nil {
		return nil, nil //nolint:nilnil // Absent window.
	}
	ent := item.Value()
	ent.mx.Lock()
	defer ent.mx.Unlock()
	if ent.expired(now, length) {
		return nil, nil //nolint:nilnil // Absent window.
	}

	return &window{count: ent.count, resetIn: ent.windowStart.Add(length).Sub(now)}, nil
}

// Evicted entries behave exactly like expired ones, so eviction never changes a decision.
func (e *entry) expired(now stdlibtime.Time, length stdlibtime.Duration) bool {
	return e.count == 0 || now.Sub(e.windowStart) > length
}
