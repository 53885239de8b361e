package price

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/singleflight"

	"poolFilter/internal/metrics"
)

// ResolveFunc prices a single token.
type ResolveFunc func(ctx context.Context, token common.Address) (float64, error)

type cacheEntry struct {
	rate float64
	err  error // only *NoReferencePoolError is remembered
}

// Cache memoizes token prices for the duration of one filter pass. The first
// result written for a token is never replaced. Transport failures are not cached.
type Cache struct {
	mu      sync.Mutex
	entries map[common.Address]cacheEntry

	inflight singleflight.Group
	resolve  ResolveFunc
	metrics  *metrics.Metrics
}

func NewCache(resolve ResolveFunc, m *metrics.Metrics) *Cache {
	return &Cache{
		entries: make(map[common.Address]cacheEntry),
		resolve: resolve,
		metrics: m,
	}
}

// GetOrResolve returns the cached price of token, resolving it on a miss. The lock
// is only held around map access; concurrent misses on one token share a single
// resolution.
func (c *Cache) GetOrResolve(ctx context.Context, token common.Address) (float64, error) {
	if entry, ok := c.lookup(token); ok {
		c.metrics.CacheLookup(true)
		return entry.rate, entry.err
	}
	c.metrics.CacheLookup(false)

	v, err, _ := c.inflight.Do(token.Hex(), func() (interface{}, error) {
		if entry, ok := c.lookup(token); ok {
			return entry, nil
		}
		rate, err := c.resolve(ctx, token)
		if err != nil && !errors.Is(err, ErrNoReferencePool) {
			return nil, err
		}
		return c.store(token, cacheEntry{rate: rate, err: err}), nil
	})
	if err != nil {
		return 0, err
	}
	entry := v.(cacheEntry)
	return entry.rate, entry.err
}

// Len returns the number of tokens cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) lookup(token common.Address) (cacheEntry, bool) {
	c.mu.Lock()
	entry, ok := c.entries[token]
	c.mu.Unlock()
	return entry, ok
}

// store inserts entry unless token already has one and returns the entry kept.
func (c *Cache) store(token common.Address, entry cacheEntry) cacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[token]; ok {
		return existing
	}
	c.entries[token] = entry
	return entry
}
