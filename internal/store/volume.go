package store

import (
	"sync"

	"github.com/cofleet/exchange/internal/domain"
)

// VolumeCache aggregates executed quantity per (symbol, price) bucket.
// Prices are cents, so a bucket corresponds to a 2-decimal price. The
// cache is derived state: it is rebuilt from the trade ledger at
// startup and updated in the same critical section as each
// continuous-match trade append, never mutated independently.
//
// Only MATCH trades feed the cache; RFQ acceptances settle off-book and
// do not contribute to displayed executed volume.
type VolumeCache struct {
	mu      sync.RWMutex
	volumes map[string]map[int64]int64 // symbol → price cents → quantity
}

// NewVolumeCache creates an empty VolumeCache.
func NewVolumeCache() *VolumeCache {
	return &VolumeCache{
		volumes: make(map[string]map[int64]int64),
	}
}

// Record adds executed quantity at a price bucket.
func (c *VolumeCache) Record(symbol string, price, quantity int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.record(symbol, price, quantity)
}

func (c *VolumeCache) record(symbol string, price, quantity int64) {
	bySymbol, ok := c.volumes[symbol]
	if !ok {
		bySymbol = make(map[int64]int64)
		c.volumes[symbol] = bySymbol
	}
	bySymbol[price] += quantity
}

// BySymbol returns a copy of the price→quantity buckets for a symbol.
func (c *VolumeCache) BySymbol(symbol string) map[int64]int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[int64]int64, len(c.volumes[symbol]))
	for price, qty := range c.volumes[symbol] {
		result[price] = qty
	}
	return result
}

// Snapshot returns a deep copy of the whole cache.
func (c *VolumeCache) Snapshot() map[string]map[int64]int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]map[int64]int64, len(c.volumes))
	for symbol, buckets := range c.volumes {
		cp := make(map[int64]int64, len(buckets))
		for price, qty := range buckets {
			cp[price] = qty
		}
		result[symbol] = cp
	}
	return result
}

// Rebuild discards the cache and replays the given trades. The trade
// ledger is authoritative; whatever the cache held before is dropped.
func (c *VolumeCache) Rebuild(trades []*domain.Trade) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.volumes = make(map[string]map[int64]int64)
	for _, t := range trades {
		if t.Kind != domain.TradeKindMatch {
			continue
		}
		c.record(t.Symbol, t.Price, t.Quantity)
	}
}
