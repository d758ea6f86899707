package indicators

import (
	"fmt"
	"sync"
	"time"

	"github.com/Alias1177/SignalTrader/models"
)

// DefaultCacheTTL is how long a computed bundle stays valid
const DefaultCacheTTL = 5 * time.Minute

type cacheEntry struct {
	sets      []models.IndicatorSet
	updatedAt time.Time
}

// Cache memoises Generate results per symbol and series fingerprint.
// Safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	params  Params
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewCache creates a cache; ttl <= 0 selects DefaultCacheTTL
func NewCache(params Params, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		params:  params,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func getCacheKey(symbol string, bars []models.PriceBar) string {
	if len(bars) == 0 {
		return ""
	}
	last := bars[len(bars)-1]
	return fmt.Sprintf("%s_%d_%d_%g", symbol, len(bars), last.Timestamp.UnixNano(), last.Close)
}

// Generate returns cached indicators when the series fingerprint matches,
// computing and storing them otherwise.
func (c *Cache) Generate(symbol string, bars []models.PriceBar) ([]models.IndicatorSet, error) {
	key := getCacheKey(symbol, bars)

	c.mu.RLock()
	if entry, ok := c.entries[key]; ok && c.now().Sub(entry.updatedAt) < c.ttl {
		c.mu.RUnlock()
		return entry.sets, nil
	}
	c.mu.RUnlock()

	sets, err := c.params.Generate(symbol, bars)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cleanupLocked()
	c.entries[key] = cacheEntry{sets: sets, updatedAt: c.now()}
	c.mu.Unlock()

	return sets, nil
}

// Latest returns the newest cached IndicatorSet
func (c *Cache) Latest(symbol string, bars []models.PriceBar) (*models.IndicatorSet, error) {
	sets, err := c.Generate(symbol, bars)
	if err != nil {
		return nil, err
	}
	if len(sets) == 0 {
		return nil, nil
	}
	latest := sets[len(sets)-1]
	return &latest, nil
}

// Len reports the number of live entries
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// cleanupLocked drops expired entries; caller holds the write lock.
func (c *Cache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.Sub(entry.updatedAt) > c.ttl {
			delete(c.entries, key)
		}
	}
}
