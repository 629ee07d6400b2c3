package quote

import (
	"sync"
	"time"

	"github.com/efreitasn/stocktrade/internal/domain"
)

// Cache is a TTL cache of quotes keyed by symbol, so repeated lookups
// for a hot symbol avoid redundant upstream calls.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	quote    *domain.Quote
	storedAt time.Time
}

// NewCache creates a Cache whose entries go stale after ttl.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached quote for a symbol. A stale entry is evicted
// and reported as a miss.
func (c *Cache) Get(symbol string) (*domain.Quote, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[symbol]
	if !ok {
		return nil, false
	}
	if time.Since(entry.storedAt) > c.ttl {
		delete(c.entries, symbol)
		return nil, false
	}
	return entry.quote, true
}

// Put stores a fresh quote, replacing any existing entry for the symbol.
func (c *Cache) Put(q *domain.Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[q.Symbol] = cacheEntry{quote: q, storedAt: time.Now()}
}

// Len returns the number of cached entries, stale included. Useful for
// testing.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
