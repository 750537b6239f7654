package rest

import (
	"net/url"
	"sync"
	"time"

	"github.com/crudr/crudr/pkg/query"
)

// totalsCache memoizes total counts per canonical query string. Counting is
// the expensive half of a list request on large tables; totals tolerate short
// staleness. Safe for concurrent use.
type totalsCache struct {
	mu    sync.RWMutex
	ttl   time.Duration
	items map[string]totalsEntry
}

type totalsEntry struct {
	total   int64
	expires time.Time
}

func newTotalsCache(ttl time.Duration) *totalsCache {
	return &totalsCache{
		ttl:   ttl,
		items: make(map[string]totalsEntry),
	}
}

func (c *totalsCache) get(key string) (int64, bool) {
	c.mu.RLock()
	item, found := c.items[key]
	c.mu.RUnlock()
	if !found {
		return 0, false
	}
	if time.Now().After(item.expires) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return 0, false
	}
	return item.total, true
}

func (c *totalsCache) set(key string, total int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = totalsEntry{total: total, expires: time.Now().Add(c.ttl)}
}

// totalsKey canonicalizes the filter-relevant parameters of a request.
// url.Values.Encode sorts keys, so equivalent requests share one cache entry.
func totalsKey(model string, values url.Values) string {
	filtered := make(url.Values, len(values))
	for key, vals := range values {
		if query.IsReserved(key) {
			continue
		}
		filtered[key] = vals
	}
	return model + "?" + filtered.Encode()
}
