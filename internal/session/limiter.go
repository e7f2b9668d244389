package session

import (
	"sync"

	lru "github.com/golang/groupcache/lru"
	"golang.org/x/time/rate"
)

// limiterCacheSize bounds how many distinct source IPs get their own
// token bucket at once; an lru.Cache evicts the coldest entry rather
// than letting a flood of spoofed or scanning source addresses grow the
// table unbounded.
const limiterCacheSize = 4096

// limiterTable hands out a per-IP rate.Limiter, backed by an LRU cache
// so the proxy never tracks an unbounded number of source addresses.
type limiterTable struct {
	mu    sync.Mutex
	cache *lru.Cache
}

func newLimiterTable() *limiterTable {
	return &limiterTable{cache: lru.New(limiterCacheSize)}
}

// Allow reports whether a new status/login attempt from ip may proceed,
// limiting each source IP to 5 connection attempts per second with a
// burst of 10 to absorb a normal client's handshake+status+ping volley
// without penalizing it.
func (t *limiterTable) Allow(ip string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	var lim *rate.Limiter
	if v, ok := t.cache.Get(ip); ok {
		lim = v.(*rate.Limiter)
	} else {
		lim = rate.NewLimiter(rate.Limit(5), 10)
		t.cache.Add(ip, lim)
	}
	return lim.Allow()
}
