// Package cache is the response cache: a process-local map keyed by
// request fingerprint, with TTL-by-frequency-class expiry and LRU
// eviction. Single-flight deduplication of concurrent identical requests
// is delegated to golang.org/x/sync/singleflight rather than hand-rolled.
package cache

import (
	"container/list"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hanlulong/openecon-data-sub002/internal/metrics"
)

// Entry holds a cached result, inserted_at, expires_at, plus a size
// estimate used for informational /cache/stats reporting. Eviction itself
// is entry-count based, against one hard entry cap for the whole cache.
type Entry struct {
	Result interface{}
	InsertedAt time.Time
	ExpiresAt time.Time
	SizeEstimate int
}

// Stats mirrors the shape of GET /cache/stats's JSON body.
type Stats struct {
	Entries int
	Hits int64
	Misses int64
	Evictions int64
	HitRate float64
}

type node struct {
	key string
	entry Entry
}

// Cache is safe for concurrent use. Get, Set, eviction and Clear take the
// write lock for a short critical section (Get moves the entry to the LRU
// front); only Stats takes the read lock.
type Cache struct {
	mu sync.RWMutex
	items map[string]*list.Element // key -> node in lru
	lru *list.List // front = most recently used
	maxItems int

	group singleflight.Group

	hits, misses, evictions int64

	sweepStop chan struct{}
}

func New(maxItems int, sweepInterval time.Duration) *Cache {
	c := &Cache{
 items: make(map[string]*list.Element),
 lru: list.New(),
 maxItems: maxItems,
	}
	if sweepInterval > 0 {
 c.sweepStop = make(chan struct{})
 go c.sweepLoop(sweepInterval)
	}
	return c
}

// Get returns the cached entry for fp if present and unexpired: any get at
// t0 <= t < t0+ttl returns the entry; any get at t >= t0+ttl does not,
// because expiry is checked here rather than left to the janitor to have
// run.
func (c *Cache) Get(fp string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[fp]
	if !ok {
 c.misses++
 return Entry{}, false
	}
	n := el.Value.(*node)
	if !time.Now().Before(n.entry.ExpiresAt) {
 c.removeElementLocked(el)
 c.misses++
 return Entry{}, false
	}
	c.lru.MoveToFront(el)
	c.hits++
	return n.entry, true
}

// Set inserts or replaces fp's entry. Cache entries are never mutated in
// place. This always allocates a fresh Entry.
func (c *Cache) Set(fp string, result interface{}, ttl time.Duration, sizeEstimate int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := Entry{Result: result, InsertedAt: time.Now(), ExpiresAt: time.Now().Add(ttl), SizeEstimate: sizeEstimate}

	if el, ok := c.items[fp]; ok {
 el.Value.(*node).entry = entry
 c.lru.MoveToFront(el)
 return
	}

	el := c.lru.PushFront(&node{key: fp, entry: entry})
	c.items[fp] = el

	for c.maxItems > 0 && c.lru.Len() > c.maxItems {
 oldest := c.lru.Back()
 if oldest == nil {
 break
 }
 c.removeElementLocked(oldest)
 c.evictions++
	}
}

func (c *Cache) removeElementLocked(el *list.Element) {
	c.lru.Remove(el)
	delete(c.items, el.Value.(*node).key)
}

// GetOrCompute is the cache's single contract point:
// concurrent callers with the same fingerprint share one producer
// invocation. The wait takes no context: a caller that joins an in-flight
// computation blocks until the producer returns, whatever its own deadline,
// and nothing here cancels the producer.
func (c *Cache) GetOrCompute(fp string, ttl time.Duration, sizeEstimate int, producer func() (interface{}, error)) (result interface{}, cacheHit bool, err error) {
	if entry, ok := c.Get(fp); ok {
 metrics.CacheHitsTotal.Inc()
 return entry.Result, true, nil
	}
	metrics.CacheMissesTotal.Inc()

	v, err, _ := c.group.Do(fp, func() (interface{}, error) {
 // Re-check under the flight group: another caller may have just
 // populated the cache between our Get above and Do claiming the key.
 if entry, ok := c.Get(fp); ok {
 return entry.Result, nil
 }
 res, perr := producer()
 if perr != nil {
 return nil, perr
 }
 c.Set(fp, res, ttl, sizeEstimate)
 return res, nil
	})
	if err != nil {
 return nil, false, err
	}
	return v, false, nil
}

// Clear empties the cache (POST /cache/clear).
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.lru.Init()
}

// Stats reports current occupancy and hit ratio.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	total := c.hits + c.misses
	var hitRate float64
	if total > 0 {
 hitRate = float64(c.hits) / float64(total)
	}
	return Stats{
 Entries: c.lru.Len(),
 Hits: c.hits,
 Misses: c.misses,
 Evictions: c.evictions,
 HitRate: hitRate,
	}
}

// Close stops the background sweep. Safe to call once.
func (c *Cache) Close() {
	if c.sweepStop != nil {
 close(c.sweepStop)
	}
}

func (c *Cache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
 select {
 case <-ticker.C:
 c.sweepExpired()
 case <-c.sweepStop:
 return
 }
	}
}

func (c *Cache) sweepExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for el := c.lru.Back(); el != nil; {
 prev := el.Prev()
 n := el.Value.(*node)
 if now.After(n.entry.ExpiresAt) {
 c.removeElementLocked(el)
 }
 el = prev
	}
}
