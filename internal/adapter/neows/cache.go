package neows

import (
	"context"
	"sync"
	"time"

	"github.com/couchcryptid/impact-sim/internal/observability"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

// sharedFetchTimeout bounds an upstream request shared by concurrent misses.
const sharedFetchTimeout = 30 * time.Second

// CachedFeed wraps a FeedFetcher with an in-memory LRU cache whose entries
// expire after a TTL. Concurrent misses for the same window share one
// upstream request; a caller that gives up does not cancel it for the others.
type CachedFeed struct {
	inner   FeedFetcher
	cache   *lruCache
	group   singleflight.Group
	metrics *observability.Metrics
}

// NewCachedFeed creates a cache decorator around a feed fetcher.
func NewCachedFeed(inner FeedFetcher, maxEntries int, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *CachedFeed {
	return &CachedFeed{
		inner:   inner,
		cache:   newLRUCache(maxEntries, ttl, clock),
		metrics: metrics,
	}
}

func (c *CachedFeed) Feed(ctx context.Context, startDate, endDate string) (Feed, error) {
	key := startDate + ":" + endDate
	if feed, ok := c.cache.get(key); ok {
		c.metrics.FeedCache.WithLabelValues("hit").Inc()
		return feed, nil
	}
	c.metrics.FeedCache.WithLabelValues("miss").Inc()

	ch := c.group.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()
		feed, err := c.inner.Feed(fetchCtx, startDate, endDate)
		if err != nil {
			return Feed{}, err
		}
		c.cache.put(key, feed)
		return feed, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return Feed{}, res.Err
		}
		return res.Val.(Feed), nil
	case <-ctx.Done():
		return Feed{}, ctx.Err()
	}
}

// lruCache is a thread-safe LRU cache of feeds with per-entry expiry.
type lruCache struct {
	maxEntries int
	ttl        time.Duration
	clock      clockwork.Clock
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key     string
	value   Feed
	expires time.Time
	prev    *entry
	next    *entry
}

func newLRUCache(maxEntries int, ttl time.Duration, clock clockwork.Clock) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		ttl:        ttl,
		clock:      clock,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (Feed, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Feed{}, false
	}
	if !c.clock.Now().Before(e.expires) {
		delete(c.entries, key)
		c.remove(e)
		return Feed{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value Feed) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.clock.Now().Add(c.ttl)
	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expires = expires
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value, expires: expires}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
