package engine

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/P47Parzival/Coastal-Threat-Alert-System/internal/domain"
)

// featureCache is a thread-safe LRU cache of provider-resolved feature
// records keyed by rounded anchor coordinates. Entries expire after ttl so a
// stale tide or weather reading cannot outlive its usefulness.
type featureCache struct {
	maxEntries int
	ttl        time.Duration
	clock      clockwork.Clock

	mu      sync.Mutex
	entries map[string]*cacheEntry
	head    *cacheEntry // most recently used
	tail    *cacheEntry // least recently used
}

type cacheEntry struct {
	key       string
	record    domain.FeatureRecord
	fetchedAt time.Time
	prev      *cacheEntry
	next      *cacheEntry
}

func newFeatureCache(maxEntries int, ttl time.Duration, clock clockwork.Clock) *featureCache {
	return &featureCache{
		maxEntries: maxEntries,
		ttl:        ttl,
		clock:      clock,
		entries:    make(map[string]*cacheEntry),
	}
}

func (c *featureCache) get(key string) (domain.FeatureRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.FeatureRecord{}, false
	}
	if c.ttl > 0 && c.clock.Now().Sub(e.fetchedAt) > c.ttl {
		delete(c.entries, e.key)
		c.remove(e)
		return domain.FeatureRecord{}, false
	}
	c.moveToFront(e)
	return e.record, true
}

func (c *featureCache) put(key string, record domain.FeatureRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.record = record
		e.fetchedAt = c.clock.Now()
		c.moveToFront(e)
		return
	}

	e := &cacheEntry{key: key, record: record, fetchedAt: c.clock.Now()}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *featureCache) moveToFront(e *cacheEntry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *featureCache) addToFront(e *cacheEntry) {
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

func (c *featureCache) remove(e *cacheEntry) {
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

func (c *featureCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
