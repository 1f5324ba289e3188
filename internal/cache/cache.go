// Package cache implements the in-memory TTL cache fronting content reads.
//
// Entries carry an absolute expiry and an optional tag set. Eviction happens
// two ways and both agree on the expiry instant: a one-shot timer scheduled
// at set time, and a lazy check on read that treats an expired-but-unswept
// entry as a miss.
package cache

import (
	"regexp"
	"sync"
	"time"
)

const (
	// DefaultTTL applies when Set is called with a zero TTL.
	DefaultTTL = 5 * time.Minute
	keyPrefix  = "lorekeep:"
)

type entry struct {
	data     any
	storedAt time.Time
	ttl      time.Duration
	tags     []string
}

func (e *entry) expired(now time.Time) bool {
	return now.After(e.storedAt.Add(e.ttl))
}

// Cache is a process-wide key/value store with per-entry TTL. All methods
// are safe for concurrent use. When disabled, every method is a no-op and
// every read a miss.
type Cache struct {
	mu      sync.Mutex
	enabled bool
	baseTTL time.Duration
	entries map[string]*entry
	timers  map[string]*time.Timer
	now     func() time.Time
}

// New creates a cache. baseTTL <= 0 falls back to DefaultTTL.
func New(enabled bool, baseTTL time.Duration) *Cache {
	if baseTTL <= 0 {
		baseTTL = DefaultTTL
	}
	return &Cache{
		enabled: enabled,
		baseTTL: baseTTL,
		entries: make(map[string]*entry),
		timers:  make(map[string]*time.Timer),
		now:     time.Now,
	}
}

// BaseTTL returns the configured base TTL.
func (c *Cache) BaseTTL() time.Duration { return c.baseTTL }

// Set stores data under key, replacing any existing entry and rescheduling
// its eviction timer. A zero ttl uses the base TTL.
func (c *Cache) Set(key string, data any, ttl time.Duration, tags ...string) {
	if !c.enabled {
		return
	}
	if ttl <= 0 {
		ttl = c.baseTTL
	}
	k := keyPrefix + key

	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.timers[k]; ok {
		t.Stop()
	}
	c.entries[k] = &entry{data: data, storedAt: c.now(), ttl: ttl, tags: tags}
	c.timers[k] = time.AfterFunc(ttl, func() { c.evict(k) })
}

// Get returns the cached value for key, or ok=false on a miss. An entry past
// its expiry is evicted and reported as a miss even if its timer has not
// fired yet.
func (c *Cache) Get(key string) (any, bool) {
	if !c.enabled {
		return nil, false
	}
	k := keyPrefix + key

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[k]
	if !ok {
		return nil, false
	}
	if e.expired(c.now()) {
		c.removeLocked(k)
		return nil, false
	}
	return e.data, true
}

// Delete removes key and cancels its timer. It reports whether an entry was
// removed.
func (c *Cache) Delete(key string) bool {
	if !c.enabled {
		return false
	}
	k := keyPrefix + key

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[k]; !ok {
		return false
	}
	c.removeLocked(k)
	return true
}

// InvalidateByTag removes every entry tagged with tag and returns the count.
func (c *Cache) InvalidateByTag(tag string) int {
	if !c.enabled {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for k, e := range c.entries {
		for _, t := range e.tags {
			if t == tag {
				c.removeLocked(k)
				count++
				break
			}
		}
	}
	return count
}

// InvalidateByPattern removes every entry whose resolved key matches the
// regular expression and returns the count.
func (c *Cache) InvalidateByPattern(pattern string) (int, error) {
	if !c.enabled {
		return 0, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for k := range c.entries {
		if re.MatchString(k) {
			c.removeLocked(k)
			count++
		}
	}
	return count, nil
}

// Clear removes all entries and cancels all timers.
func (c *Cache) Clear() {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for k := range c.entries {
		c.removeLocked(k)
	}
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Fetch is the read-through helper: on a hit it returns the cached value
// without calling fetch; on a miss it calls fetch, stores the result, and
// returns it. Concurrent misses for the same key are not deduplicated, so
// the fetcher may run more than once for one key (known limitation).
func (c *Cache) Fetch(key string, ttl time.Duration, tags []string, fetch func() (any, error)) (any, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := fetch()
	if err != nil {
		return nil, err
	}
	c.Set(key, v, ttl, tags...)
	return v, nil
}

// evict is the timer callback: it removes k only if its entry has actually
// expired, so a Set that replaced the entry after scheduling is preserved.
func (c *Cache) evict(k string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[k]; ok && e.expired(c.now()) {
		c.removeLocked(k)
	}
}

// removeLocked deletes an entry and stops its timer. Caller holds c.mu.
func (c *Cache) removeLocked(k string) {
	delete(c.entries, k)
	if t, ok := c.timers[k]; ok {
		t.Stop()
		delete(c.timers, k)
	}
}
