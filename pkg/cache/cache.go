// Package cache holds a small in-memory TTL+LRU cache. The app uses it to
// remember generated animation code for repeated query/quality pairs so a
// resubmitted prompt skips the code-generation call.
package cache

import (
	"container/list"
	"hash/fnv"
	"sync"
	"time"
)

type entry struct {
	key  string
	val  any
	exp  time.Time // zero = no expiry
	elem *list.Element
}

// Cache is safe for concurrent use. MRU entries sit at the front of order.
type Cache struct {
	mu       sync.Mutex
	items    map[string]*entry
	order    *list.List
	maxItems int // 0 = unlimited
}

var (
	defaultCache *Cache
	once         sync.Once
	defaultMax   = 500
)

// Default returns a process-wide cache instance with a background janitor.
func Default() *Cache {
	once.Do(func() {
		defaultCache = &Cache{items: make(map[string]*entry), order: list.New(), maxItems: defaultMax}
		go defaultCache.janitor(60 * time.Second)
	})
	return defaultCache
}

// Get returns the value for key if present and not expired.
func (c *Cache) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		c.removeLocked(key)
		return nil, false
	}
	c.order.MoveToFront(e.elem)
	return e.val, true
}

// Set stores a value with ttl. ttl<=0 means no expiry.
func (c *Cache) Set(key string, v any, ttl time.Duration) {
	if c == nil {
		return
	}
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.items[key]; ok {
		e.val = v
		e.exp = exp
		c.order.MoveToFront(e.elem)
		return
	}
	e := &entry{key: key, val: v, exp: exp}
	e.elem = c.order.PushFront(e)
	c.items[key] = e
	for c.maxItems > 0 && c.order.Len() > c.maxItems {
		c.evictLRULocked()
	}
}

// Delete removes a key.
func (c *Cache) Delete(key string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.removeLocked(key)
	c.mu.Unlock()
}

// SetMaxItems updates capacity for the default cache. Safe to call at startup.
func SetMaxItems(n int) {
	if n <= 0 {
		n = 0 // unlimited
	}
	c := Default()
	c.mu.Lock()
	c.maxItems = n
	for c.maxItems > 0 && c.order.Len() > c.maxItems {
		c.evictLRULocked()
	}
	c.mu.Unlock()
}

// KeyFromStrings creates a compact stable key from parts.
func KeyFromStrings(parts ...string) string {
	h := fnv.New64a()
	for _, p := range parts {
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(p))
	}
	return string(h.Sum(nil))
}

func (c *Cache) janitor(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for range t.C {
		now := time.Now()
		c.mu.Lock()
		for k, e := range c.items {
			if !e.exp.IsZero() && now.After(e.exp) {
				c.removeLocked(k)
			}
		}
		c.mu.Unlock()
	}
}

func (c *Cache) removeLocked(key string) {
	if e, ok := c.items[key]; ok {
		c.order.Remove(e.elem)
		delete(c.items, key)
	}
}

func (c *Cache) evictLRULocked() {
	back := c.order.Back()
	if back == nil {
		return
	}
	e := back.Value.(*entry)
	c.order.Remove(back)
	delete(c.items, e.key)
}
