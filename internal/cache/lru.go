// Package cache holds a small LRU of keys with per-entry expiry.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRU remembers keys, evicting the least recently used one beyond maxSize
// and treating keys older than ttl as absent. A zero ttl never expires.
type LRU struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	order   *list.List
	now     func() time.Time
}

type entry struct {
	key       string
	expiresAt time.Time
}

func NewLRU(maxSize int, ttl time.Duration) *LRU {
	if maxSize < 1 {
		maxSize = 1
	}
	return &LRU{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		order:   list.New(),
		now:     time.Now,
	}
}

// Add stores key unless a live entry exists, and reports whether it stored
// anything. A live key is refreshed as most recently used.
func (c *LRU) Add(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		if !c.expired(elem.Value.(*entry)) {
			c.order.MoveToFront(elem)
			return false
		}
		c.remove(elem)
	}

	e := &entry{key: key}
	if c.ttl > 0 {
		e.expiresAt = c.now().Add(c.ttl)
	}
	c.items[key] = c.order.PushFront(e)
	if c.order.Len() > c.maxSize {
		if oldest := c.order.Back(); oldest != nil {
			c.remove(oldest)
		}
	}
	return true
}

// CleanExpired drops every expired entry and returns how many it removed.
func (c *LRU) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var stale []*list.Element
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		if c.expired(elem.Value.(*entry)) {
			stale = append(stale, elem)
		}
	}
	for _, elem := range stale {
		c.remove(elem)
	}
	return len(stale)
}

// Size counts stored keys, including expired ones not yet cleaned.
func (c *LRU) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *LRU) expired(e *entry) bool {
	return c.ttl > 0 && c.now().After(e.expiresAt)
}

func (c *LRU) remove(elem *list.Element) {
	delete(c.items, elem.Value.(*entry).key)
	c.order.Remove(elem)
}
