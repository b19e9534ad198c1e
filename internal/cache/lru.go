// Package cache provides a byte-bounded LRU for rendered page thumbnails.
package cache

import (
	"container/list"
	"sync"
)

// DefaultMaxBytes bounds the thumbnail cache at 100 MB unless configured
// otherwise.
const DefaultMaxBytes = 100 * 1024 * 1024

type entry struct {
	key  string
	data []byte
}

// LRU is a thread-safe least-recently-used cache bounded by total payload
// bytes rather than entry count, since thumbnail sizes vary with page
// dimensions.
type LRU struct {
	mu       sync.Mutex
	maxBytes int64
	curBytes int64
	order    *list.List
	items    map[string]*list.Element
	hits     uint64
	misses   uint64
}

// NewLRU creates a cache bounded at maxBytes. Non-positive values fall back
// to DefaultMaxBytes.
func NewLRU(maxBytes int64) *LRU {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &LRU{
		maxBytes: maxBytes,
		order:    list.New(),
		items:    make(map[string]*list.Element),
	}
}

// Get returns the cached payload and marks the entry most recently used.
func (c *LRU) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.order.MoveToFront(el)
	return el.Value.(*entry).data, true
}

// Put stores a payload, evicting least-recently-used entries until the cache
// fits its byte bound. Payloads larger than the bound are not cached.
func (c *LRU) Put(key string, data []byte) {
	if int64(len(data)) > c.maxBytes {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		old := el.Value.(*entry)
		c.curBytes += int64(len(data)) - int64(len(old.data))
		old.data = data
		c.order.MoveToFront(el)
	} else {
		el := c.order.PushFront(&entry{key: key, data: data})
		c.items[key] = el
		c.curBytes += int64(len(data))
	}

	for c.curBytes > c.maxBytes {
		c.evictOldest()
	}
}

// Remove drops one entry if present.
func (c *LRU) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.removeElement(el)
	}
}

// Clear drops every entry.
func (c *LRU) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.items = make(map[string]*list.Element)
	c.curBytes = 0
}

// Len returns the number of cached entries.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// SizeBytes returns the total cached payload size.
func (c *LRU) SizeBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.curBytes
}

// Stats reports hit and miss counts since creation.
func (c *LRU) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *LRU) evictOldest() {
	el := c.order.Back()
	if el != nil {
		c.removeElement(el)
	}
}

func (c *LRU) removeElement(el *list.Element) {
	e := el.Value.(*entry)
	c.order.Remove(el)
	delete(c.items, e.key)
	c.curBytes -= int64(len(e.data))
}
