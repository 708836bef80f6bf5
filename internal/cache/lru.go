package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRU is a size bounded cache with idle expiry. Entries can be pinned while
// in use; pinned entries are never evicted or expired, so the cache may
// briefly exceed maxSize when everything is pinned.
type LRU[K comparable, V any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[K]*list.Element
	lru     *list.List
	onEvict func(K, V)
	now     func() time.Time
}

type entry[K comparable, V any] struct {
	key      K
	data     V
	lastUsed time.Time
	pins     int
}

// NewLRU creates a cache holding at most maxSize entries. A zero ttl disables
// idle expiry. onEvict, when set, runs for every entry that leaves the cache.
func NewLRU[K comparable, V any](maxSize int, ttl time.Duration, onEvict func(K, V)) *LRU[K, V] {
	if maxSize < 1 {
		maxSize = 1
	}
	return &LRU[K, V]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[K]*list.Element),
		lru:     list.New(),
		onEvict: onEvict,
		now:     time.Now,
	}
}

func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lookup(key)
	if !ok {
		var zero V
		return zero, false
	}
	return e.data, true
}

// Pin returns the entry for key and marks it in use until Unpin.
func (c *LRU[K, V]) Pin(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lookup(key)
	if !ok {
		var zero V
		return zero, false
	}
	e.pins++
	return e.data, true
}

func (c *LRU[K, V]) Unpin(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.items[key]
	if !ok {
		return
	}
	e := elem.Value.(*entry[K, V])
	if e.pins > 0 {
		e.pins--
	}
	e.lastUsed = c.now()
	c.evictOverflow()
}

func (c *LRU[K, V]) Set(key K, data V) {
	c.set(key, data, 0)
}

// SetPinned stores data and pins it in one step.
func (c *LRU[K, V]) SetPinned(key K, data V) {
	c.set(key, data, 1)
}

func (c *LRU[K, V]) set(key K, data V, pins int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		e := elem.Value.(*entry[K, V])
		e.data = data
		e.pins += pins
		e.lastUsed = c.now()
		c.lru.MoveToFront(elem)
		return
	}

	elem := c.lru.PushFront(&entry[K, V]{key: key, data: data, lastUsed: c.now(), pins: pins})
	c.items[key] = elem
	c.evictOverflow()
}

// CleanExpired drops idle unpinned entries and returns how many were removed.
func (c *LRU[K, V]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ttl <= 0 {
		return 0
	}

	now := c.now()
	var stale []*list.Element
	for elem := c.lru.Front(); elem != nil; elem = elem.Next() {
		e := elem.Value.(*entry[K, V])
		if e.pins == 0 && now.Sub(e.lastUsed) > c.ttl {
			stale = append(stale, elem)
		}
	}
	for _, elem := range stale {
		c.evict(elem)
	}
	return len(stale)
}

func (c *LRU[K, V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *LRU[K, V]) lookup(key K) (*entry[K, V], bool) {
	elem, ok := c.items[key]
	if !ok {
		return nil, false
	}
	e := elem.Value.(*entry[K, V])
	if e.pins == 0 && c.ttl > 0 && c.now().Sub(e.lastUsed) > c.ttl {
		c.evict(elem)
		return nil, false
	}
	e.lastUsed = c.now()
	c.lru.MoveToFront(elem)
	return e, true
}

// evictOverflow removes unpinned entries from the cold end until the cache
// fits or only pinned entries remain.
func (c *LRU[K, V]) evictOverflow() {
	for elem := c.lru.Back(); elem != nil && c.lru.Len() > c.maxSize; {
		prev := elem.Prev()
		if elem.Value.(*entry[K, V]).pins == 0 {
			c.evict(elem)
		}
		elem = prev
	}
}

func (c *LRU[K, V]) evict(elem *list.Element) {
	e := elem.Value.(*entry[K, V])
	delete(c.items, e.key)
	c.lru.Remove(elem)
	if c.onEvict != nil {
		c.onEvict(e.key, e.data)
	}
}
