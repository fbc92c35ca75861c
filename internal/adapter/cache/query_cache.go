package cache

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"
	"time"

	"careerpath/internal/domain"
)

// QueryCache is an in-process LRU of job searches with a TTL. Entries written
// before the last Invalidate are never returned.
type QueryCache struct {
	mu      sync.Mutex
	lru     *list.List
	items   map[string]*list.Element
	maxSize int
	ttl     time.Duration
	gen     uint64
	now     func() time.Time
}

type cacheEntry struct {
	key      string
	matches  domain.JobMatches
	storedAt time.Time
	gen      uint64
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache{
		lru:     list.New(),
		items:   make(map[string]*list.Element, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// cacheKey is shared with the Redis cache so both backends agree on identity.
func cacheKey(query string, topK int) string {
	sum := sha256.Sum256([]byte(strconv.Itoa(topK) + "\x00" + query))
	return hex.EncodeToString(sum[:16])
}

// expired reports whether e outlived its TTL or predates an Invalidate.
// Callers hold c.mu.
func (c *QueryCache) expired(e *cacheEntry) bool {
	return e.gen != c.gen || c.now().Sub(e.storedAt) > c.ttl
}

func (c *QueryCache) Get(ctx context.Context, query string, topK int) (domain.JobMatches, bool) {
	key := cacheKey(query, topK)

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return domain.JobMatches{}, false
	}
	entry := el.Value.(*cacheEntry)
	if c.expired(entry) {
		c.remove(el)
		return domain.JobMatches{}, false
	}
	c.lru.MoveToFront(el)
	return entry.matches, true
}

func (c *QueryCache) Put(ctx context.Context, query string, topK int, matches domain.JobMatches) {
	key := cacheKey(query, topK)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &cacheEntry{key: key, matches: matches, storedAt: c.now(), gen: c.gen}
	if el, ok := c.items[key]; ok {
		el.Value = entry
		c.lru.MoveToFront(el)
		return
	}

	for c.lru.Len() >= c.maxSize {
		c.remove(c.lru.Back())
	}
	c.items[key] = c.lru.PushFront(entry)
}

// Invalidate drops every entry. Called after the job index is rebuilt.
func (c *QueryCache) Invalidate(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Init()
	clear(c.items)
	c.gen++
}

// Size returns the number of stored entries, expired ones included.
func (c *QueryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func (c *QueryCache) remove(el *list.Element) {
	c.lru.Remove(el)
	delete(c.items, el.Value.(*cacheEntry).key)
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string, int) (domain.JobMatches, bool) {
	return domain.JobMatches{}, false
}

func (Nop) Put(context.Context, string, int, domain.JobMatches) {}

func (Nop) Invalidate(context.Context) {}
