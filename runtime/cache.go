package runtime

import (
	"container/list"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/willibrandon/gores/observability"
	"github.com/willibrandon/gores/resources"
)

// ValueCache is an LRU cache of composed resource values with TTL and a
// byte budget. Values are stored as canonical JSON and decoded on every
// hit, so callers own what they get back.
type ValueCache struct {
	maxEntries int
	maxSize    int64
	ttl        time.Duration

	mu        sync.Mutex
	entries   map[string]*list.Element
	lruList   *list.List
	totalSize int64
}

type valueEntry struct {
	key    string
	data   []byte
	expiry time.Time
}

// CacheStats holds cache statistics.
type CacheStats struct {
	Entries   int
	SizeBytes int64
}

// NewValueCache creates a cache holding at most maxEntries values and
// maxSize bytes. A ttl of zero keeps values until they are evicted.
func NewValueCache(maxEntries int, maxSize int64, ttl time.Duration) *ValueCache {
	return &ValueCache{
		maxEntries: maxEntries,
		maxSize:    maxSize,
		ttl:        ttl,
		entries:    make(map[string]*list.Element),
		lruList:    list.New(),
	}
}

func (vc *ValueCache) get(key string) (map[string]any, bool) {
	vc.mu.Lock()
	elem, ok := vc.entries[key]
	if !ok {
		vc.mu.Unlock()
		return nil, false
	}
	ent := elem.Value.(*valueEntry)
	if !ent.expiry.IsZero() && time.Now().After(ent.expiry) {
		vc.removeElement(elem)
		vc.mu.Unlock()
		return nil, false
	}
	vc.lruList.MoveToFront(elem)
	data := ent.data
	vc.mu.Unlock()

	var value map[string]any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, false
	}
	return value, true
}

func (vc *ValueCache) set(key string, value map[string]any) error {
	data, err := resources.CanonicalJSON(value)
	if err != nil {
		return err
	}

	vc.mu.Lock()
	defer vc.mu.Unlock()

	var expiry time.Time
	if vc.ttl > 0 {
		expiry = time.Now().Add(vc.ttl)
	}
	if elem, ok := vc.entries[key]; ok {
		ent := elem.Value.(*valueEntry)
		vc.totalSize += int64(len(data) - len(ent.data))
		ent.data, ent.expiry = data, expiry
		vc.lruList.MoveToFront(elem)
	} else {
		vc.entries[key] = vc.lruList.PushFront(&valueEntry{key: key, data: data, expiry: expiry})
		vc.totalSize += int64(len(data))
	}
	vc.evictIfNeeded()
	return nil
}

// Clear removes all entries.
func (vc *ValueCache) Clear() {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	vc.entries = make(map[string]*list.Element)
	vc.lruList = list.New()
	vc.totalSize = 0
}

// Stats returns cache statistics.
func (vc *ValueCache) Stats() CacheStats {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	return CacheStats{Entries: len(vc.entries), SizeBytes: vc.totalSize}
}

// removeElement must be called with the lock held.
func (vc *ValueCache) removeElement(elem *list.Element) {
	ent := elem.Value.(*valueEntry)
	delete(vc.entries, ent.key)
	vc.lruList.Remove(elem)
	vc.totalSize -= int64(len(ent.data))
}

func (vc *ValueCache) evictIfNeeded() {
	for vc.lruList.Len() > vc.maxEntries {
		vc.removeElement(vc.lruList.Back())
	}
	for vc.totalSize > vc.maxSize && vc.lruList.Len() > 0 {
		vc.removeElement(vc.lruList.Back())
	}
}

// CachingResolver composes values for any context over one source and
// memoizes them in a ValueCache. Unlike ResourceResolver it is safe for
// concurrent use. Misses are serialized.
type CachingResolver struct {
	source ResourceSource
	cache  *ValueCache
	logger observability.Logger

	mu sync.Mutex
}

// NewCachingResolver creates a CachingResolver. The source must not change
// while the resolver is in use.
func NewCachingResolver(source ResourceSource, cache *ValueCache, logger observability.Logger) (*CachingResolver, error) {
	if source == nil {
		return nil, fmt.Errorf("resolver: source is required")
	}
	if cache == nil {
		return nil, fmt.Errorf("resolver: cache is required")
	}
	return &CachingResolver{source: source, cache: cache, logger: observability.OrNull(logger)}, nil
}

// Resolve returns the composed value of id for the context declared by decl.
// Failed resolutions are not cached.
func (c *CachingResolver) Resolve(ctx context.Context, decl map[string]string, id string) (map[string]any, error) {
	c.mu.Lock()
	validated, err := c.source.ValidateContext(decl)
	c.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("resolver: %w", err)
	}
	key := validated.String() + "\x00" + id
	if value, ok := c.cache.get(key); ok {
		observability.ResolverCacheTotal.WithLabelValues("value", observability.ResultHit).Inc()
		return value, nil
	}
	observability.ResolverCacheTotal.WithLabelValues("value", observability.ResultMiss).Inc()

	c.mu.Lock()
	defer c.mu.Unlock()
	r, err := NewResourceResolver(ResolverParams{Source: c.source, Context: decl, Logger: c.logger})
	if err != nil {
		return nil, err
	}
	value, err := r.ResolveComposedResourceValue(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.cache.set(key, value); err != nil {
		c.logger.Warn("Could not cache {ResourceID}: {Error}", id, err)
	}
	return value, nil
}
