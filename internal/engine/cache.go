package engine

import (
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/go-arborium/arborium/internal/grammar"
)

const (
	defaultCacheEntries  = 5000
	defaultCacheMaxBytes = 256 * 1024 * 1024
	minEstimatedBytes    = 4 * 1024
)

// CacheStats tracks basic cache counters for the parse-result cache.
type CacheStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
}

type cacheEntry struct {
	result         grammar.ParseResult
	estimatedBytes int64
}

// ParseCache memoizes a language's ParseResult by a hash of its source
// bytes, so re-highlighting an unchanged buffer (or an injected span
// whose content hasn't moved) skips the tree-sitter query pass entirely.
// Modeled on the teacher's tree cache (byte-budget LRU eviction,
// invalidate-by-key), swapped from caching *tree_sitter.Tree values to
// caching the already-extracted ParseResult, and from fnv to xxhash for
// the key digest.
type ParseCache struct {
	mu         sync.Mutex
	entries    *lru.Cache[uint64, *cacheEntry]
	maxEntries int
	maxBytes   int64

	totalBytes atomic.Int64
	hits       atomic.Int64
	misses     atomic.Int64
	evictions  atomic.Int64

	closed bool
}

// DefaultCacheLimits returns the default entry count and byte budget.
func DefaultCacheLimits() (maxEntries int, maxBytes int64) {
	return defaultCacheEntries, defaultCacheMaxBytes
}

// NewParseCache creates a cache with the given limits; non-positive
// values fall back to the defaults.
func NewParseCache(maxEntries int, maxBytes int64) *ParseCache {
	if maxEntries <= 0 {
		maxEntries = defaultCacheEntries
	}
	if maxBytes <= 0 {
		maxBytes = defaultCacheMaxBytes
	}

	c := &ParseCache{maxEntries: maxEntries, maxBytes: maxBytes}
	c.entries, _ = lru.NewWithEvict[uint64, *cacheEntry](maxEntries, c.onEvicted)
	return c
}

// CacheKey hashes a language plus its source bytes into one lookup key.
// The language tag is mixed in so identical source under two grammars
// (e.g. a CSS injection body that happens to read like valid SCSS) never
// collide.
func CacheKey(language string, source []byte) uint64 {
	h := xxhash.New()
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(language)))
	h.Write(lenBuf[:])
	h.Write([]byte(language))
	h.Write(source)
	return h.Sum64()
}

func estimateBytes(result grammar.ParseResult) int64 {
	est := int64(len(result.Spans))*48 + int64(len(result.Injections))*64
	if est < minEstimatedBytes {
		return minEstimatedBytes
	}
	return est
}

// Get retrieves a cached ParseResult. The returned slices are shared with
// the cache entry; callers must not mutate them in place.
func (c *ParseCache) Get(key uint64) (grammar.ParseResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries.Get(key)
	if !ok || entry == nil {
		c.misses.Add(1)
		return grammar.ParseResult{}, false
	}
	c.hits.Add(1)
	return entry.result, true
}

// Put stores a ParseResult, evicting the oldest entries until the cache
// is back under its byte budget.
func (c *ParseCache) Put(key uint64, result grammar.ParseResult) {
	estimated := estimateBytes(result)
	entry := &cacheEntry{result: result, estimatedBytes: estimated}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	if c.entries.Contains(key) {
		// Remove fires onEvicted, which subtracts the old entry's bytes.
		c.entries.Remove(key)
	}

	c.totalBytes.Add(estimated)
	c.entries.Add(key, entry)

	for c.totalBytes.Load() > c.maxBytes && c.entries.Len() > 0 {
		c.entries.RemoveOldest()
	}
}

// Invalidate removes a single entry, used when a document's edit
// supersedes a previously cached parse (§6 cache invalidation).
func (c *ParseCache) Invalidate(key uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.entries.Remove(key)
}

// Clear empties the cache.
func (c *ParseCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.entries.Purge()
}

// TotalBytes returns the cache's current estimated memory usage.
func (c *ParseCache) TotalBytes() int64 {
	return c.totalBytes.Load()
}

// Stats returns a snapshot of the cache counters.
func (c *ParseCache) Stats() CacheStats {
	return CacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

// Close purges the cache; it remains safe to call but becomes a no-op
// store afterward.
func (c *ParseCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.entries.Purge()
	c.closed = true
	return nil
}

func (c *ParseCache) onEvicted(_ uint64, entry *cacheEntry) {
	if entry == nil {
		return
	}
	c.evictions.Add(1)
	c.totalBytes.Add(-entry.estimatedBytes)
}
