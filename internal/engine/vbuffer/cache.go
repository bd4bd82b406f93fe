package vbuffer

import "sync/atomic"

// CacheConfig configures the decoded-line cache.
type CacheConfig struct {
	// MaxCachedLines is the maximum number of decoded lines to keep.
	MaxCachedLines int

	// EvictionBatchSize is the number of entries dropped once the cache overflows.
	EvictionBatchSize int
}

// DefaultCacheConfig returns the default cache configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		MaxCachedLines:    2000,
		EvictionBatchSize: 500,
	}
}

// CacheStats holds cache statistics.
type CacheStats struct {
	Size      int
	MaxSize   int
	Hits      uint64
	Misses    uint64
	Evictions uint64
	HitRate   float64
}

// lineCache holds decoded physical lines. Eviction drops the oldest
// inserted entries in batches. Callers serialize access; only the
// counters are safe to read concurrently.
type lineCache struct {
	config  CacheConfig
	entries map[uint64]string
	// order records insertion order; keys removed out of band stay here
	// until eviction or compaction skips them.
	order []uint64

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
	size      atomic.Int64
}

func newLineCache(config CacheConfig) *lineCache {
	def := DefaultCacheConfig()
	if config.MaxCachedLines <= 0 {
		config.MaxCachedLines = def.MaxCachedLines
	}
	if config.EvictionBatchSize <= 0 {
		config.EvictionBatchSize = def.EvictionBatchSize
	}
	if config.EvictionBatchSize > config.MaxCachedLines {
		config.EvictionBatchSize = config.MaxCachedLines
	}
	return &lineCache{
		config:  config,
		entries: make(map[uint64]string),
	}
}

func (c *lineCache) get(line uint64) (string, bool) {
	text, ok := c.entries[line]
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return text, ok
}

func (c *lineCache) put(line uint64, text string) {
	if _, ok := c.entries[line]; !ok {
		c.order = append(c.order, line)
	}
	c.entries[line] = text
	c.evictIfNeeded()
	c.size.Store(int64(len(c.entries)))
}

func (c *lineCache) remove(line uint64) {
	delete(c.entries, line)
	c.size.Store(int64(len(c.entries)))
}

func (c *lineCache) clear() {
	clear(c.entries)
	c.order = c.order[:0]
	c.size.Store(0)
}

func (c *lineCache) evictIfNeeded() {
	if len(c.entries) <= c.config.MaxCachedLines {
		if len(c.order) > 2*c.config.MaxCachedLines {
			c.compact()
		}
		return
	}

	evicted := 0
	i := 0
	for ; i < len(c.order) && evicted < c.config.EvictionBatchSize; i++ {
		line := c.order[i]
		if _, ok := c.entries[line]; !ok {
			continue
		}
		delete(c.entries, line)
		evicted++
	}
	c.order = append(c.order[:0], c.order[i:]...)
	c.evictions.Add(uint64(evicted))
}

// compact drops stale keys from the insertion order.
func (c *lineCache) compact() {
	seen := make(map[uint64]struct{}, len(c.entries))
	out := c.order[:0]
	for _, line := range c.order {
		if _, ok := c.entries[line]; !ok {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	c.order = out
}

func (c *lineCache) stats() CacheStats {
	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return CacheStats{
		Size:      int(c.size.Load()),
		MaxSize:   c.config.MaxCachedLines,
		Hits:      hits,
		Misses:    misses,
		Evictions: c.evictions.Load(),
		HitRate:   hitRate,
	}
}
