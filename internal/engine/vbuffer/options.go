package vbuffer

import (
	"github.com/dshills/lazyline/internal/engine/lineindex"
	"github.com/rs/zerolog"
)

// Option configures a Buffer.
type Option func(*Buffer)

// WithCacheConfig sets the decoded-line cache configuration.
func WithCacheConfig(config CacheConfig) Option {
	return func(b *Buffer) {
		b.cacheConfig = config
	}
}

// WithCacheCapacity sets the maximum number of cached decoded lines.
func WithCacheCapacity(lines int) Option {
	return func(b *Buffer) {
		b.cacheConfig.MaxCachedLines = lines
	}
}

// WithEvictionBatch sets how many cached lines are dropped on overflow.
func WithEvictionBatch(lines int) Option {
	return func(b *Buffer) {
		b.cacheConfig.EvictionBatchSize = lines
	}
}

// WithChunkSize sets the number of bytes the line index scans per step.
func WithChunkSize(size int64) Option {
	return func(b *Buffer) {
		b.indexOpts = append(b.indexOpts, lineindex.WithChunkSize(size))
	}
}

// WithLogger sets the logger for the buffer and its line index.
func WithLogger(logger zerolog.Logger) Option {
	return func(b *Buffer) {
		b.logger = logger
	}
}
