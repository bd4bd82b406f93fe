package lineindex

import "github.com/rs/zerolog"

// DefaultChunkSize bounds the bytes scanned per step.
const DefaultChunkSize = 1_000_000

// defaultAvgLineLength is the line-length guess used before any newline has
// been seen.
const defaultAvgLineLength = 80

// Option configures an Index.
type Option func(*Index)

// WithChunkSize sets the number of bytes scanned per step.
func WithChunkSize(size int64) Option {
	return func(idx *Index) {
		if size > 0 {
			idx.chunkSize = size
		}
	}
}

// WithLogger sets the logger used for indexing progress.
func WithLogger(logger zerolog.Logger) Option {
	return func(idx *Index) {
		idx.logger = logger
	}
}
