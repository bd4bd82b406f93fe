package lineindex

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Source is the byte range provider an Index scans.
type Source interface {
	// Len returns the total byte length.
	Len() int64
	// Slice returns bytes in [start, end), clamped to [0, Len()].
	Slice(start, end int64) []byte
}

// Index is an incrementally built line-start index over a Source.
type Index struct {
	// scanMu serializes chunk scans so a chunk is never scanned twice.
	scanMu sync.Mutex

	// mu guards the fields below.
	mu            sync.Mutex
	offsets       []int64
	indexedUpTo   int64
	newlines      uint64
	avgLineLength int64

	src       Source
	length    int64
	chunkSize int64
	logger    zerolog.Logger
}

// New creates an empty index over src. Nothing is scanned until a lookup
// needs it.
func New(src Source, opts ...Option) *Index {
	idx := &Index{
		offsets:       []int64{0},
		avgLineLength: defaultAvgLineLength,
		src:           src,
		length:        src.Len(),
		chunkSize:     DefaultChunkSize,
		logger:        zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(idx)
	}

	return idx
}

// EnsureIndexedToLine scans until the start of line n is known or the source
// is exhausted.
func (idx *Index) EnsureIndexedToLine(n uint64) {
	for {
		idx.mu.Lock()
		done := uint64(len(idx.offsets)) > n || idx.indexedUpTo >= idx.length
		idx.mu.Unlock()
		if done {
			return
		}
		idx.Advance()
	}
}

// EnsureIndexedToByte scans until pos is covered or the source is exhausted.
func (idx *Index) EnsureIndexedToByte(pos int64) {
	for {
		idx.mu.Lock()
		done := idx.indexedUpTo >= pos || idx.indexedUpTo >= idx.length
		idx.mu.Unlock()
		if done {
			return
		}
		idx.Advance()
	}
}

// Advance scans one chunk starting at the current scan position.
// It returns false once the source is fully indexed.
func (idx *Index) Advance() bool {
	idx.scanMu.Lock()
	defer idx.scanMu.Unlock()

	idx.mu.Lock()
	start := idx.indexedUpTo
	idx.mu.Unlock()

	if start >= idx.length {
		return false
	}

	end := start + idx.chunkSize
	if end > idx.length {
		end = idx.length
	}

	chunk := idx.src.Slice(start, end)
	var starts []int64
	for i := 0; i < len(chunk); {
		j := bytes.IndexByte(chunk[i:], '\n')
		if j < 0 {
			break
		}
		i += j + 1
		starts = append(starts, start+int64(i))
	}

	// A source shorter than recorded ends the scan where its bytes end.
	scanned := start + int64(len(chunk))
	if len(chunk) == 0 || scanned < end {
		idx.logger.Warn().
			Int64("expected", end).
			Int64("got", scanned).
			Msg("source shorter than recorded length; treating index as complete")
		end = idx.length
	}

	idx.mu.Lock()
	idx.offsets = append(idx.offsets, starts...)
	idx.indexedUpTo = end
	if len(starts) > 0 {
		idx.newlines += uint64(len(starts))
		idx.avgLineLength = idx.indexedUpTo / int64(idx.newlines)
	}
	more := idx.indexedUpTo < idx.length
	idx.mu.Unlock()

	idx.logger.Debug().
		Int64("indexed_up_to", end).
		Int("lines_found", len(starts)).
		Msg("indexed chunk")

	return more
}

// IndexAll advances until the source is fully indexed or ctx is done.
// progress, if non-nil, is called after every chunk with a value in [0, 1].
func (idx *Index) IndexAll(ctx context.Context, progress func(float64)) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		more := idx.Advance()
		if progress != nil {
			progress(idx.Progress())
		}
		if !more {
			return nil
		}
	}
}

// LineOffset returns the byte offset at which line n starts.
// It returns false if the line does not exist.
func (idx *Index) LineOffset(n uint64) (int64, bool) {
	idx.EnsureIndexedToLine(n + 1)

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if n >= uint64(len(idx.offsets)) {
		return 0, false
	}
	return idx.offsets[n], true
}

// LineRange returns the byte range of line n without its newline.
// It returns false if the line does not exist.
func (idx *Index) LineRange(n uint64) (start, end int64, ok bool) {
	idx.EnsureIndexedToLine(n + 1)

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if n >= uint64(len(idx.offsets)) {
		return 0, 0, false
	}
	start = idx.offsets[n]
	if n+1 < uint64(len(idx.offsets)) {
		return start, idx.offsets[n+1] - 1, true
	}
	return start, idx.length, true
}

// FindLineForByte returns the line containing byte pos: the greatest i with
// offsets[i] <= pos. Positions past the end resolve to the last line.
func (idx *Index) FindLineForByte(pos int64) uint64 {
	idx.EnsureIndexedToByte(pos)

	idx.mu.Lock()
	defer idx.mu.Unlock()
	i := sort.Search(len(idx.offsets), func(i int) bool {
		return idx.offsets[i] > pos
	})
	if i == 0 {
		return 0
	}
	return uint64(i - 1)
}

// EstimateTotalLines returns the exact line count once fully indexed, and an
// extrapolation from the average line length before that.
//
// The text after the last newline counts as a line, so an empty source has
// one line and "a\n" has two.
func (idx *Index) EstimateTotalLines() uint64 {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	known := uint64(len(idx.offsets))
	if idx.indexedUpTo >= idx.length {
		return known
	}
	remaining := idx.length - idx.indexedUpTo
	return known + uint64(remaining/max(1, idx.avgLineLength))
}

// KnownLines returns the number of line starts discovered so far.
func (idx *Index) KnownLines() uint64 {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return uint64(len(idx.offsets))
}

// IndexedUpTo returns the byte position scanned so far.
func (idx *Index) IndexedUpTo() int64 {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.indexedUpTo
}

// Complete reports whether the whole source has been scanned.
func (idx *Index) Complete() bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.indexedUpTo >= idx.length
}

// Progress returns the scanned fraction of the source in [0, 1].
func (idx *Index) Progress() float64 {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.length == 0 {
		return 1
	}
	return float64(idx.indexedUpTo) / float64(idx.length)
}

// Offsets returns a copy of the known line-start offsets.
func (idx *Index) Offsets() []int64 {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	out := make([]int64, len(idx.offsets))
	copy(out, idx.offsets)
	return out
}

// Len returns the source length the index was built against.
func (idx *Index) Len() int64 {
	return idx.length
}
