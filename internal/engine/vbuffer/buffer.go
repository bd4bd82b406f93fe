package vbuffer

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/dshills/lazyline/internal/engine/lineindex"
	"github.com/dshills/lazyline/internal/engine/overlay"
	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/unicode"
)

// Buffer is a line-addressed view of a Source plus unsaved edits.
type Buffer struct {
	mu sync.Mutex

	src     lineindex.Source
	index   *lineindex.Index
	overlay *overlay.Overlay
	lines   lineMap
	cache   *lineCache

	cacheConfig CacheConfig
	indexOpts   []lineindex.Option
	logger      zerolog.Logger
}

// New creates a buffer over src. Nothing is read until a line is requested.
func New(src lineindex.Source, opts ...Option) *Buffer {
	b := &Buffer{
		src:         src,
		overlay:     overlay.New(),
		lines:       newLineMap(),
		cacheConfig: DefaultCacheConfig(),
		logger:      zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(b)
	}

	b.indexOpts = append(b.indexOpts, lineindex.WithLogger(b.logger))
	b.index = lineindex.New(src, b.indexOpts...)
	b.cache = newLineCache(b.cacheConfig)

	return b
}

// Index returns the line index so callers can advance it in the background.
func (b *Buffer) Index() *lineindex.Index {
	return b.index
}

// EstimateLineCount returns the logical line count. It is exact once the
// index is complete and never less than 1.
func (b *Buffer) EstimateLineCount() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lineCountLocked()
}

// LineCount returns the exact logical line count. It indexes the whole file.
func (b *Buffer) LineCount() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.exactLineCountLocked()
}

// Line returns the text of logical line n without its newline, or "" if the
// line does not exist.
func (b *Buffer) Line(n uint64) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lineLocked(n)
}

// Lines returns up to count consecutive lines starting at start. Lines past
// the end of the document are returned as "".
func (b *Buffer) Lines(start uint64, count int) []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, 0, max(count, 0))
	for i := 0; i < count; i++ {
		out = append(out, b.lineLocked(start+uint64(i)))
	}
	return out
}

// LineLen returns the length of line n in runes.
func (b *Buffer) LineLen(n uint64) int {
	return utf8.RuneCountInString(b.Line(n))
}

// HasLine reports whether logical line n exists. It may index the file as
// far as line n.
func (b *Buffer) HasLine(n uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.existsLocked(n)
}

// SetLine replaces the text of line n. Lines past the end are ignored.
func (b *Buffer) SetLine(n uint64, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.existsLocked(n) {
		return
	}
	b.setLocked(n, text)
}

// InsertText splices text into line n at rune column col, clamped to the
// line. Newlines in text split the line. It returns the position just after
// the inserted text.
func (b *Buffer) InsertText(n uint64, col int, text string) (uint64, int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.existsLocked(n) {
		return n, col
	}

	line := []rune(b.lineLocked(n))
	col = clampColumn(col, len(line))
	before, after := string(line[:col]), string(line[col:])

	parts := strings.Split(text, "\n")
	if len(parts) == 1 {
		b.setLocked(n, before+text+after)
		return n, col + utf8.RuneCountInString(text)
	}

	b.setLocked(n, before+parts[0])
	last := len(parts) - 1
	for i := 1; i < last; i++ {
		b.insertLineLocked(n+uint64(i), parts[i])
	}
	b.insertLineLocked(n+uint64(last), parts[last]+after)

	return n + uint64(last), utf8.RuneCountInString(parts[last])
}

// DeleteText removes the runes in [start, end) from line n. Both columns are
// clamped to the line. The line is rewritten even when the clamped range is
// empty, so the buffer becomes dirty.
func (b *Buffer) DeleteText(n uint64, start, end int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.existsLocked(n) {
		return
	}

	line := []rune(b.lineLocked(n))
	start = clampColumn(start, len(line))
	end = max(start, clampColumn(end, len(line)))
	b.setLocked(n, string(line[:start])+string(line[end:]))
}

// SplitLine breaks line n at rune column col. Line n keeps the text before
// col and a new line n+1 receives the rest; later lines move down by one.
func (b *Buffer) SplitLine(n uint64, col int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.existsLocked(n) {
		return
	}

	line := []rune(b.lineLocked(n))
	col = clampColumn(col, len(line))
	b.setLocked(n, string(line[:col]))
	b.insertLineLocked(n+1, string(line[col:]))
}

// JoinLines appends line n+1 to line n and removes line n+1. It returns the
// column of the join point, or false if line n+1 does not exist.
func (b *Buffer) JoinLines(n uint64) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.existsLocked(n) || !b.existsLocked(n+1) {
		return 0, false
	}

	head := b.lineLocked(n)
	tail := b.lineLocked(n + 1)
	b.deleteLineLocked(n + 1)
	b.setLocked(n, head+tail)

	return utf8.RuneCountInString(head), true
}

// InsertLine inserts a new line with text before line n. Positions past the
// end append to the document.
func (b *Buffer) InsertLine(n uint64, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.insertLineLocked(n, text)
}

// DeleteLine removes line n. Deleting the only line empties it instead.
// It returns false if line n does not exist.
func (b *Buffer) DeleteLine(n uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.existsLocked(n) {
		return false
	}
	if n == 0 && !b.existsLocked(1) {
		b.setLocked(0, "")
		return true
	}
	b.deleteLineLocked(n)
	return true
}

// IsDirty reports whether the buffer has edits since the last MarkClean.
func (b *Buffer) IsDirty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.overlay.IsDirty()
}

// MarkClean clears the dirty flag. Edits stay in place.
func (b *Buffer) MarkClean() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.overlay.MarkClean()
}

// EditedLines returns the logical line numbers that carry overlay text.
func (b *Buffer) EditedLines() []uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.overlay.Lines()
}

// CacheStats returns decoded-line cache statistics.
func (b *Buffer) CacheStats() CacheStats {
	return b.cache.stats()
}

// ClearCache drops every decoded line. Edits are unaffected.
func (b *Buffer) ClearCache() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cache.clear()
}

func (b *Buffer) lineCountLocked() uint64 {
	n := int64(b.index.EstimateTotalLines()) + b.lines.delta()
	if n < 1 {
		return 1
	}
	return uint64(n)
}

func (b *Buffer) exactLineCountLocked() uint64 {
	b.index.EnsureIndexedToByte(b.index.Len())
	return b.lineCountLocked()
}

func (b *Buffer) lineLocked(n uint64) string {
	if text, ok := b.overlay.Get(n); ok {
		return text
	}
	phys, synthetic := b.lines.resolve(n)
	if synthetic {
		return ""
	}
	return b.physicalLine(phys)
}

func (b *Buffer) physicalLine(p uint64) string {
	if text, ok := b.cache.get(p); ok {
		return text
	}
	start, end, ok := b.index.LineRange(p)
	if !ok {
		return ""
	}
	text := decode(b.src.Slice(start, end))
	b.cache.put(p, text)
	return text
}

func (b *Buffer) existsLocked(n uint64) bool {
	phys, synthetic := b.lines.resolve(n)
	if synthetic {
		return true
	}
	_, _, ok := b.index.LineRange(phys)
	return ok
}

func (b *Buffer) setLocked(n uint64, text string) {
	b.overlay.Set(n, text)
	if phys, synthetic := b.lines.resolve(n); !synthetic {
		b.cache.remove(phys)
	}
}

func (b *Buffer) insertLineLocked(at uint64, text string) {
	if at > 0 && !b.existsLocked(at-1) {
		at = b.exactLineCountLocked()
	}
	b.overlay.InsertLines(at, 1)
	b.lines.insert(at)
	b.overlay.Set(at, text)
}

func (b *Buffer) deleteLineLocked(at uint64) {
	b.overlay.DeleteLines(at, 1)
	b.lines.remove(at)
}

// decode converts raw line bytes to a string. Each byte that is not part of
// a valid UTF-8 sequence becomes one U+FFFD.
func decode(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	out, err := unicode.UTF8.NewDecoder().Bytes(data)
	if err != nil {
		return strings.ToValidUTF8(string(data), string(utf8.RuneError))
	}
	return string(out)
}

func clampColumn(col, length int) int {
	if col < 0 {
		return 0
	}
	if col > length {
		return length
	}
	return col
}
