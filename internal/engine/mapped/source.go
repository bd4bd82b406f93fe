package mapped

import (
	"os"
	"sync"
)

// Source is a read-only memory-mapped file.
// Slice is safe for concurrent use.
type Source struct {
	mu     sync.RWMutex
	path   string
	file   *os.File
	length int64
	region region
	closed bool
}

// region is the platform mapping behind a Source.
type region interface {
	slice(start, end int64) []byte
	unmap() error
}

// Open opens path read-only and maps its full current length.
// A zero-length file yields a valid Source with no mapping.
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &OpenError{Path: path, Op: "open", Err: err}
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &OpenError{Path: path, Op: "stat", Err: err}
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, &OpenError{Path: path, Op: "open", Err: ErrNotRegular}
	}

	s := &Source{
		path:   path,
		file:   f,
		length: info.Size(),
	}

	if s.length > 0 {
		r, err := mapFile(f, s.length)
		if err != nil {
			f.Close()
			return nil, &OpenError{Path: path, Op: "mmap", Err: err}
		}
		s.region = r
	}

	return s, nil
}

// Path returns the path the Source was opened with.
func (s *Source) Path() string {
	return s.path
}

// Len returns the byte length recorded at open time.
func (s *Source) Len() int64 {
	return s.length
}

// Slice returns a copy of the bytes in [start, end), each bound clamped into
// [0, Len()]. The result is empty when start >= end after clamping, and
// shorter than the range when the file was truncated after Open.
func (s *Source) Slice(start, end int64) []byte {
	start = clamp(start, 0, s.length)
	end = clamp(end, 0, s.length)
	if start >= end {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed || s.region == nil {
		return nil
	}
	return s.region.slice(start, end)
}

// Close releases the mapping and the file handle. It is idempotent.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	if s.region != nil {
		err = s.region.unmap()
		s.region = nil
	}
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	return err
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
