package app

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-enry/go-enry/v2"
	"github.com/rs/zerolog"

	"github.com/dshills/lazyline/internal/engine/mapped"
	"github.com/dshills/lazyline/internal/engine/vbuffer"
)

// languageSample is how much of the file language detection looks at.
const languageSample = 16 << 10

// progressInterval limits how often background indexing reports progress.
const progressInterval = 100 * time.Millisecond

// DocumentOptions configures how a document's buffer is built.
type DocumentOptions struct {
	ChunkSize     int64
	CacheCapacity int
	EvictionBatch int
	Logger        zerolog.Logger
}

// Document is an open file: its mapping, the buffer over it and the file
// state the buffer was built from.
type Document struct {
	// Path is the absolute file path.
	Path string

	// Name is the display name.
	Name string

	// Language is the detected language, or "" if unknown.
	Language string

	Source *mapped.Source
	Buffer *vbuffer.Buffer

	// Size and ModTime describe the file when it was mapped.
	Size    int64
	ModTime time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	indexer sync.WaitGroup
	closed  bool
}

// OpenDocument maps path and builds a buffer over it. Nothing beyond the
// language sample is read.
func OpenDocument(path string, opts DocumentOptions) (*Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	src, err := mapped.Open(abs)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		src.Close()
		return nil, err
	}

	var bufOpts []vbuffer.Option
	if opts.ChunkSize > 0 {
		bufOpts = append(bufOpts, vbuffer.WithChunkSize(opts.ChunkSize))
	}
	if opts.CacheCapacity > 0 {
		bufOpts = append(bufOpts, vbuffer.WithCacheCapacity(opts.CacheCapacity))
	}
	if opts.EvictionBatch > 0 {
		bufOpts = append(bufOpts, vbuffer.WithEvictionBatch(opts.EvictionBatch))
	}
	bufOpts = append(bufOpts, vbuffer.WithLogger(opts.Logger))

	name := filepath.Base(abs)
	return &Document{
		Path:     abs,
		Name:     name,
		Language: detectLanguage(name, src.Slice(0, languageSample)),
		Source:   src,
		Buffer:   vbuffer.New(src, bufOpts...),
		Size:     info.Size(),
		ModTime:  info.ModTime(),
	}, nil
}

func detectLanguage(name string, sample []byte) string {
	if len(sample) > 0 && enry.IsBinary(sample) {
		return "binary"
	}
	return enry.GetLanguage(name, sample)
}

// ChangedOnDisk reports whether the file no longer has the size and
// modification time it had when mapped.
func (d *Document) ChangedOnDisk() bool {
	info, err := os.Stat(d.Path)
	if err != nil {
		return true
	}
	return info.Size() != d.Size || !info.ModTime().Equal(d.ModTime)
}

// StartIndexing indexes the file in the background, one chunk at a time.
// notify is called at most every progressInterval and once when indexing
// finishes.
func (d *Document) StartIndexing(notify func(progress float64, done bool)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || d.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	idx := d.Buffer.Index()

	d.indexer.Add(1)
	go func() {
		defer d.indexer.Done()
		last := time.Now()
		for {
			if ctx.Err() != nil {
				return
			}
			if !idx.Advance() {
				break
			}
			if notify != nil && time.Since(last) >= progressInterval {
				notify(idx.Progress(), false)
				last = time.Now()
			}
		}
		if notify != nil {
			notify(1, true)
		}
	}()
}

// StopIndexing cancels background indexing and waits for it to stop.
func (d *Document) StopIndexing() {
	d.mu.Lock()
	cancel := d.cancel
	d.cancel = nil
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	d.indexer.Wait()
}

// Close stops indexing and unmaps the file. The buffer must not be used
// afterwards.
func (d *Document) Close() error {
	d.StopIndexing()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.Source.Close()
}
