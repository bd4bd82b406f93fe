//go:build !unix

package mapped

import (
	"os"

	"golang.org/x/exp/mmap"
)

// readerRegion copies out of an x/exp/mmap ReaderAt on platforms without
// direct access to the mapped bytes.
type readerRegion struct {
	r *mmap.ReaderAt
}

func mapFile(f *os.File, length int64) (region, error) {
	r, err := mmap.Open(f.Name())
	if err != nil {
		return nil, err
	}
	if int64(r.Len()) < length {
		r.Close()
		return nil, ErrTooLarge
	}
	return &readerRegion{r: r}, nil
}

func (r *readerRegion) slice(start, end int64) []byte {
	buf := make([]byte, end-start)
	n, _ := r.r.ReadAt(buf, start)
	return buf[:n]
}

func (r *readerRegion) unmap() error {
	return r.r.Close()
}
