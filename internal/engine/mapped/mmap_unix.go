//go:build unix

package mapped

import (
	"math"
	"os"

	"golang.org/x/sys/unix"
)

type unixRegion struct {
	data []byte
}

func mapFile(f *os.File, length int64) (region, error) {
	if length > math.MaxInt {
		return nil, ErrTooLarge
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(length), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	return &unixRegion{data: data}, nil
}

func (r *unixRegion) slice(start, end int64) []byte {
	buf := make([]byte, end-start)
	n := copyMapped(buf, r.data[start:end])
	return buf[:n]
}

func (r *unixRegion) unmap() error {
	data := r.data
	r.data = nil
	return unix.Munmap(data)
}
