package mapped

import (
	"os"
	"runtime/debug"
)

var pageSize = os.Getpagesize()

// copyMapped copies src into dst a page at a time and returns the number of
// bytes copied. Pages past the end of a file truncated by another process
// fault on access; the copy stops at the first such page instead of
// crashing the program.
func copyMapped(dst, src []byte) (n int) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(interface{ Addr() uintptr }); !ok {
				panic(r)
			}
		}
	}()
	defer debug.SetPanicOnFault(debug.SetPanicOnFault(true))

	for n < len(src) {
		n += copy(dst[n:], src[n:min(n+pageSize, len(src))])
	}
	return n
}
