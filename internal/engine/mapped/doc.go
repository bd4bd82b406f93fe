// Package mapped provides a read-only, memory-mapped view of a file.
//
// A Source maps the whole file once at open time and hands out clamped byte
// slices of it. The length recorded at open is authoritative for the life of
// the Source: the mapping is never resized, and every slice request is
// clamped to [0, Len()]. Out-of-range requests return an empty slice rather
// than an error.
//
// Basic usage:
//
//	src, err := mapped.Open("huge.log")
//	if err != nil {
//	    return err
//	}
//	defer src.Close()
//
//	head := src.Slice(0, 4096)
//
// Slice returns a copy of the mapped bytes. If another process truncates the
// file, pages past its new end can no longer be read; Slice then returns only
// the bytes before the first unreadable page, so a result may be shorter than
// the clamped range.
package mapped
