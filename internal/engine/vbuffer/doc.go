// Package vbuffer provides a line-addressed text buffer over a file that is
// never loaded into memory as a whole.
//
// A Buffer combines a lazily built line index, a small cache of decoded
// lines, and an overlay of unsaved edits. Reads consult the overlay first,
// then the cache, then the mapped file. Edits only touch the overlay and a
// logical-to-physical line map, so inserting or deleting a line near the top
// of a multi-gigabyte file costs no more than editing a line in a small one.
//
// Basic usage:
//
//	src, err := mapped.Open("huge.log")
//	if err != nil {
//	    return err
//	}
//	defer src.Close()
//
//	buf := vbuffer.New(src)
//	fmt.Println(buf.Line(0))
//	buf.InsertText(0, 0, "> ")
//	buf.SplitLine(0, 2)
//
// # Line Numbers and Columns
//
// Line numbers are zero-based. Columns count runes, not bytes, and are
// clamped into the line. Lines are decoded as UTF-8 with each invalid byte
// replaced by U+FFFD; untouched lines are written back byte for byte.
//
// # Line Count
//
// Until the index has seen the whole file, EstimateLineCount extrapolates
// from the average line length. Callers must treat it as approximate and
// tolerate Line returning "" past the real end.
//
// # Thread Safety
//
// Buffer is safe for concurrent use. The line index may be advanced from a
// background goroutine through Index while the buffer serves reads.
package vbuffer
