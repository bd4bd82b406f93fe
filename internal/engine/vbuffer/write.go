package vbuffer

import (
	"bufio"
	"io"
	"slices"
)

const writeBufferSize = 1 << 20

// WriteTo writes the whole document to w, lines separated by "\n" and no
// newline after the last line. Runs of unedited lines are copied from the
// source without decoding. The index is completed first.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	total := b.exactLineCountLocked()
	physLines := b.index.KnownLines()
	edited := b.overlay.Lines()

	cw := &countingWriter{w: w}
	bw := bufio.NewWriterSize(cw, writeBufferSize)

	var logical uint64
	for _, sp := range b.lines.spans {
		if logical >= total {
			break
		}

		count := sp.Count
		if sp.Kind == SpanTail {
			count = 0
			if sp.Phys < physLines {
				count = physLines - sp.Phys
			}
		}
		count = min(count, total-logical)

		var err error
		if sp.Kind == SpanSynthetic {
			for i := uint64(0); i < count && err == nil; i++ {
				text, _ := b.overlay.Get(logical + i)
				err = writeLine(bw, text, logical+i+1 < total)
			}
		} else {
			err = b.writePhysicalRun(bw, sp.Phys, logical, count, total, edited)
		}
		if err != nil {
			return cw.n, err
		}

		logical += count
	}

	if err := bw.Flush(); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

// writePhysicalRun writes count logical lines starting at logical, backed by
// file lines from phys. Edited lines come from the overlay; stretches
// between them are copied as one byte range.
func (b *Buffer) writePhysicalRun(w *bufio.Writer, phys, logical, count, total uint64, edited []uint64) error {
	for i := uint64(0); i < count; {
		n := logical + i
		if text, ok := b.overlay.Get(n); ok {
			if err := writeLine(w, text, n+1 < total); err != nil {
				return err
			}
			i++
			continue
		}

		end := count
		if j, _ := slices.BinarySearch(edited, n); j < len(edited) && edited[j] < logical+count {
			end = edited[j] - logical
		}

		start, _, _ := b.index.LineRange(phys + i)
		_, stop, _ := b.index.LineRange(phys + end - 1)
		if err := b.copyRange(w, start, stop); err != nil {
			return err
		}
		if logical+end < total {
			if err := w.WriteByte('\n'); err != nil {
				return err
			}
		}
		i = end
	}
	return nil
}

// copyRange writes source bytes [start, stop) in pieces of at most
// writeBufferSize.
func (b *Buffer) copyRange(w *bufio.Writer, start, stop int64) error {
	for start < stop {
		want := min(stop-start, writeBufferSize)
		piece := b.src.Slice(start, start+want)
		if _, err := w.Write(piece); err != nil {
			return err
		}
		if int64(len(piece)) < want {
			return ErrSourceTruncated
		}
		start += want
	}
	return nil
}

func writeLine(w *bufio.Writer, text string, newline bool) error {
	if _, err := w.WriteString(text); err != nil {
		return err
	}
	if newline {
		return w.WriteByte('\n')
	}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
