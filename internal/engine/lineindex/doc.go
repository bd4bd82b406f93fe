// Package lineindex maps line numbers to byte offsets without scanning a
// whole file up front.
//
// An Index starts with a single known line start (offset 0) and advances in
// fixed-size chunks, recording the start of every line that follows a '\n'.
// It only scans as far as a caller has asked for: LineOffset(n) indexes until
// line n+1 is known, FindLineForByte(pos) indexes until pos is covered.
//
// Until the whole source has been scanned, EstimateTotalLines extrapolates
// from the average line length seen so far. The estimate is for sizing a
// scroll range only; lookups always index on demand and never trust it.
//
// Thread Safety:
//
// Scans are serialized by a scan lock, and each chunk's offsets are published
// together with the new scan position under a separate state lock. Readers
// only take the state lock, so they observe either the pre-chunk or the
// post-chunk state and are never blocked for the duration of a scan.
package lineindex
