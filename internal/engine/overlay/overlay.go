// Package overlay holds unsaved line edits on top of a read-only source.
//
// An Overlay maps logical line numbers to replacement text. A present entry is
// authoritative for that line; an absent entry means the line comes from the
// backing file. Entries are renumbered when logical lines are inserted or
// deleted, so an edit stays attached to its line as the document shifts.
package overlay

import (
	"maps"
	"slices"
)

// Overlay is a sparse line-number to text map with a dirty flag.
// It is not safe for concurrent use; the owning buffer serializes access.
type Overlay struct {
	entries map[uint64]string
	dirty   bool
}

// New creates an empty overlay.
func New() *Overlay {
	return &Overlay{entries: make(map[uint64]string)}
}

// Get returns the replacement text for line, if any.
func (o *Overlay) Get(line uint64) (string, bool) {
	text, ok := o.entries[line]
	return text, ok
}

// Set overwrites the text for line and marks the overlay dirty.
func (o *Overlay) Set(line uint64, text string) {
	o.entries[line] = text
	o.dirty = true
}

// Remove drops the entry for line. It does not affect the dirty flag.
func (o *Overlay) Remove(line uint64) {
	delete(o.entries, line)
}

// Has reports whether line has an entry.
func (o *Overlay) Has(line uint64) bool {
	_, ok := o.entries[line]
	return ok
}

// Len returns the number of entries.
func (o *Overlay) Len() int {
	return len(o.entries)
}

// Lines returns the edited line numbers in ascending order.
func (o *Overlay) Lines() []uint64 {
	return slices.Sorted(maps.Keys(o.entries))
}

// IsDirty reports whether any entry has been written since the last
// MarkClean or Clear.
func (o *Overlay) IsDirty() bool {
	return o.dirty
}

// MarkDirty sets the dirty flag without writing an entry.
func (o *Overlay) MarkDirty() {
	o.dirty = true
}

// MarkClean clears the dirty flag, leaving entries in place.
func (o *Overlay) MarkClean() {
	o.dirty = false
}

// Clear drops every entry and clears the dirty flag.
func (o *Overlay) Clear() {
	clear(o.entries)
	o.dirty = false
}

// InsertLines shifts every entry at or after line at up by count, making
// room for count new lines starting at at.
func (o *Overlay) InsertLines(at, count uint64) {
	if count == 0 {
		return
	}
	keys := o.keysFrom(at)
	// Highest first so a shifted key never lands on one not yet moved.
	for i := len(keys) - 1; i >= 0; i-- {
		k := keys[i]
		o.entries[k+count] = o.entries[k]
		delete(o.entries, k)
	}
	o.dirty = true
}

// DeleteLines removes entries for lines [at, at+count) and shifts every
// entry after them down by count.
func (o *Overlay) DeleteLines(at, count uint64) {
	if count == 0 {
		return
	}
	for _, k := range o.keysFrom(at) {
		text := o.entries[k]
		delete(o.entries, k)
		if k >= at+count {
			o.entries[k-count] = text
		}
	}
	o.dirty = true
}

// Entries returns a copy of all entries.
func (o *Overlay) Entries() map[uint64]string {
	return maps.Clone(o.entries)
}

// keysFrom returns the sorted keys >= at.
func (o *Overlay) keysFrom(at uint64) []uint64 {
	var keys []uint64
	for k := range o.entries {
		if k >= at {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}
