package vbuffer

import "fmt"

// EditState is a detached copy of a buffer's unsaved edits: the overlay
// text and the logical line map it is keyed against.
type EditState struct {
	Spans    []Span
	Lines    map[uint64]string
	Inserted uint64
	Deleted  uint64
}

// Empty reports whether the state carries no edits.
func (s EditState) Empty() bool {
	return len(s.Lines) == 0 && s.Inserted == 0 && s.Deleted == 0
}

// Snapshot captures the current edits.
func (b *Buffer) Snapshot() EditState {
	b.mu.Lock()
	defer b.mu.Unlock()

	return EditState{
		Spans:    b.lines.snapshot(),
		Lines:    b.overlay.Entries(),
		Inserted: b.lines.inserted,
		Deleted:  b.lines.deleted,
	}
}

// Restore replaces the buffer's edits with state and marks it dirty.
// The state must have been taken from a buffer over the same content.
func (b *Buffer) Restore(state EditState) error {
	if !validSpans(state.Spans) {
		return fmt.Errorf("%w: line map must end with a single tail span", ErrInvalidState)
	}

	var synthetic uint64
	for _, sp := range state.Spans {
		if sp.Kind == SpanSynthetic {
			synthetic += sp.Count
		}
	}
	if synthetic > state.Inserted {
		return fmt.Errorf("%w: %d synthetic lines but %d inserted", ErrInvalidState, synthetic, state.Inserted)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	spans := make([]Span, len(state.Spans))
	copy(spans, state.Spans)
	b.lines = lineMap{spans: spans, inserted: state.Inserted, deleted: state.Deleted}

	b.overlay.Clear()
	for line, text := range state.Lines {
		b.overlay.Set(line, text)
	}
	b.overlay.MarkDirty()
	b.cache.clear()

	b.logger.Info().
		Int("lines", len(state.Lines)).
		Int("spans", len(spans)).
		Msg("restored edits")

	return nil
}
