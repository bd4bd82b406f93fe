package vbuffer

// SpanKind identifies what a Span maps logical lines onto.
type SpanKind uint8

const (
	// SpanPhysical is a run of Count consecutive file lines starting at Phys.
	SpanPhysical SpanKind = iota
	// SpanSynthetic is a run of Count lines that exist only in the overlay.
	SpanSynthetic
	// SpanTail covers every file line from Phys to the end of the file.
	SpanTail
)

// Span is one run of the logical-to-physical line map.
type Span struct {
	Kind  SpanKind
	Phys  uint64
	Count uint64
}

// lineMap translates logical line numbers into physical file lines.
// It always ends with exactly one SpanTail.
type lineMap struct {
	spans    []Span
	inserted uint64
	deleted  uint64
}

func newLineMap() lineMap {
	return lineMap{spans: []Span{{Kind: SpanTail}}}
}

// delta returns the net number of lines added by edits.
func (m *lineMap) delta() int64 {
	return int64(m.inserted) - int64(m.deleted)
}

// locate returns the span holding logical line n and n's offset within it.
func (m *lineMap) locate(n uint64) (int, uint64) {
	var start uint64
	for i, sp := range m.spans {
		if sp.Kind == SpanTail || n < start+sp.Count {
			return i, n - start
		}
		start += sp.Count
	}
	// unreachable: the last span is always a tail
	last := len(m.spans) - 1
	return last, n - start
}

// resolve returns the physical line behind logical line n, or synthetic=true
// if n only exists in the overlay.
func (m *lineMap) resolve(n uint64) (phys uint64, synthetic bool) {
	i, k := m.locate(n)
	sp := m.spans[i]
	if sp.Kind == SpanSynthetic {
		return 0, true
	}
	return sp.Phys + k, false
}

// insert adds one synthetic line at logical position at.
func (m *lineMap) insert(at uint64) {
	i, k := m.locate(at)
	sp := m.spans[i]
	m.inserted++

	switch {
	case sp.Kind == SpanSynthetic:
		m.spans[i].Count++
		return
	case k == 0 && i > 0 && m.spans[i-1].Kind == SpanSynthetic:
		m.spans[i-1].Count++
		return
	case k == 0:
		m.replace(i, 0, Span{Kind: SpanSynthetic, Count: 1})
		return
	}

	left := Span{Kind: SpanPhysical, Phys: sp.Phys, Count: k}
	right := Span{Kind: sp.Kind, Phys: sp.Phys + k}
	if sp.Kind == SpanPhysical {
		right.Count = sp.Count - k
	}
	m.replace(i, 1, left, Span{Kind: SpanSynthetic, Count: 1}, right)
}

// remove deletes logical line at.
func (m *lineMap) remove(at uint64) {
	i, k := m.locate(at)
	sp := m.spans[i]
	m.deleted++

	switch sp.Kind {
	case SpanSynthetic:
		m.spans[i].Count--
		if m.spans[i].Count == 0 {
			m.replace(i, 1)
		}
	case SpanPhysical:
		var parts []Span
		if k > 0 {
			parts = append(parts, Span{Kind: SpanPhysical, Phys: sp.Phys, Count: k})
		}
		if rest := sp.Count - k - 1; rest > 0 {
			parts = append(parts, Span{Kind: SpanPhysical, Phys: sp.Phys + k + 1, Count: rest})
		}
		m.replace(i, 1, parts...)
	case SpanTail:
		var parts []Span
		if k > 0 {
			parts = append(parts, Span{Kind: SpanPhysical, Phys: sp.Phys, Count: k})
		}
		parts = append(parts, Span{Kind: SpanTail, Phys: sp.Phys + k + 1})
		m.replace(i, 1, parts...)
	}
	m.normalize()
}

// replace swaps n spans at i for repl.
func (m *lineMap) replace(i, n int, repl ...Span) {
	spans := make([]Span, 0, len(m.spans)-n+len(repl))
	spans = append(spans, m.spans[:i]...)
	spans = append(spans, repl...)
	spans = append(spans, m.spans[i+n:]...)
	m.spans = spans
}

// normalize merges adjacent spans that describe one contiguous run.
func (m *lineMap) normalize() {
	out := m.spans[:1]
	for _, sp := range m.spans[1:] {
		prev := &out[len(out)-1]
		switch {
		case prev.Kind == SpanSynthetic && sp.Kind == SpanSynthetic:
			prev.Count += sp.Count
		case prev.Kind == SpanPhysical && sp.Kind != SpanSynthetic && prev.Phys+prev.Count == sp.Phys:
			prev.Count += sp.Count
			if sp.Kind == SpanTail {
				prev.Kind = SpanTail
				prev.Count = 0
			}
		default:
			out = append(out, sp)
		}
	}
	m.spans = out
}

// snapshot returns a copy of the spans.
func (m *lineMap) snapshot() []Span {
	out := make([]Span, len(m.spans))
	copy(out, m.spans)
	return out
}

// validSpans reports whether spans form a well-formed line map.
func validSpans(spans []Span) bool {
	if len(spans) == 0 || spans[len(spans)-1].Kind != SpanTail {
		return false
	}
	for _, sp := range spans[:len(spans)-1] {
		if sp.Kind == SpanTail || sp.Count == 0 {
			return false
		}
	}
	return true
}
