package viewport

// ScrollState is the scroll position of a viewport.
type ScrollState struct {
	TopLine    uint64
	LeftColumn int
}

// GetScrollState returns the current scroll state.
func (v *Viewport) GetScrollState() ScrollState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return ScrollState{TopLine: v.topLine, LeftColumn: v.leftColumn}
}

// SetScrollState restores a scroll position, clamped to the document.
func (v *Viewport) SetScrollState(state ScrollState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.topLine = v.clampTop(state.TopLine)
	v.leftColumn = max(state.LeftColumn, 0)
}

// EnsureLineVisible scrolls the minimum needed to show line.
// Returns true if scrolling was needed.
func (v *Viewport) EnsureLineVisible(line uint64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch {
	case line < v.topLine:
		v.topLine = v.clampTop(line)
	case line >= v.topLine+uint64(v.height):
		v.topLine = v.clampTop(line + 1 - uint64(v.height))
	default:
		return false
	}
	return true
}

// ScrollPercent returns how far through the document we've scrolled (0.0 to 1.0).
func (v *Viewport) ScrollPercent() float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()

	maxScroll := v.maxTop()
	if maxScroll == 0 {
		return 0
	}
	return min(float64(v.topLine)/float64(maxScroll), 1)
}

// ScrollToPercent scrolls to a fraction of the document.
func (v *Viewport) ScrollToPercent(percent float64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	percent = max(min(percent, 1), 0)
	v.topLine = v.clampTop(uint64(float64(v.maxTop()) * percent))
}
