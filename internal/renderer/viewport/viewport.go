// Package viewport tracks which part of a document is on screen.
//
// Line numbers are uint64 so a viewport can address files with more lines
// than fit in 32 bits. The document line count is usually an estimate that
// grows while the file is still being indexed; callers refresh it with
// SetLineCount before each frame.
package viewport

import "sync"

// Viewport represents the visible portion of the buffer.
type Viewport struct {
	mu sync.RWMutex

	// Position in buffer (first visible line)
	topLine    uint64
	leftColumn int

	// Size in screen cells
	width  int
	height int

	// Scroll margins (keep cursor this far from edges)
	marginTop    int
	marginBottom int
	marginLeft   int
	marginRight  int

	// Document size; zero means unknown and disables clamping.
	lineCount uint64
}

// NewViewport creates a viewport with the given size.
// Width and height are clamped to a minimum of 1.
func NewViewport(width, height int) *Viewport {
	m := DefaultMargins()
	return &Viewport{
		width:        max(width, 1),
		height:       max(height, 1),
		marginTop:    m.Top,
		marginBottom: m.Bottom,
		marginLeft:   m.Left,
		marginRight:  m.Right,
	}
}

// Width returns the viewport width.
func (v *Viewport) Width() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.width
}

// Height returns the viewport height.
func (v *Viewport) Height() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.height
}

// TopLine returns the first visible line.
func (v *Viewport) TopLine() uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.topLine
}

// BottomLine returns the last visible line.
func (v *Viewport) BottomLine() uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.bottomLine()
}

func (v *Viewport) bottomLine() uint64 {
	bottom := v.topLine + uint64(v.height) - 1
	if v.lineCount > 0 && bottom > v.lineCount-1 {
		bottom = max(v.lineCount-1, v.topLine)
	}
	return bottom
}

// LeftColumn returns the first visible column.
func (v *Viewport) LeftColumn() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.leftColumn
}

// Resize updates the viewport size.
// Width and height are clamped to a minimum of 1.
func (v *Viewport) Resize(width, height int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.width = max(width, 1)
	v.height = max(height, 1)
	v.topLine = v.clampTop(v.topLine)
}

// SetLineCount sets the number of lines in the document.
func (v *Viewport) SetLineCount(count uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lineCount = count
	v.topLine = v.clampTop(v.topLine)
}

// LineCount returns the document line count last set.
func (v *Viewport) LineCount() uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.lineCount
}

// SetMargins sets the scroll margins.
func (v *Viewport) SetMargins(top, bottom, left, right int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.marginTop = top
	v.marginBottom = bottom
	v.marginLeft = left
	v.marginRight = right
}

// Margins returns the configured scroll margins.
func (v *Viewport) Margins() (top, bottom, left, right int) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.marginTop, v.marginBottom, v.marginLeft, v.marginRight
}

// VisibleLineRange returns the first and last visible lines, inclusive.
func (v *Viewport) VisibleLineRange() (start, end uint64) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.topLine, v.bottomLine()
}

// IsLineVisible returns true if the line is within the viewport.
func (v *Viewport) IsLineVisible(line uint64) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return line >= v.topLine && line <= v.bottomLine()
}

// LineToScreenRow converts a buffer line to a screen row.
// Returns -1 if the line is not visible.
func (v *Viewport) LineToScreenRow(line uint64) int {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if line < v.topLine || line > v.bottomLine() {
		return -1
	}
	return int(line - v.topLine)
}

// ScreenRowToLine converts a screen row to a buffer line, clamped to the
// document.
func (v *Viewport) ScreenRowToLine(row int) uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if row < 0 {
		return v.topLine
	}
	line := v.topLine + uint64(row)
	if v.lineCount > 0 && line >= v.lineCount {
		line = v.lineCount - 1
	}
	return line
}

// ScreenColToColumn converts a screen column to a display column.
func (v *Viewport) ScreenColToColumn(col int) int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return col + v.leftColumn
}

// ScrollTo shows the given line at the top.
func (v *Viewport) ScrollTo(line uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.topLine = v.clampTop(line)
}

// ScrollBy scrolls by a delta number of lines.
func (v *Viewport) ScrollBy(deltaLines int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.topLine = v.clampTop(addClamped(v.topLine, deltaLines))
}

// ScrollHorizontalBy scrolls horizontally by a delta.
func (v *Viewport) ScrollHorizontalBy(deltaCols int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.leftColumn = max(v.leftColumn+deltaCols, 0)
}

// ScrollToReveal scrolls minimally to reveal a line and display column,
// keeping the configured margins around it where the viewport allows.
// Returns true if scrolling occurred.
func (v *Viewport) ScrollToReveal(line uint64, col int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	margins := v.effectiveMargins()
	targetTop := v.topLine
	targetLeft := v.leftColumn

	if line < v.topLine+uint64(margins.Top) {
		targetTop = line - min(line, uint64(margins.Top))
	} else if line+uint64(margins.Bottom) >= v.topLine+uint64(v.height) {
		targetTop = line + uint64(margins.Bottom) + 1 - min(line+uint64(margins.Bottom)+1, uint64(v.height))
	}

	screenCol := col - v.leftColumn
	if screenCol < margins.Left {
		targetLeft = max(col-margins.Left, 0)
	} else if screenCol >= v.width-margins.Right {
		targetLeft = col - v.width + margins.Right + 1
	}

	targetTop = v.clampTop(targetTop)
	if targetTop == v.topLine && targetLeft == v.leftColumn {
		return false
	}
	v.topLine = targetTop
	v.leftColumn = targetLeft
	return true
}

// CenterOn centers the viewport on the given line.
func (v *Viewport) CenterOn(line uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	half := uint64(v.height / 2)
	v.topLine = v.clampTop(line - min(line, half))
}

// PageUp scrolls up by one page, keeping two lines of overlap.
func (v *Viewport) PageUp() {
	v.ScrollBy(-v.pageSize())
}

// PageDown scrolls down by one page, keeping two lines of overlap.
func (v *Viewport) PageDown() {
	v.ScrollBy(v.pageSize())
}

// HalfPageUp scrolls up by half a page.
func (v *Viewport) HalfPageUp() {
	v.ScrollBy(-max(v.Height()/2, 1))
}

// HalfPageDown scrolls down by half a page.
func (v *Viewport) HalfPageDown() {
	v.ScrollBy(max(v.Height()/2, 1))
}

// ScrollToTop scrolls to the top of the buffer.
func (v *Viewport) ScrollToTop() {
	v.ScrollTo(0)
}

// ScrollToBottom scrolls so the last line sits at the bottom edge.
func (v *Viewport) ScrollToBottom() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.topLine = v.maxTop()
}

// PageSize returns the number of lines PageUp and PageDown move.
func (v *Viewport) PageSize() int {
	return v.pageSize()
}

func (v *Viewport) pageSize() int {
	return max(v.Height()-2, 1)
}

// maxTop returns the largest top line that still fills the viewport.
func (v *Viewport) maxTop() uint64 {
	if v.lineCount <= uint64(v.height) {
		return 0
	}
	return v.lineCount - uint64(v.height)
}

func (v *Viewport) clampTop(line uint64) uint64 {
	if v.lineCount == 0 {
		return line
	}
	return min(line, v.maxTop())
}

func addClamped(line uint64, delta int) uint64 {
	if delta < 0 {
		d := uint64(-delta)
		if d > line {
			return 0
		}
		return line - d
	}
	return line + uint64(delta)
}
