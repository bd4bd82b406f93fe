package renderer

import (
	"sync"

	"github.com/dshills/lazyline/internal/renderer/backend"
	"github.com/dshills/lazyline/internal/renderer/gutter"
	"github.com/dshills/lazyline/internal/renderer/statusline"
	"github.com/dshills/lazyline/internal/renderer/viewport"
)

// Document provides read access to the lines being displayed.
type Document interface {
	// Line returns the text of line n, or "" past the end.
	Line(n uint64) string

	// EstimateLineCount returns the (possibly approximate) line count.
	EstimateLineCount() uint64
}

// batchReader is implemented by documents that can return several lines
// under one lock.
type batchReader interface {
	Lines(start uint64, count int) []string
}

// Options configures the renderer.
type Options struct {
	LineNumbers    gutter.LineNumberMode
	TabWidth       int
	MaxLineDisplay int // Runes laid out per line; the rest is elided
	Margins        viewport.MarginConfig
}

// DefaultOptions returns sensible default options.
func DefaultOptions() Options {
	return Options{
		LineNumbers:    gutter.LineNumberAbsolute,
		TabWidth:       4,
		MaxLineDisplay: 10_000,
		Margins:        viewport.DefaultMargins(),
	}
}

// Frame is the state drawn by one Render call.
type Frame struct {
	Doc        Document
	CursorLine uint64
	CursorCol  int // rune column
}

// Renderer draws frames to a backend.
type Renderer struct {
	mu sync.Mutex

	opts    Options
	backend backend.Backend
	width   int
	height  int

	viewport *viewport.Viewport
	gutter   *gutter.LineNumberFormatter
	status   *statusline.StatusLine

	frameCount uint64
}

// New creates a renderer sized to the backend.
func New(b backend.Backend, opts Options) *Renderer {
	if opts.TabWidth < 1 {
		opts.TabWidth = DefaultOptions().TabWidth
	}
	if opts.MaxLineDisplay < 1 {
		opts.MaxLineDisplay = DefaultOptions().MaxLineDisplay
	}

	width, height := b.Size()
	r := &Renderer{
		opts:     opts,
		backend:  b,
		viewport: viewport.NewViewport(width, height-1),
		gutter:   gutter.NewLineNumberFormatter(opts.LineNumbers),
		status:   statusline.New(),
	}
	r.viewport.SetMarginsFromConfig(opts.Margins)
	r.resizeLocked(width, height)
	return r
}

// Viewport returns the viewport for external manipulation.
func (r *Renderer) Viewport() *viewport.Viewport {
	return r.viewport
}

// Status returns the status line for external updates.
func (r *Renderer) Status() *statusline.StatusLine {
	return r.status
}

// Options returns the current options.
func (r *Renderer) Options() Options {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opts
}

// FrameCount returns the number of frames rendered.
func (r *Renderer) FrameCount() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frameCount
}

// Resize handles display resize events.
func (r *Renderer) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resizeLocked(width, height)
}

func (r *Renderer) resizeLocked(width, height int) {
	r.width = width
	r.height = height
	r.viewport.Resize(width-r.gutter.Width(), height-1)
}

// TextOrigin returns the screen column where text starts, right of the
// gutter.
func (r *Renderer) TextOrigin() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gutter.Width()
}

// TabWidth returns the configured tab width.
func (r *Renderer) TabWidth() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opts.TabWidth
}

// Render draws a full frame and flushes it to the display.
func (r *Renderer) Render(f Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := f.Doc.EstimateLineCount()
	r.gutter.SetLineCount(count)
	r.gutter.SetCurrentLine(f.CursorLine)
	r.resizeLocked(r.width, r.height)
	r.viewport.SetLineCount(count)

	r.backend.Clear()

	rows := r.height - 1
	top := r.viewport.TopLine()
	lines := r.visibleLines(f.Doc, top, rows, count)
	for row, text := range lines {
		r.renderLine(top+uint64(row), row, text)
	}
	for row := len(lines); row < rows; row++ {
		r.backend.SetCell(0, row, backend.NewCell('~', backend.DefaultStyle().WithAttributes(backend.AttrDim)))
	}

	r.renderCursor(f, top, lines)

	r.status.SetPosition(f.CursorLine, f.CursorCol)
	r.status.Render(r.backend, r.height-1, r.width)

	r.backend.Show()
	r.frameCount++
}

// visibleLines fetches the rows starting at top that exist in the document.
func (r *Renderer) visibleLines(doc Document, top uint64, rows int, count uint64) []string {
	if rows <= 0 || top >= count {
		return nil
	}
	n := int(min(uint64(rows), count-top))
	if br, ok := doc.(batchReader); ok {
		return br.Lines(top, n)
	}
	lines := make([]string, n)
	for i := range lines {
		lines[i] = doc.Line(top + uint64(i))
	}
	return lines
}

// renderLine draws one document line at the given screen row.
func (r *Renderer) renderLine(line uint64, row int, text string) {
	gw := r.gutter.Width()
	if gw > 0 {
		num, current := r.gutter.FormatWithHighlight(line)
		style := backend.DefaultStyle().WithAttributes(backend.AttrDim)
		if current {
			style = backend.DefaultStyle().WithAttributes(backend.AttrBold)
		}
		drawString(r.backend, 0, row, num, style)
	}

	left := r.viewport.LeftColumn()
	right := left + r.width - gw
	textStyle := backend.DefaultStyle()
	ctrlStyle := textStyle.WithAttributes(backend.AttrReverse)

	x, i := 0, 0
	for _, ch := range text {
		if x >= right {
			return
		}
		if i >= r.opts.MaxLineDisplay {
			r.setText(gw, left, right, x, row, backend.NewCell('…', textStyle.WithAttributes(backend.AttrDim)))
			return
		}
		w := cellWidth(ch, x, r.opts.TabWidth)
		switch {
		case ch == '\t':
			// blank cells already cleared
		case isControl(ch):
			r.setText(gw, left, right, x, row, backend.NewCell('^', ctrlStyle))
			r.setText(gw, left, right, x+1, row, backend.NewCell(caret(ch), ctrlStyle))
		case w > 0 && x+w <= right:
			r.setText(gw, left, right, x, row, backend.NewCell(ch, textStyle))
		}
		x += w
		i++
	}
}

// setText draws a cell at display column x if it falls inside the text area.
func (r *Renderer) setText(gw, left, right, x, row int, cell backend.Cell) {
	if x < left || x >= right {
		return
	}
	r.backend.SetCell(gw+x-left, row, cell)
}

func (r *Renderer) renderCursor(f Frame, top uint64, lines []string) {
	if f.CursorLine < top || f.CursorLine-top >= uint64(r.height-1) {
		r.backend.HideCursor()
		return
	}
	row := int(f.CursorLine - top)

	var text string
	if row < len(lines) {
		text = lines[row]
	}
	x := DisplayColumn(text, f.CursorCol, r.opts.TabWidth) - r.viewport.LeftColumn()
	gw := r.gutter.Width()
	if x < 0 || gw+x >= r.width {
		r.backend.HideCursor()
		return
	}
	r.backend.ShowCursor(gw+x, row)
}

// ScreenToPosition maps a screen cell to a document line and rune column.
// ok is false for cells outside the text area.
func (r *Renderer) ScreenToPosition(doc Document, x, y int) (line uint64, col int, ok bool) {
	r.mu.Lock()
	gw := r.gutter.Width()
	height := r.height
	tabWidth := r.opts.TabWidth
	r.mu.Unlock()

	if y < 0 || y >= height-1 {
		return 0, 0, false
	}
	line = r.viewport.ScreenRowToLine(y)
	dx := max(x-gw, 0) + r.viewport.LeftColumn()
	return line, ColumnAt(doc.Line(line), dx, tabWidth), true
}

// RevealCursor scrolls the viewport so the cursor is on screen.
func (r *Renderer) RevealCursor(doc Document, line uint64, col int) {
	r.mu.Lock()
	tabWidth := r.opts.TabWidth
	r.mu.Unlock()

	r.viewport.ScrollToReveal(line, DisplayColumn(doc.Line(line), col, tabWidth))
}

func drawString(b backend.Backend, x, y int, s string, style backend.Style) {
	for _, ch := range s {
		b.SetCell(x, y, backend.NewCell(ch, style))
		x++
	}
}
