package controller

import (
	"github.com/dshills/lazyline/internal/renderer"
	"github.com/dshills/lazyline/internal/renderer/backend"
	"github.com/dshills/lazyline/internal/renderer/viewport"
)

// Document is the set of buffer operations the controller drives.
// Lines are 0-based; columns count runes.
type Document interface {
	Line(n uint64) string
	LineLen(n uint64) int
	EstimateLineCount() uint64
	HasLine(n uint64) bool

	InsertText(n uint64, col int, text string) (line uint64, endCol int)
	DeleteText(n uint64, start, end int)
	SplitLine(n uint64, col int)
	JoinLines(n uint64) (col int, ok bool)
}

// View is the part of the renderer the controller needs.
type View interface {
	Viewport() *viewport.Viewport
	ScreenToPosition(doc renderer.Document, x, y int) (line uint64, col int, ok bool)
	RevealCursor(doc renderer.Document, line uint64, col int)
}

// Action tells the caller what to do after an event.
type Action int

const (
	ActionNone Action = iota
	ActionRedraw
	ActionSave
	ActionQuit
)

// String returns a readable action name.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionRedraw:
		return "redraw"
	case ActionSave:
		return "save"
	case ActionQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Config configures the controller.
type Config struct {
	// ReadOnly ignores every key that would edit the document.
	ReadOnly bool

	// TabText is inserted for the Tab key (default: "\t").
	TabText string

	// ScrollLines is the number of lines to scroll per wheel tick.
	ScrollLines int

	// ScrollLinesShift is the number of lines when Shift is held.
	ScrollLinesShift int
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		TabText:          "\t",
		ScrollLines:      3,
		ScrollLinesShift: 1,
	}
}

// Controller maps input events to document operations.
type Controller struct {
	config Config
	doc    Document
	view   View

	line uint64
	col  int

	// goal is the column vertical movement tries to return to.
	goal int

	// edits counts document modifications made through the controller.
	edits uint64
}

// New creates a controller with the cursor at the start of the document.
func New(doc Document, view View, config Config) *Controller {
	def := DefaultConfig()
	if config.TabText == "" {
		config.TabText = def.TabText
	}
	if config.ScrollLines < 1 {
		config.ScrollLines = def.ScrollLines
	}
	if config.ScrollLinesShift < 1 {
		config.ScrollLinesShift = def.ScrollLinesShift
	}
	return &Controller{config: config, doc: doc, view: view}
}

// Cursor returns the cursor line and rune column.
func (c *Controller) Cursor() (line uint64, col int) {
	return c.line, c.col
}

// SetCursor moves the cursor, clamping it to the document, and reveals it.
func (c *Controller) SetCursor(line uint64, col int) {
	c.line = c.clampLine(line)
	c.col = clamp(col, 0, c.doc.LineLen(c.line))
	c.goal = c.col
	c.reveal()
}

// SetDocument replaces the document and resets the cursor.
func (c *Controller) SetDocument(doc Document) {
	c.doc = doc
	c.line, c.col, c.goal = 0, 0, 0
	c.view.Viewport().ScrollToTop()
}

// ReadOnly reports whether edits are ignored.
func (c *Controller) ReadOnly() bool {
	return c.config.ReadOnly
}

// SetReadOnly enables or disables editing.
func (c *Controller) SetReadOnly(readOnly bool) {
	c.config.ReadOnly = readOnly
}

// Edits returns the number of edits applied through the controller.
func (c *Controller) Edits() uint64 {
	return c.edits
}

// HandleEvent processes a backend event.
func (c *Controller) HandleEvent(ev backend.Event) Action {
	switch ev.Type {
	case backend.EventKey:
		return c.handleKey(ev)
	case backend.EventMouse:
		return c.handleMouse(ev)
	default:
		return ActionNone
	}
}

func (c *Controller) handleKey(ev backend.Event) Action {
	switch ev.Key {
	case backend.KeyCtrlQ, backend.KeyCtrlC:
		return ActionQuit
	case backend.KeyCtrlS:
		if c.config.ReadOnly {
			return ActionNone
		}
		return ActionSave
	case backend.KeyCtrlL:
		return ActionRedraw
	case backend.KeyEscape:
		return ActionNone

	case backend.KeyUp:
		c.moveVertical(-1)
	case backend.KeyDown:
		c.moveVertical(1)
	case backend.KeyLeft:
		c.moveLeft()
	case backend.KeyRight:
		c.moveRight()
	case backend.KeyHome:
		c.col, c.goal = 0, 0
	case backend.KeyEnd:
		c.col = c.doc.LineLen(c.line)
		c.goal = c.col
	case backend.KeyPageUp:
		c.view.Viewport().PageUp()
		c.moveVertical(-c.view.Viewport().PageSize())
	case backend.KeyPageDown:
		c.view.Viewport().PageDown()
		c.moveVertical(c.view.Viewport().PageSize())

	case backend.KeyRune:
		if ev.Mod.Has(backend.ModCtrl) || ev.Mod.Has(backend.ModAlt) {
			return ActionNone
		}
		if !c.insert(string(ev.Rune)) {
			return ActionNone
		}
	case backend.KeyTab:
		if !c.insert(c.config.TabText) {
			return ActionNone
		}
	case backend.KeyEnter:
		if !c.splitLine() {
			return ActionNone
		}
	case backend.KeyBackspace:
		if !c.backspace() {
			return ActionNone
		}
	case backend.KeyDelete:
		if !c.deleteForward() {
			return ActionNone
		}

	default:
		return ActionNone
	}

	c.reveal()
	return ActionRedraw
}

func (c *Controller) handleMouse(ev backend.Event) Action {
	vp := c.view.Viewport()
	lines := c.config.ScrollLines
	if ev.Mod.Has(backend.ModShift) {
		lines = c.config.ScrollLinesShift
	}

	switch ev.MouseButton {
	case backend.MouseLeft:
		line, col, ok := c.view.ScreenToPosition(c.doc, ev.MouseX, ev.MouseY)
		if !ok {
			return ActionNone
		}
		c.SetCursor(line, col)
	case backend.MouseWheelUp:
		vp.ScrollBy(-lines)
	case backend.MouseWheelDown:
		vp.ScrollBy(lines)
	case backend.MouseWheelLeft:
		vp.ScrollHorizontalBy(-lines)
	case backend.MouseWheelRight:
		vp.ScrollHorizontalBy(lines)
	default:
		return ActionNone
	}
	return ActionRedraw
}

// moveVertical moves the cursor by delta lines toward the goal column.
func (c *Controller) moveVertical(delta int) {
	if delta < 0 {
		d := uint64(-delta)
		if d > c.line {
			c.line = 0
		} else {
			c.line -= d
		}
	} else if delta > 0 {
		c.line = c.clampLine(c.line + uint64(delta))
	}
	c.col = min(c.goal, c.doc.LineLen(c.line))
}

func (c *Controller) moveLeft() {
	switch {
	case c.col > 0:
		c.col--
	case c.line > 0:
		c.line--
		c.col = c.doc.LineLen(c.line)
	}
	c.goal = c.col
}

func (c *Controller) moveRight() {
	switch {
	case c.col < c.doc.LineLen(c.line):
		c.col++
	case c.doc.HasLine(c.line + 1):
		c.line++
		c.col = 0
	}
	c.goal = c.col
}

func (c *Controller) insert(text string) bool {
	if c.config.ReadOnly {
		return false
	}
	c.line, c.col = c.doc.InsertText(c.line, c.col, text)
	c.goal = c.col
	c.edits++
	return true
}

func (c *Controller) splitLine() bool {
	if c.config.ReadOnly {
		return false
	}
	c.doc.SplitLine(c.line, c.col)
	c.line++
	c.col, c.goal = 0, 0
	c.edits++
	return true
}

func (c *Controller) backspace() bool {
	if c.config.ReadOnly {
		return false
	}
	if c.col > 0 {
		c.doc.DeleteText(c.line, c.col-1, c.col)
		c.col--
	} else {
		if c.line == 0 {
			return false
		}
		col, ok := c.doc.JoinLines(c.line - 1)
		if !ok {
			return false
		}
		c.line--
		c.col = col
	}
	c.goal = c.col
	c.edits++
	return true
}

func (c *Controller) deleteForward() bool {
	if c.config.ReadOnly {
		return false
	}
	if c.col < c.doc.LineLen(c.line) {
		c.doc.DeleteText(c.line, c.col, c.col+1)
	} else if _, ok := c.doc.JoinLines(c.line); !ok {
		return false
	}
	c.edits++
	return true
}

func (c *Controller) reveal() {
	c.view.RevealCursor(c.doc, c.line, c.col)
}

// clampLine returns line, or the last line when line is past the end.
// A failed HasLine check leaves the index complete, so the estimate is
// exact at that point.
func (c *Controller) clampLine(line uint64) uint64 {
	if c.doc.HasLine(line) {
		return line
	}
	count := c.doc.EstimateLineCount()
	if count == 0 {
		return 0
	}
	return min(line, count-1)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
