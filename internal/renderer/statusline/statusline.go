// Package statusline draws the bottom status line: file name, edit state,
// cursor position, line count and indexing progress, or a message.
package statusline

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/dshills/lazyline/internal/renderer/backend"
)

// MessageType indicates the type of status message.
type MessageType int

const (
	MessageNone MessageType = iota
	MessageInfo
	MessageWarning
	MessageError
)

// StatusLine renders the bottom status line.
type StatusLine struct {
	filename string
	language string
	size     int64
	modified bool
	readOnly bool

	line uint64 // 0-indexed
	col  int    // 0-indexed

	totalLines uint64
	exact      bool
	progress   float64

	message     string
	messageType MessageType
}

// New creates a new status line.
func New() *StatusLine {
	return &StatusLine{}
}

// SetFile updates the file description.
func (s *StatusLine) SetFile(filename, language string, size int64) {
	s.filename = filename
	s.language = language
	s.size = size
}

// SetModified updates the modified indicator.
func (s *StatusLine) SetModified(modified bool) {
	s.modified = modified
}

// SetReadOnly updates the read-only indicator.
func (s *StatusLine) SetReadOnly(readOnly bool) {
	s.readOnly = readOnly
}

// SetPosition updates the cursor position (0-indexed).
func (s *StatusLine) SetPosition(line uint64, col int) {
	s.line = line
	s.col = col
}

// SetLineCount updates the line count. exact is false while the count is
// still an estimate; progress is the indexed fraction of the file.
func (s *StatusLine) SetLineCount(total uint64, exact bool, progress float64) {
	s.totalLines = total
	s.exact = exact
	s.progress = progress
}

// SetMessage displays a status message in place of the file info.
func (s *StatusLine) SetMessage(msg string, msgType MessageType) {
	s.message = msg
	s.messageType = msgType
}

// ClearMessage clears the status message.
func (s *StatusLine) ClearMessage() {
	s.message = ""
	s.messageType = MessageNone
}

// Message returns the current message.
func (s *StatusLine) Message() (string, MessageType) {
	return s.message, s.messageType
}

// Render draws the status line to the backend at the given row.
func (s *StatusLine) Render(b backend.Backend, row, width int) {
	barStyle := backend.DefaultStyle().WithAttributes(backend.AttrReverse)
	b.Fill(backend.Rect{Top: row, Left: 0, Bottom: row + 1, Right: width}, backend.NewCell(' ', barStyle))

	right := s.formatPosition()
	rightWidth := runewidth.StringWidth(right)

	left := s.formatFile()
	style := barStyle
	if s.message != "" {
		left = s.message
		style = s.messageStyle()
	}

	leftRoom := width - rightWidth - 2
	if leftRoom < 1 {
		// Too narrow for both halves; the left side wins.
		leftRoom = width
		right = ""
	}
	drawText(b, 0, row, runewidth.Truncate(" "+left, leftRoom, "…"), style)

	if right != "" {
		drawText(b, width-rightWidth-1, row, right, barStyle)
	}
}

func (s *StatusLine) messageStyle() backend.Style {
	style := backend.DefaultStyle().WithAttributes(backend.AttrReverse)
	switch s.messageType {
	case MessageError:
		style.Foreground = backend.ColorMaroon
		style = style.WithAttributes(backend.AttrBold)
	case MessageWarning:
		style.Foreground = backend.ColorOlive
	}
	return style
}

// formatFile formats the file info for the left side.
func (s *StatusLine) formatFile() string {
	name := s.filename
	if name == "" {
		name = "[No Name]"
	}

	parts := []string{name}
	if s.modified {
		parts[0] += " [+]"
	}
	if s.readOnly {
		parts[0] += " [RO]"
	}
	if s.language != "" {
		parts = append(parts, s.language)
	}
	if s.size > 0 {
		parts = append(parts, humanize.Bytes(uint64(s.size)))
	}
	return strings.Join(parts, " | ")
}

// formatPosition formats the position info for the right side.
// Format: "Ln 1,234, Col 5 | 98,765 lines" with a "~" and the indexing
// percentage while the count is an estimate.
func (s *StatusLine) formatPosition() string {
	result := fmt.Sprintf("Ln %s, Col %d", humanize.Comma(int64(s.line+1)), s.col+1)

	if s.totalLines == 0 {
		return result
	}
	if s.exact {
		return result + fmt.Sprintf(" | %s lines", humanize.Comma(int64(s.totalLines)))
	}
	return result + fmt.Sprintf(" | ~%s lines | indexing %d%%",
		humanize.Comma(int64(s.totalLines)), int(s.progress*100))
}

func drawText(b backend.Backend, x, y int, text string, style backend.Style) {
	for _, r := range text {
		cell := backend.NewCell(r, style)
		b.SetCell(x, y, cell)
		x += max(cell.Width, 1)
	}
}
