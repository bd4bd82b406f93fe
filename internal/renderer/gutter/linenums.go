// Package gutter formats the line-number column drawn left of the text.
package gutter

import (
	"strconv"
	"strings"
)

// LineNumberMode defines how line numbers are displayed.
type LineNumberMode uint8

const (
	// LineNumberOff hides the gutter.
	LineNumberOff LineNumberMode = iota

	// LineNumberAbsolute shows absolute line numbers (1, 2, 3, ...).
	LineNumberAbsolute

	// LineNumberRelative shows relative line numbers from cursor.
	LineNumberRelative

	// LineNumberHybrid shows absolute for current line, relative for others.
	LineNumberHybrid
)

// ParseMode maps a config value to a LineNumberMode.
func ParseMode(s string) (LineNumberMode, bool) {
	switch strings.ToLower(s) {
	case "off", "none", "":
		return LineNumberOff, true
	case "absolute", "on":
		return LineNumberAbsolute, true
	case "relative":
		return LineNumberRelative, true
	case "hybrid":
		return LineNumberHybrid, true
	}
	return LineNumberOff, false
}

// MinWidth is the narrowest number column drawn.
const MinWidth = 3

// LineNumberFormatter formats line numbers according to configuration.
type LineNumberFormatter struct {
	mode        LineNumberMode
	width       int
	currentLine uint64
}

// NewLineNumberFormatter creates a new line number formatter.
func NewLineNumberFormatter(mode LineNumberMode) *LineNumberFormatter {
	return &LineNumberFormatter{mode: mode, width: MinWidth}
}

// Mode returns the line number mode.
func (f *LineNumberFormatter) Mode() LineNumberMode {
	return f.mode
}

// SetLineCount sizes the number column for a document of count lines.
func (f *LineNumberFormatter) SetLineCount(count uint64) {
	f.width = CalculateWidth(count, MinWidth)
}

// SetCurrentLine sets the current cursor line for relative calculations.
func (f *LineNumberFormatter) SetCurrentLine(line uint64) {
	f.currentLine = line
}

// Width returns the total gutter width including the separating space,
// or 0 when line numbers are off.
func (f *LineNumberFormatter) Width() int {
	if f.mode == LineNumberOff {
		return 0
	}
	return f.width + 1
}

// Format returns the formatted line number, padded to the column width.
func (f *LineNumberFormatter) Format(line uint64) string {
	s := strconv.FormatUint(f.calculateNumber(line), 10)
	return PadLeft(s, f.width)
}

// FormatWithHighlight returns the formatted number and whether it is the
// cursor line.
func (f *LineNumberFormatter) FormatWithHighlight(line uint64) (string, bool) {
	return f.Format(line), line == f.currentLine
}

// calculateNumber returns the number to display for a line.
func (f *LineNumberFormatter) calculateNumber(line uint64) uint64 {
	switch f.mode {
	case LineNumberRelative:
		return absDiff(line, f.currentLine)

	case LineNumberHybrid:
		if line == f.currentLine {
			return line + 1
		}
		return absDiff(line, f.currentLine)

	default:
		return line + 1 // 1-indexed display
	}
}

func absDiff(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}

// PadLeft pads a string with spaces on the left to the specified width.
func PadLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

// CalculateWidth returns the digits needed for the largest line number of a
// document with lineCount lines, but at least minWidth.
func CalculateWidth(lineCount uint64, minWidth int) int {
	return max(len(strconv.FormatUint(max(lineCount, 1), 10)), minWidth)
}
