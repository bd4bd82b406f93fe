package renderer

import "github.com/mattn/go-runewidth"

// cellWidth returns the display width of r drawn at display column x.
func cellWidth(r rune, x, tabWidth int) int {
	switch {
	case r == '\t':
		return tabWidth - x%tabWidth
	case isControl(r):
		return 2
	default:
		return runewidth.RuneWidth(r)
	}
}

func isControl(r rune) bool {
	return r < 0x20 || r == 0x7f
}

// caret returns the printable half of r's caret notation (^M for '\r').
func caret(r rune) rune {
	if r == 0x7f {
		return '?'
	}
	return r + '@'
}

// DisplayColumn returns the display column at which rune column col of text
// starts. Columns past the end land just after the last rune.
func DisplayColumn(text string, col, tabWidth int) int {
	tabWidth = max(tabWidth, 1)
	x, i := 0, 0
	for _, r := range text {
		if i >= col {
			break
		}
		x += cellWidth(r, x, tabWidth)
		i++
	}
	return x
}

// ColumnAt returns the rune column drawn at display column x. Positions
// past the end of the text clamp to its length.
func ColumnAt(text string, x, tabWidth int) int {
	tabWidth = max(tabWidth, 1)
	pos, i := 0, 0
	for _, r := range text {
		w := cellWidth(r, pos, tabWidth)
		if w > 0 && x < pos+w {
			return i
		}
		pos += w
		i++
	}
	return i
}
