package gutter

import "testing"

func TestFormatAbsolute(t *testing.T) {
	f := NewLineNumberFormatter(LineNumberAbsolute)
	f.SetLineCount(12345)

	if got := f.Format(0); got != "    1" {
		t.Errorf("expected %q, got %q", "    1", got)
	}
	if got := f.Format(12344); got != "12345" {
		t.Errorf("expected %q, got %q", "12345", got)
	}
	if got := f.Width(); got != 6 {
		t.Errorf("expected width 6, got %d", got)
	}
}

func TestFormatRelativeAndHybrid(t *testing.T) {
	tests := []struct {
		mode LineNumberMode
		line uint64
		want string
	}{
		{LineNumberRelative, 10, "  0"},
		{LineNumberRelative, 7, "  3"},
		{LineNumberRelative, 14, "  4"},
		{LineNumberHybrid, 10, " 11"},
		{LineNumberHybrid, 12, "  2"},
	}

	for _, tt := range tests {
		f := NewLineNumberFormatter(tt.mode)
		f.SetLineCount(50)
		f.SetCurrentLine(10)
		if got := f.Format(tt.line); got != tt.want {
			t.Errorf("mode %d line %d: expected %q, got %q", tt.mode, tt.line, tt.want, got)
		}
	}
}

func TestFormatWithHighlight(t *testing.T) {
	f := NewLineNumberFormatter(LineNumberAbsolute)
	f.SetCurrentLine(4)

	if _, current := f.FormatWithHighlight(4); !current {
		t.Error("expected cursor line to be highlighted")
	}
	if _, current := f.FormatWithHighlight(5); current {
		t.Error("did not expect other lines to be highlighted")
	}
}

func TestWidthOff(t *testing.T) {
	f := NewLineNumberFormatter(LineNumberOff)
	f.SetLineCount(1 << 40)
	if got := f.Width(); got != 0 {
		t.Errorf("expected width 0, got %d", got)
	}
}

func TestCalculateWidth(t *testing.T) {
	tests := []struct {
		count uint64
		min   int
		want  int
	}{
		{0, 3, 3},
		{9, 1, 1},
		{10, 1, 2},
		{999, 3, 3},
		{1000, 3, 4},
		{10_000_000_000, 3, 11},
	}
	for _, tt := range tests {
		if got := CalculateWidth(tt.count, tt.min); got != tt.want {
			t.Errorf("CalculateWidth(%d, %d): expected %d, got %d", tt.count, tt.min, tt.want, got)
		}
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want LineNumberMode
		ok   bool
	}{
		{"absolute", LineNumberAbsolute, true},
		{"Relative", LineNumberRelative, true},
		{"hybrid", LineNumberHybrid, true},
		{"off", LineNumberOff, true},
		{"sideways", LineNumberOff, false},
	}
	for _, tt := range tests {
		got, ok := ParseMode(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseMode(%q): expected (%d, %v), got (%d, %v)", tt.in, tt.want, tt.ok, got, ok)
		}
	}
}
