package controller

import (
	"fmt"
	"strings"
	"testing"

	"github.com/dshills/lazyline/internal/engine/vbuffer"
	"github.com/dshills/lazyline/internal/renderer"
	"github.com/dshills/lazyline/internal/renderer/backend"
	"github.com/dshills/lazyline/internal/renderer/gutter"
)

type memSource struct {
	data []byte
}

func (m *memSource) Len() int64 { return int64(len(m.data)) }

func (m *memSource) Slice(start, end int64) []byte {
	start = max(start, 0)
	end = min(end, int64(len(m.data)))
	if start >= end {
		return nil
	}
	return m.data[start:end]
}

func newTestController(t *testing.T, text string, config Config) (*Controller, *vbuffer.Buffer, *renderer.Renderer) {
	t.Helper()
	b := backend.NewNullBackend(40, 10)
	if err := b.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	opts := renderer.DefaultOptions()
	opts.LineNumbers = gutter.LineNumberOff
	r := renderer.New(b, opts)
	buf := vbuffer.New(&memSource{data: []byte(text)})
	return New(buf, r, config), buf, r
}

func numbered(n int) string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i)
	}
	return strings.Join(lines, "\n")
}

func key(k backend.Key) backend.Event {
	return backend.Event{Type: backend.EventKey, Key: k}
}

func runes(s string) []backend.Event {
	var evs []backend.Event
	for _, r := range s {
		evs = append(evs, backend.Event{Type: backend.EventKey, Key: backend.KeyRune, Rune: r})
	}
	return evs
}

func send(c *Controller, evs ...backend.Event) Action {
	var last Action
	for _, ev := range evs {
		last = c.HandleEvent(ev)
	}
	return last
}

func assertCursor(t *testing.T, c *Controller, line uint64, col int) {
	t.Helper()
	gotLine, gotCol := c.Cursor()
	if gotLine != line || gotCol != col {
		t.Errorf("expected cursor (%d,%d), got (%d,%d)", line, col, gotLine, gotCol)
	}
}

func TestVerticalMovementKeepsGoalColumn(t *testing.T) {
	c, _, _ := newTestController(t, "hello\nhi\nworld", DefaultConfig())

	send(c, key(backend.KeyEnd))
	assertCursor(t, c, 0, 5)

	send(c, key(backend.KeyDown))
	assertCursor(t, c, 1, 2)

	send(c, key(backend.KeyDown))
	assertCursor(t, c, 2, 5)

	send(c, key(backend.KeyDown))
	assertCursor(t, c, 2, 5)

	send(c, key(backend.KeyUp), key(backend.KeyUp), key(backend.KeyUp))
	assertCursor(t, c, 0, 5)
}

func TestHorizontalMovementWrapsLines(t *testing.T) {
	c, _, _ := newTestController(t, "ab\ncd", DefaultConfig())

	send(c, key(backend.KeyRight), key(backend.KeyRight), key(backend.KeyRight))
	assertCursor(t, c, 1, 0)

	send(c, key(backend.KeyLeft))
	assertCursor(t, c, 0, 2)

	send(c, key(backend.KeyHome), key(backend.KeyLeft))
	assertCursor(t, c, 0, 0)

	send(c, key(backend.KeyDown), key(backend.KeyEnd), key(backend.KeyRight))
	assertCursor(t, c, 1, 2)
}

func TestTypingInsertsText(t *testing.T) {
	c, buf, _ := newTestController(t, "xy", DefaultConfig())

	if action := send(c, runes("aé")...); action != ActionRedraw {
		t.Errorf("expected redraw, got %s", action)
	}
	if got := buf.Line(0); got != "aéxy" {
		t.Errorf("expected %q, got %q", "aéxy", got)
	}
	assertCursor(t, c, 0, 2)

	send(c, key(backend.KeyTab))
	if got := buf.Line(0); got != "aé\txy" {
		t.Errorf("expected %q, got %q", "aé\txy", got)
	}
	if c.Edits() != 3 {
		t.Errorf("expected 3 edits, got %d", c.Edits())
	}
}

func TestEnterSplitsAndBackspaceJoins(t *testing.T) {
	c, buf, _ := newTestController(t, "hello\nnext", DefaultConfig())

	send(c, key(backend.KeyRight), key(backend.KeyRight), key(backend.KeyEnter))
	assertCursor(t, c, 1, 0)
	if buf.Line(0) != "he" || buf.Line(1) != "llo" || buf.Line(2) != "next" {
		t.Errorf("unexpected lines after split: %q %q %q", buf.Line(0), buf.Line(1), buf.Line(2))
	}

	send(c, key(backend.KeyBackspace))
	assertCursor(t, c, 0, 2)
	if buf.Line(0) != "hello" || buf.Line(1) != "next" {
		t.Errorf("unexpected lines after join: %q %q", buf.Line(0), buf.Line(1))
	}
	if buf.HasLine(2) {
		t.Error("expected two lines after join")
	}
}

func TestBackspaceDeletesRune(t *testing.T) {
	c, buf, _ := newTestController(t, "abc", DefaultConfig())

	send(c, key(backend.KeyEnd), key(backend.KeyBackspace))
	if got := buf.Line(0); got != "ab" {
		t.Errorf("expected %q, got %q", "ab", got)
	}
	assertCursor(t, c, 0, 2)
}

func TestBackspaceAtDocumentStart(t *testing.T) {
	c, buf, _ := newTestController(t, "abc", DefaultConfig())

	if action := send(c, key(backend.KeyBackspace)); action != ActionNone {
		t.Errorf("expected none, got %s", action)
	}
	if buf.IsDirty() {
		t.Error("expected clean buffer")
	}
}

func TestDeleteAtLineEndJoinsNext(t *testing.T) {
	c, buf, _ := newTestController(t, "ab\ncd", DefaultConfig())

	send(c, key(backend.KeyDelete))
	if got := buf.Line(0); got != "b" {
		t.Errorf("expected %q, got %q", "b", got)
	}

	send(c, key(backend.KeyEnd), key(backend.KeyDelete))
	if got := buf.Line(0); got != "bcd" {
		t.Errorf("expected %q, got %q", "bcd", got)
	}
	assertCursor(t, c, 0, 1)

	if action := send(c, key(backend.KeyEnd), key(backend.KeyDelete)); action != ActionNone {
		t.Errorf("expected none at document end, got %s", action)
	}
}

func TestReadOnlyIgnoresEdits(t *testing.T) {
	config := DefaultConfig()
	config.ReadOnly = true
	c, buf, _ := newTestController(t, "abc\ndef", config)

	for _, ev := range []backend.Event{
		runes("x")[0],
		key(backend.KeyEnter),
		key(backend.KeyTab),
		key(backend.KeyDelete),
		key(backend.KeyCtrlS),
	} {
		if action := c.HandleEvent(ev); action != ActionNone {
			t.Errorf("expected none for key %d, got %s", ev.Key, action)
		}
	}
	if buf.IsDirty() {
		t.Error("expected clean buffer")
	}

	if action := send(c, key(backend.KeyDown)); action != ActionRedraw {
		t.Errorf("expected navigation to work, got %s", action)
	}
	assertCursor(t, c, 1, 0)
}

func TestCommandKeys(t *testing.T) {
	c, _, _ := newTestController(t, "abc", DefaultConfig())

	tests := []struct {
		key  backend.Key
		want Action
	}{
		{backend.KeyCtrlS, ActionSave},
		{backend.KeyCtrlQ, ActionQuit},
		{backend.KeyCtrlC, ActionQuit},
		{backend.KeyCtrlL, ActionRedraw},
		{backend.KeyEscape, ActionNone},
	}
	for _, tt := range tests {
		if got := c.HandleEvent(key(tt.key)); got != tt.want {
			t.Errorf("key %d: expected %s, got %s", tt.key, tt.want, got)
		}
	}
}

func TestPageDownMovesCursorAndView(t *testing.T) {
	c, _, r := newTestController(t, numbered(100), DefaultConfig())
	page := uint64(r.Viewport().PageSize())

	send(c, key(backend.KeyPageDown))
	assertCursor(t, c, page, 0)
	if !r.Viewport().IsLineVisible(page) {
		t.Errorf("expected line %d visible", page)
	}

	send(c, key(backend.KeyPageUp))
	assertCursor(t, c, 0, 0)
	if r.Viewport().TopLine() != 0 {
		t.Errorf("expected top line 0, got %d", r.Viewport().TopLine())
	}
}

func TestPageDownStopsAtLastLine(t *testing.T) {
	c, _, _ := newTestController(t, numbered(5), DefaultConfig())

	send(c, key(backend.KeyPageDown), key(backend.KeyPageDown))
	assertCursor(t, c, 4, 0)
}

func TestCursorStaysVisible(t *testing.T) {
	c, _, r := newTestController(t, numbered(100), DefaultConfig())

	for range 40 {
		send(c, key(backend.KeyDown))
	}
	assertCursor(t, c, 40, 0)
	if !r.Viewport().IsLineVisible(40) {
		t.Error("expected cursor line visible")
	}
	if r.Viewport().TopLine() == 0 {
		t.Error("expected viewport to scroll")
	}
}

func TestMouseClickMovesCursor(t *testing.T) {
	c, _, _ := newTestController(t, "first\nsecond line\nthird", DefaultConfig())

	ev := backend.Event{Type: backend.EventMouse, MouseButton: backend.MouseLeft, MouseX: 3, MouseY: 1}
	if action := send(c, ev); action != ActionRedraw {
		t.Errorf("expected redraw, got %s", action)
	}
	assertCursor(t, c, 1, 3)

	ev = backend.Event{Type: backend.EventMouse, MouseButton: backend.MouseLeft, MouseX: 30, MouseY: 0}
	send(c, ev)
	assertCursor(t, c, 0, 5)

	// Rows past the end of the document land on the last line.
	ev = backend.Event{Type: backend.EventMouse, MouseButton: backend.MouseLeft, MouseX: 1, MouseY: 6}
	send(c, ev)
	assertCursor(t, c, 2, 0)

	// The status row is not part of the text area.
	ev = backend.Event{Type: backend.EventMouse, MouseButton: backend.MouseLeft, MouseX: 1, MouseY: 9}
	if action := send(c, ev); action != ActionNone {
		t.Errorf("expected none for status row click, got %s", action)
	}
}

func TestMouseWheelScrollsWithoutMovingCursor(t *testing.T) {
	c, _, r := newTestController(t, numbered(100), DefaultConfig())

	send(c, backend.Event{Type: backend.EventMouse, MouseButton: backend.MouseWheelDown})
	if r.Viewport().TopLine() != 3 {
		t.Errorf("expected top line 3, got %d", r.Viewport().TopLine())
	}

	send(c, backend.Event{Type: backend.EventMouse, MouseButton: backend.MouseWheelUp, Mod: backend.ModShift})
	if r.Viewport().TopLine() != 2 {
		t.Errorf("expected top line 2, got %d", r.Viewport().TopLine())
	}
	assertCursor(t, c, 0, 0)
}

func TestSetCursorClamps(t *testing.T) {
	c, _, _ := newTestController(t, "ab\ncd", DefaultConfig())

	c.SetCursor(10, 10)
	assertCursor(t, c, 1, 2)
}

func TestSetDocumentResetsCursor(t *testing.T) {
	c, _, _ := newTestController(t, numbered(50), DefaultConfig())
	c.SetCursor(30, 2)

	c.SetDocument(vbuffer.New(&memSource{data: []byte("new")}))
	assertCursor(t, c, 0, 0)
	if c.view.Viewport().TopLine() != 0 {
		t.Errorf("expected top line 0, got %d", c.view.Viewport().TopLine())
	}
}

func TestIgnoredEvents(t *testing.T) {
	c, _, _ := newTestController(t, "abc", DefaultConfig())

	for _, ev := range []backend.Event{
		{Type: backend.EventResize, Width: 10, Height: 10},
		{Type: backend.EventInterrupt},
		{Type: backend.EventKey, Key: backend.KeyRune, Rune: 'x', Mod: backend.ModCtrl},
	} {
		if action := c.HandleEvent(ev); action != ActionNone {
			t.Errorf("expected none for event type %d, got %s", ev.Type, action)
		}
	}
}
