// Package renderer draws a document window to a display backend.
//
// The renderer is responsible for:
//   - Converting document lines to screen cells
//   - Tab expansion and display widths for wide runes
//   - The line-number gutter and status line
//   - Placing the terminal cursor
//
// Architecture:
//
//	┌─────────────────────────────────────────┐
//	│           Renderer (Facade)             │
//	├─────────────────────────────────────────┤
//	│  Viewport │ Gutter │ StatusLine         │
//	├─────────────────────────────────────────┤
//	│           Backend Abstraction           │
//	├─────────────────────────────────────────┤
//	│  Terminal (tcell) │ NullBackend         │
//	└─────────────────────────────────────────┘
//
// Only the visible rows are requested from the document on each frame, so
// drawing cost does not depend on file size.
//
// Usage:
//
//	term, _ := backend.NewTerminal()
//	r := renderer.New(term, renderer.DefaultOptions())
//	r.Render(renderer.Frame{Doc: buf, CursorLine: 0, CursorCol: 0})
package renderer
