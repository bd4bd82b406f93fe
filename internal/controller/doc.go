// Package controller turns backend input events into document edits and
// cursor movement.
//
// The controller sits between the display backend and the document. It owns
// the cursor, keeps it clamped to existing lines and columns, and keeps the
// viewport following it. It knows nothing about files, saving or rendering;
// it reports what the caller should do next through an Action.
//
// # Keys
//
//   - Arrows move by rune and line; Left/Right wrap across line ends
//   - Home/End go to the start and end of the line
//   - PageUp/PageDown move the cursor and view by one screen
//   - Enter splits the line at the cursor
//   - Backspace at column 0 joins with the previous line
//   - Delete at the end of a line joins with the next line
//   - Ctrl-S asks for a save, Ctrl-Q and Ctrl-C ask to quit
//
// # Usage
//
//	ctl := controller.New(buf, rend, controller.DefaultConfig())
//	for {
//		switch ctl.HandleEvent(term.PollEvent()) {
//		case controller.ActionQuit:
//			return
//		case controller.ActionSave:
//			save()
//		case controller.ActionRedraw:
//			line, col := ctl.Cursor()
//			rend.Render(renderer.Frame{Doc: buf, CursorLine: line, CursorCol: col})
//		}
//	}
//
// # Thread Safety
//
// A Controller is meant to be driven from the UI goroutine only. The
// document it edits may be read concurrently if the document itself is
// thread-safe.
package controller
