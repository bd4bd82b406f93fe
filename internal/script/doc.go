// Package script runs sandboxed Lua edit scripts against a buffer.
//
// Scripts see a global table named buf. Lines and columns are 1-based, as in
// Lua strings; columns count characters, not bytes.
//
//	buf.count()                 exact line count (indexes the whole file)
//	buf.line(n)                 text of line n, or nil
//	buf.lines()                 iterator over n, text
//	buf.set_line(n, text)       replace line n
//	buf.insert(n, col, text)    insert before column col; returns end line, col
//	buf.delete(n, i, j)         delete columns i..j inclusive
//	buf.split(n, col)           break line n before column col
//	buf.join(n)                 append line n+1 to line n; returns join column or nil
//	buf.insert_line(n, text)    insert a line before line n (count()+1 appends)
//	buf.delete_line(n)          remove line n; returns false if missing
//	buf.dirty()                 whether the buffer has unsaved edits
//
// Only the base, table, string and math libraries are available; io, os,
// debug and module loading are not. Execution stops when the context passed
// to Run is done.
//
// Example:
//
//	for n, text in buf.lines() do
//		if text:find("TODO") then
//			buf.set_line(n, text:gsub("TODO", "DONE"))
//		end
//	end
package script
