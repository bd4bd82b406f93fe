package script

import (
	lua "github.com/yuin/gopher-lua"
)

// bufferModule implements the buf table.
type bufferModule struct {
	buf Buffer
}

func newBufferModule(buf Buffer) *bufferModule {
	return &bufferModule{buf: buf}
}

func (m *bufferModule) table(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetField(mod, "count", L.NewFunction(m.count))
	L.SetField(mod, "line", L.NewFunction(m.line))
	L.SetField(mod, "lines", L.NewFunction(m.lines))
	L.SetField(mod, "set_line", L.NewFunction(m.setLine))
	L.SetField(mod, "insert", L.NewFunction(m.insert))
	L.SetField(mod, "delete", L.NewFunction(m.delete))
	L.SetField(mod, "split", L.NewFunction(m.split))
	L.SetField(mod, "join", L.NewFunction(m.join))
	L.SetField(mod, "insert_line", L.NewFunction(m.insertLine))
	L.SetField(mod, "delete_line", L.NewFunction(m.deleteLine))
	L.SetField(mod, "dirty", L.NewFunction(m.dirty))
	return mod
}

// checkLine reads a 1-based line argument and returns it 0-based.
func checkLine(L *lua.LState, n int) uint64 {
	line := L.CheckInt64(n)
	if line < 1 {
		L.ArgError(n, "line must be >= 1")
	}
	return uint64(line - 1)
}

// checkColumn reads a 1-based column argument and returns it 0-based.
func checkColumn(L *lua.LState, n int) int {
	col := L.CheckInt(n)
	if col < 1 {
		L.ArgError(n, "column must be >= 1")
	}
	return col - 1
}

// count() -> number
func (m *bufferModule) count(L *lua.LState) int {
	L.Push(lua.LNumber(m.buf.LineCount()))
	return 1
}

// line(n) -> string | nil
func (m *bufferModule) line(L *lua.LState) int {
	n := checkLine(L, 1)
	if !m.buf.HasLine(n) {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(m.buf.Line(n)))
	return 1
}

// lines() -> iterator yielding n, text
// The iterator checks existence line by line, so it works before the file
// is fully indexed and sees lines added during the loop.
func (m *bufferModule) lines(L *lua.LState) int {
	var next uint64
	L.Push(L.NewFunction(func(L *lua.LState) int {
		if !m.buf.HasLine(next) {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LNumber(next + 1))
		L.Push(lua.LString(m.buf.Line(next)))
		next++
		return 2
	}))
	return 1
}

// set_line(n, text)
func (m *bufferModule) setLine(L *lua.LState) int {
	n := checkLine(L, 1)
	text := L.CheckString(2)
	m.buf.SetLine(n, text)
	return 0
}

// insert(n, col, text) -> line, col
func (m *bufferModule) insert(L *lua.LState) int {
	n := checkLine(L, 1)
	col := checkColumn(L, 2)
	text := L.CheckString(3)
	line, end := m.buf.InsertText(n, col, text)
	L.Push(lua.LNumber(line + 1))
	L.Push(lua.LNumber(end + 1))
	return 2
}

// delete(n, i, j) removes columns i through j.
func (m *bufferModule) delete(L *lua.LState) int {
	n := checkLine(L, 1)
	start := checkColumn(L, 2)
	end := L.CheckInt(3)
	m.buf.DeleteText(n, start, end)
	return 0
}

// split(n, col)
func (m *bufferModule) split(L *lua.LState) int {
	n := checkLine(L, 1)
	col := checkColumn(L, 2)
	m.buf.SplitLine(n, col)
	return 0
}

// join(n) -> col | nil
func (m *bufferModule) join(L *lua.LState) int {
	n := checkLine(L, 1)
	col, ok := m.buf.JoinLines(n)
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(col + 1))
	return 1
}

// insert_line(n, text)
func (m *bufferModule) insertLine(L *lua.LState) int {
	n := checkLine(L, 1)
	text := L.OptString(2, "")
	m.buf.InsertLine(n, text)
	return 0
}

// delete_line(n) -> bool
func (m *bufferModule) deleteLine(L *lua.LState) int {
	n := checkLine(L, 1)
	L.Push(lua.LBool(m.buf.DeleteLine(n)))
	return 1
}

// dirty() -> bool
func (m *bufferModule) dirty(L *lua.LState) int {
	L.Push(lua.LBool(m.buf.IsDirty()))
	return 1
}
