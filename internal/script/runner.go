package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	lua "github.com/yuin/gopher-lua"
)

// DefaultTimeout bounds a single script run.
const DefaultTimeout = 5 * time.Minute

// Buffer is the document a script edits. Lines are 0-based here; the Lua
// API converts.
type Buffer interface {
	LineCount() uint64
	HasLine(n uint64) bool
	Line(n uint64) string
	SetLine(n uint64, text string)
	InsertText(n uint64, col int, text string) (uint64, int)
	DeleteText(n uint64, start, end int)
	SplitLine(n uint64, col int)
	JoinLines(n uint64) (int, bool)
	InsertLine(n uint64, text string)
	DeleteLine(n uint64) bool
	IsDirty() bool
}

// Runner executes scripts. Each run gets a fresh Lua state.
type Runner struct {
	logger  zerolog.Logger
	output  io.Writer
	timeout time.Duration
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithOutput redirects the print function.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		r.output = w
	}
}

// WithTimeout sets the time limit per run. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.timeout = d
	}
}

// New creates a runner.
func New(opts ...Option) *Runner {
	r := &Runner{
		logger:  zerolog.Nop(),
		output:  io.Discard,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunFile executes the Lua file at path against buf.
func (r *Runner) RunFile(ctx context.Context, buf Buffer, path string) error {
	code, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	return r.Run(ctx, buf, filepath.Base(path), string(code))
}

// Run executes code against buf. name identifies the script in errors.
func (r *Runner) Run(ctx context.Context, buf Buffer, name, code string) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	L.SetContext(ctx)

	openSafeLibraries(L)
	L.SetGlobal("print", L.NewFunction(r.print))
	L.SetGlobal("buf", newBufferModule(buf).table(L))

	start := time.Now()
	err := doWithRecovery(func() error {
		fn, err := L.Load(strings.NewReader(code), name)
		if err != nil {
			return err
		}
		L.Push(fn)
		return L.PCall(0, lua.MultRet, nil)
	})

	switch {
	case err == nil:
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		err = ErrTimeout
	case ctx.Err() != nil:
		err = ctx.Err()
	}

	r.logger.Debug().
		Str("script", name).
		Dur("elapsed", time.Since(start)).
		Bool("ok", err == nil).
		Msg("script finished")

	if err != nil {
		return &Error{Name: name, Err: err}
	}
	return nil
}

// print writes its arguments tab-separated, like the stock print.
func (r *Runner) print(L *lua.LState) int {
	top := L.GetTop()
	parts := make([]string, top)
	for i := 1; i <= top; i++ {
		parts[i-1] = L.ToStringMeta(L.Get(i)).String()
	}
	fmt.Fprintln(r.output, strings.Join(parts, "\t"))
	return 0
}

// openSafeLibraries opens the libraries that cannot reach outside the state.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
}

func doWithRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}
