package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dshills/lazyline/internal/config"
	"github.com/dshills/lazyline/internal/renderer/backend"
	"github.com/dshills/lazyline/internal/renderer/statusline"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Journal.Path = filepath.Join(t.TempDir(), "journal.db")
	cfg.Journal.Interval = config.Duration(time.Hour)
	cfg.Watch.Enabled = false
	cfg.Index.ChunkSize = 4096
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config, opts Options) *Application {
	t.Helper()
	opts.Config = cfg
	opts.Logger = zerolog.Nop()
	app, err := New(opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { app.Close() })
	return app
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	return string(data)
}

func keyRune(r rune) backend.Event {
	return backend.Event{Type: backend.EventKey, Key: backend.KeyRune, Rune: r}
}

func key(k backend.Key) backend.Event {
	return backend.Event{Type: backend.EventKey, Key: k}
}

// runWith posts events to a null backend and runs the event loop until it
// returns.
func runWith(t *testing.T, app *Application, events ...backend.Event) *backend.NullBackend {
	t.Helper()
	b := backend.NewNullBackend(80, 10)
	for _, ev := range events {
		b.PostEvent(ev)
	}

	done := make(chan error, 1)
	go func() { done <- app.Run(b) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
	case <-time.After(10 * time.Second):
		app.Shutdown()
		t.Fatal("Run did not return")
	}
	return b
}

func TestNewValidatesConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.View.TabWidth = 0
	if _, err := New(Options{Config: cfg}); err == nil {
		t.Error("expected validation error")
	}
}

func TestNewWithBadJournalPathDisablesJournal(t *testing.T) {
	dir := t.TempDir()
	blocker := writeFile(t, dir, "file", "x")

	cfg := testConfig(t)
	cfg.Journal.Path = filepath.Join(blocker, "journal.db")
	app := newTestApp(t, cfg, Options{})
	if app.JournalEnabled() {
		t.Error("expected journal to be disabled")
	}
}

func TestOpenKeepsCurrentDocumentOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "alpha\nbeta\n")
	app := newTestApp(t, testConfig(t), Options{})

	if err := app.Open(path, false); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	doc := app.Document()

	err := app.Open(filepath.Join(dir, "missing.txt"), false)
	var opErr *OperationError
	if !errors.As(err, &opErr) || opErr.Op != "open" {
		t.Fatalf("expected open OperationError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist in chain, got %v", err)
	}
	if app.Document() != doc {
		t.Error("expected current document to be kept")
	}
	if got := doc.Buffer.Line(1); got != "beta" {
		t.Errorf("expected current document readable, got %q", got)
	}
}

func TestOpenRefusesOverUnsavedEdits(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", "a\n")
	b := writeFile(t, dir, "b.txt", "b\n")
	app := newTestApp(t, testConfig(t), Options{})

	if err := app.Open(a, false); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	app.Document().Buffer.SetLine(0, "edited")

	if err := app.Open(b, false); !errors.Is(err, ErrUnsavedChanges) {
		t.Fatalf("expected ErrUnsavedChanges, got %v", err)
	}
	if err := app.Open(b, true); err != nil {
		t.Fatalf("forced Open failed: %v", err)
	}
	if got := app.Document().Buffer.Line(0); got != "b" {
		t.Errorf("expected b.txt open, got %q", got)
	}
}

func TestSaveWritesAndRemaps(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.txt", "one\ntwo\nthree\n")
	app := newTestApp(t, testConfig(t), Options{})
	if err := app.Open(path, false); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	old := app.Document()
	old.Buffer.SetLine(1, "TWO")
	old.Buffer.SplitLine(2, 2)

	n, err := app.Save()
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	want := "one\nTWO\nth\nree\n"
	if n != int64(len(want)) {
		t.Errorf("expected %d bytes, got %d", len(want), n)
	}
	if got := readFile(t, path); got != want {
		t.Errorf("file = %q, want %q", got, want)
	}

	doc := app.Document()
	if doc == old {
		t.Fatal("expected a fresh document after save")
	}
	if doc.Buffer.IsDirty() {
		t.Error("expected clean buffer after save")
	}
	if doc.Size != int64(len(want)) || doc.ChangedOnDisk() {
		t.Error("expected document to describe the saved file")
	}
	if got := doc.Buffer.Line(3); got != "ree" {
		t.Errorf("expected line 3 %q, got %q", "ree", got)
	}
}

func TestSaveReadOnly(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.txt", "x\n")
	app := newTestApp(t, testConfig(t), Options{ReadOnly: true})
	if err := app.Open(path, false); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := app.Save(); !errors.Is(err, ErrReadOnly) {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}
}

func TestNoDocument(t *testing.T) {
	app := newTestApp(t, testConfig(t), Options{})
	if _, err := app.Save(); !errors.Is(err, ErrNoDocument) {
		t.Errorf("Save: expected ErrNoDocument, got %v", err)
	}
	if err := app.Reload(); !errors.Is(err, ErrNoDocument) {
		t.Errorf("Reload: expected ErrNoDocument, got %v", err)
	}
	if err := app.CloseDocument(false); !errors.Is(err, ErrNoDocument) {
		t.Errorf("CloseDocument: expected ErrNoDocument, got %v", err)
	}
	if err := app.Run(backend.NewNullBackend(10, 5)); !errors.Is(err, ErrNoDocument) {
		t.Errorf("Run: expected ErrNoDocument, got %v", err)
	}
}

func TestExportAndWriteTo(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "a\r\nb\r\n")
	app := newTestApp(t, testConfig(t), Options{})
	if err := app.Open(path, false); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	app.Document().Buffer.InsertLine(1, "new")

	out := filepath.Join(dir, "out.txt")
	if _, err := app.Export(out); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	want := "a\r\nnew\nb\r\n"
	if got := readFile(t, out); got != want {
		t.Errorf("export = %q, want %q", got, want)
	}
	if got := readFile(t, path); got != "a\r\nb\r\n" {
		t.Errorf("expected original untouched, got %q", got)
	}

	var sb strings.Builder
	if _, err := app.WriteTo(&sb); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	if sb.String() != want {
		t.Errorf("WriteTo = %q, want %q", sb.String(), want)
	}
}

func TestReloadDropsEdits(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.txt", "orig\n")
	app := newTestApp(t, testConfig(t), Options{})
	if err := app.Open(path, false); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	app.Document().Buffer.SetLine(0, "edited")

	if err := app.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if got := app.Document().Buffer.Line(0); got != "orig" {
		t.Errorf("expected reloaded text, got %q", got)
	}
}

func TestCloseDocument(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.txt", "x\n")
	app := newTestApp(t, testConfig(t), Options{})
	if err := app.Open(path, false); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	app.Document().Buffer.SetLine(0, "y")

	if err := app.CloseDocument(false); !errors.Is(err, ErrUnsavedChanges) {
		t.Fatalf("expected ErrUnsavedChanges, got %v", err)
	}
	if err := app.CloseDocument(true); err != nil {
		t.Fatalf("forced close failed: %v", err)
	}
	if app.Document() != nil {
		t.Error("expected no document")
	}
}

func TestRunScript(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "one\ntwo\n")
	scriptPath := writeFile(t, dir, "edit.lua", `
buf.set_line(1, "ONE")
print(buf.count())
`)
	app := newTestApp(t, testConfig(t), Options{})
	if err := app.Open(path, false); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	var out strings.Builder
	if err := app.RunScript(context.Background(), scriptPath, &out); err != nil {
		t.Fatalf("RunScript failed: %v", err)
	}
	if got := app.Document().Buffer.Line(0); got != "ONE" {
		t.Errorf("expected edited line, got %q", got)
	}
	if out.String() != "3\n" {
		t.Errorf("expected script output %q, got %q", "3\n", out.String())
	}

	bad := writeFile(t, dir, "bad.lua", "error('boom')")
	err := app.RunScript(context.Background(), bad, nil)
	var opErr *OperationError
	if !errors.As(err, &opErr) || opErr.Op != "script" {
		t.Errorf("expected script OperationError, got %v", err)
	}
}

func TestRunScriptReadOnly(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "x\n")
	scriptPath := writeFile(t, dir, "s.lua", "buf.set_line(1, 'y')")
	app := newTestApp(t, testConfig(t), Options{ReadOnly: true})
	if err := app.Open(path, false); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := app.RunScript(context.Background(), scriptPath, nil); !errors.Is(err, ErrReadOnly) {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}
}

func TestJournalRecovery(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.txt", "one\ntwo\nthree\n")
	cfg := testConfig(t)

	first := newTestApp(t, cfg, Options{})
	if err := first.Open(path, false); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	first.Document().Buffer.SetLine(1, "TWO")
	first.Document().Buffer.SplitLine(0, 1)
	first.MarkEdited()
	if err := first.FlushJournal(context.Background()); err != nil {
		t.Fatalf("FlushJournal failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Without -recover the edits are only reported.
	plain := newTestApp(t, cfg, Options{})
	if err := plain.Open(path, false); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	msg, typ := plain.Message()
	if typ != statusline.MessageWarning || !strings.Contains(msg, "-recover") {
		t.Errorf("expected recover hint, got %q (%v)", msg, typ)
	}
	if plain.Document().Buffer.IsDirty() {
		t.Error("expected clean buffer without recover")
	}
	plain.Close()

	recovered := newTestApp(t, cfg, Options{Recover: true})
	if err := recovered.Open(path, false); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	buf := recovered.Document().Buffer
	want := []string{"o", "ne", "TWO", "three", ""}
	if got := buf.Lines(0, 5); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("recovered lines = %q, want %q", got, want)
	}
	if !buf.IsDirty() {
		t.Error("expected recovered buffer to be dirty")
	}
	if msg, typ := recovered.Message(); typ != statusline.MessageInfo || !strings.Contains(msg, "recovered") {
		t.Errorf("expected recovered message, got %q (%v)", msg, typ)
	}
}

func TestStaleJournalDiscarded(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.txt", "one\n")
	cfg := testConfig(t)

	first := newTestApp(t, cfg, Options{})
	if err := first.Open(path, false); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	first.Document().Buffer.SetLine(0, "edited")
	first.MarkEdited()
	if err := first.FlushJournal(context.Background()); err != nil {
		t.Fatalf("FlushJournal failed: %v", err)
	}
	first.Close()

	if err := os.WriteFile(path, []byte("changed elsewhere\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	second := newTestApp(t, cfg, Options{Recover: true})
	if err := second.Open(path, false); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if got := second.Document().Buffer.Line(0); got != "changed elsewhere" {
		t.Errorf("expected file content, got %q", got)
	}
	if msg, typ := second.Message(); typ != statusline.MessageWarning || !strings.Contains(msg, "discarded") {
		t.Errorf("expected discard warning, got %q (%v)", msg, typ)
	}
}

func TestFlushJournalRecordsMappedVersion(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.txt", "one\n")
	cfg := testConfig(t)

	first := newTestApp(t, cfg, Options{})
	if err := first.Open(path, false); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	first.Document().Buffer.SetLine(0, "edited")
	first.MarkEdited()

	// The file changes after the edits were made against the old version.
	if err := os.WriteFile(path, []byte("rewritten elsewhere\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := first.FlushJournal(context.Background()); err != nil {
		t.Fatalf("FlushJournal failed: %v", err)
	}
	first.Close()

	second := newTestApp(t, cfg, Options{Recover: true})
	if err := second.Open(path, false); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if got := second.Document().Buffer.Line(0); got != "rewritten elsewhere" {
		t.Errorf("expected edits not applied to the new file, got %q", got)
	}
	if msg, typ := second.Message(); typ != statusline.MessageWarning || !strings.Contains(msg, "discarded") {
		t.Errorf("expected discard warning, got %q (%v)", msg, typ)
	}
}

func TestFlushJournalSkipsUnchanged(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.txt", "one\n")
	cfg := testConfig(t)
	app := newTestApp(t, cfg, Options{})
	if err := app.Open(path, false); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	// Edits not reported through MarkEdited are not journaled.
	app.Document().Buffer.SetLine(0, "x")
	if err := app.FlushJournal(context.Background()); err != nil {
		t.Fatalf("FlushJournal failed: %v", err)
	}
	app.Close()

	other := newTestApp(t, cfg, Options{Recover: true})
	if err := other.Open(path, false); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if msg, _ := other.Message(); msg != "" {
		t.Errorf("expected no journal message, got %q", msg)
	}
}

func TestRunTypeSaveQuit(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.txt", "hello\nworld\n")
	app := newTestApp(t, testConfig(t), Options{})
	if err := app.Open(path, false); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	b := runWith(t, app,
		keyRune('>'),
		keyRune(' '),
		key(backend.KeyDown),
		key(backend.KeyEnd),
		keyRune('!'),
		key(backend.KeyCtrlS),
		key(backend.KeyCtrlQ),
	)

	if got := readFile(t, path); got != "> hello\nworld!\n" {
		t.Errorf("file = %q", got)
	}
	if app.IsRunning() {
		t.Error("expected event loop stopped")
	}
	if b.ShowCount() == 0 {
		t.Error("expected frames to be shown")
	}
	if m := app.Metrics().Snapshot(); m.Events < 7 || m.Frames == 0 {
		t.Errorf("unexpected metrics: %+v", m)
	}
}

func TestRunDirtyQuitNeedsSecondPress(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.txt", "x\n")
	cfg := testConfig(t)
	app := newTestApp(t, cfg, Options{})
	if err := app.Open(path, false); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	b := runWith(t, app,
		keyRune('a'),
		key(backend.KeyCtrlQ),
		key(backend.KeyCtrlQ),
	)

	if got := readFile(t, path); got != "x\n" {
		t.Errorf("expected file untouched, got %q", got)
	}
	if !strings.Contains(b.Row(9), "unsaved changes") {
		t.Errorf("expected warning on status row, got %q", b.Row(9))
	}

	app.Close()
	other := newTestApp(t, cfg, Options{Recover: true})
	if err := other.Open(path, false); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if other.Document().Buffer.IsDirty() {
		t.Error("expected discarded edits not to be recovered")
	}
}

func TestRunReadOnlyIgnoresEdits(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.txt", "x\n")
	app := newTestApp(t, testConfig(t), Options{ReadOnly: true})
	if err := app.Open(path, false); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	runWith(t, app, keyRune('a'), key(backend.KeyCtrlS), key(backend.KeyCtrlQ))

	if app.Document().Buffer.IsDirty() {
		t.Error("expected no edits in read-only mode")
	}
}

func TestRunDrawsDocument(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.txt", "first\nsecond\n")
	cfg := testConfig(t)
	cfg.View.LineNumbers = "off"
	app := newTestApp(t, cfg, Options{})
	if err := app.Open(path, false); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	b := runWith(t, app, key(backend.KeyCtrlQ))

	if got := strings.TrimRight(b.Row(0), " "); got != "first" {
		t.Errorf("row 0 = %q", got)
	}
	if got := strings.TrimRight(b.Row(1), " "); got != "second" {
		t.Errorf("row 1 = %q", got)
	}
	if !strings.Contains(b.Row(9), "a.txt") {
		t.Errorf("expected file name on status row, got %q", b.Row(9))
	}
}

func TestRunShutdown(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.txt", "x\n")
	app := newTestApp(t, testConfig(t), Options{})
	if err := app.Open(path, false); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	b := backend.NewNullBackend(40, 10)
	done := make(chan error, 1)
	go func() { done <- app.Run(b) }()

	waitFor(t, func() bool { return app.Metrics().Snapshot().Frames > 0 })
	if err := app.Run(b); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("expected ErrAlreadyRunning, got %v", err)
	}
	app.Shutdown()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Shutdown")
	}
}

func TestRunReloadsOnExternalChange(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.txt", "before\n")
	cfg := testConfig(t)
	cfg.Watch.Enabled = true
	cfg.Watch.Delay = config.Duration(20 * time.Millisecond)
	app := newTestApp(t, cfg, Options{})
	if err := app.Open(path, false); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	b := backend.NewNullBackend(40, 10)
	done := make(chan error, 1)
	go func() { done <- app.Run(b) }()
	defer func() {
		app.Shutdown()
		<-done
	}()

	waitFor(t, func() bool { return app.Metrics().Snapshot().Frames > 0 })

	tmp := path + ".new"
	if err := os.WriteFile(tmp, []byte("after the change\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}

	waitFor(t, func() bool {
		doc := app.Document()
		return doc != nil && doc.Buffer.Line(0) == "after the change"
	})
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
