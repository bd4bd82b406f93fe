package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/dshills/lazyline/internal/journal"
	"github.com/dshills/lazyline/internal/logging"
	"github.com/dshills/lazyline/internal/persist"
	"github.com/dshills/lazyline/internal/renderer/statusline"
	"github.com/dshills/lazyline/internal/script"
)

// journalTimeout bounds a single journal read or write.
const journalTimeout = 5 * time.Second

// Open opens path and makes it the current document. On failure the
// current document is left as it was. Opening over unsaved edits fails
// with ErrUnsavedChanges unless force is set.
func (app *Application) Open(path string, force bool) error {
	if cur := app.Document(); cur != nil && !force && cur.Buffer.IsDirty() {
		return NewOperationError("open", path, ErrUnsavedChanges)
	}

	doc, err := OpenDocument(path, app.documentOptions())
	if err != nil {
		return NewOperationError("open", path, err)
	}

	app.recoverEdits(doc)
	app.replace(doc, false)

	app.logger.Info().
		Str("path", doc.Path).
		Str("size", humanize.IBytes(uint64(doc.Size))).
		Str("language", doc.Language).
		Msg("document opened")
	return nil
}

// Reload reopens the current document from disk, dropping unsaved edits.
func (app *Application) Reload() error {
	cur := app.Document()
	if cur == nil {
		return ErrNoDocument
	}

	doc, err := OpenDocument(cur.Path, app.documentOptions())
	if err != nil {
		return NewOperationError("reload", cur.Path, err)
	}
	app.discardJournal(doc.Path)
	app.replace(doc, true)
	return nil
}

// CloseDocument closes the current document. Unsaved edits make it fail
// with ErrUnsavedChanges unless force is set, in which case they are
// dropped along with their journal entry.
func (app *Application) CloseDocument(force bool) error {
	app.mu.Lock()
	doc := app.doc
	if doc == nil {
		app.mu.Unlock()
		return ErrNoDocument
	}
	if doc.Buffer.IsDirty() && !force {
		app.mu.Unlock()
		return NewOperationError("close", doc.Path, ErrUnsavedChanges)
	}
	app.doc = nil
	app.mu.Unlock()

	if doc.Buffer.IsDirty() {
		app.discardJournal(doc.Path)
	}
	return doc.Close()
}

// Save writes the document back to its file and remaps the result. It
// returns the number of bytes written.
func (app *Application) Save() (int64, error) {
	if app.opts.ReadOnly {
		return 0, ErrReadOnly
	}
	cur := app.Document()
	if cur == nil {
		return 0, ErrNoDocument
	}

	n, err := persist.Save(cur.Buffer, cur.Path)
	if err != nil {
		return n, NewOperationError("save", cur.Path, err)
	}
	app.discardJournal(cur.Path)

	// The old mapping still refers to the replaced file; map the new one so
	// later edits and saves start from what is on disk.
	doc, err := OpenDocument(cur.Path, app.documentOptions())
	if err != nil {
		cur.Buffer.MarkClean()
		return n, NewOperationError("save", cur.Path, err).WithContext("remap")
	}
	app.replace(doc, true)

	app.logger.Info().Str("path", doc.Path).Int64("bytes", n).Msg("document saved")
	return n, nil
}

// Export writes the document to path atomically without changing the
// current document. It returns the number of bytes written.
func (app *Application) Export(path string) (int64, error) {
	doc := app.Document()
	if doc == nil {
		return 0, ErrNoDocument
	}
	n, err := persist.Save(doc.Buffer, path)
	if err != nil {
		return n, NewOperationError("export", path, err)
	}
	return n, nil
}

// WriteTo streams the document to w.
func (app *Application) WriteTo(w io.Writer) (int64, error) {
	doc := app.Document()
	if doc == nil {
		return 0, ErrNoDocument
	}
	return doc.Buffer.WriteTo(w)
}

// RunScript runs the Lua script at path against the document.
func (app *Application) RunScript(ctx context.Context, path string, output io.Writer) error {
	if app.opts.ReadOnly {
		return NewOperationError("script", path, ErrReadOnly)
	}
	doc := app.Document()
	if doc == nil {
		return ErrNoDocument
	}

	opts := []script.Option{
		script.WithLogger(logging.WithComponent(app.opts.Logger, "script")),
		script.WithTimeout(app.cfg.Script.Timeout.Std()),
	}
	if output != nil {
		opts = append(opts, script.WithOutput(output))
	}
	if err := script.New(opts...).RunFile(ctx, doc.Buffer, path); err != nil {
		return NewOperationError("script", path, err)
	}
	if doc.Buffer.IsDirty() {
		app.MarkEdited()
	}
	return nil
}

// replace installs doc as the current document and closes the previous
// one. keepCursor carries the cursor over when the event loop is running.
// While Run is active it must be called from the event loop goroutine.
func (app *Application) replace(doc *Document, keepCursor bool) {
	app.mu.Lock()
	old := app.doc
	app.doc = doc
	app.mu.Unlock()
	app.journaled.Store(app.edits.Load())

	if app.running.Load() {
		app.detach()
		line, col := app.ctl.Cursor()
		app.ctl.SetDocument(doc.Buffer)
		if keepCursor {
			app.ctl.SetCursor(line, col)
		}
		app.attach(doc)
	}
	if old != nil {
		if err := old.Close(); err != nil {
			app.logger.Warn().Err(err).Str("path", old.Path).Msg("close document")
		}
	}
}

// recoverEdits applies or reports journaled edits for doc.
func (app *Application) recoverEdits(doc *Document) {
	if app.journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()

	entry, err := app.journal.Load(ctx, doc.Path)
	switch {
	case errors.Is(err, journal.ErrNotFound):
		return
	case errors.Is(err, journal.ErrStale):
		app.logger.Warn().Str("path", doc.Path).Msg("journal entry is for an older version of the file; discarding")
		app.discardJournal(doc.Path)
		app.notify("discarded journaled edits: file changed since", statusline.MessageWarning)
		return
	case err != nil:
		app.logger.Warn().Err(err).Str("path", doc.Path).Msg("journal load failed")
		return
	}

	when := humanize.Time(entry.Saved)
	if !app.opts.Recover {
		app.notify(fmt.Sprintf("unsaved edits from %s in journal; reopen with -recover", when), statusline.MessageWarning)
		return
	}
	if err := doc.Buffer.Restore(entry.State); err != nil {
		app.logger.Warn().Err(err).Str("path", doc.Path).Msg("journal restore failed")
		app.notify(NewOperationError("recover", doc.Name, err).Error(), statusline.MessageError)
		return
	}
	app.notify(fmt.Sprintf("recovered %d edited lines from %s", len(entry.State.Lines), when), statusline.MessageInfo)
}

// FlushJournal writes the document's edits to the journal if they changed
// since the last write.
func (app *Application) FlushJournal(ctx context.Context) error {
	if app.journal == nil {
		return nil
	}

	app.mu.Lock()
	doc := app.doc
	edits := app.edits.Load()
	app.mu.Unlock()

	if doc == nil || edits == app.journaled.Load() {
		return nil
	}
	if !doc.Buffer.IsDirty() {
		app.journaled.Store(edits)
		return nil
	}

	// Size and ModTime are those of the mapped version the edits apply to.
	entry := journal.Entry{
		Path:    doc.Path,
		Size:    doc.Size,
		ModTime: doc.ModTime,
		State:   doc.Buffer.Snapshot(),
	}
	if err := app.journal.Save(ctx, entry); err != nil {
		return err
	}
	app.journaled.Store(edits)
	return nil
}

// MarkEdited records an edit made outside the event loop so the next
// journal flush picks it up.
func (app *Application) MarkEdited() {
	app.edits.Add(1)
}

func (app *Application) discardJournal(path string) {
	if app.journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()
	if err := app.journal.Discard(ctx, path); err != nil {
		app.logger.Warn().Err(err).Str("path", path).Msg("journal discard failed")
	}
}
