package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/dshills/lazyline/internal/controller"
	"github.com/dshills/lazyline/internal/logging"
	"github.com/dshills/lazyline/internal/renderer"
	"github.com/dshills/lazyline/internal/renderer/backend"
	"github.com/dshills/lazyline/internal/renderer/gutter"
	"github.com/dshills/lazyline/internal/renderer/statusline"
	"github.com/dshills/lazyline/internal/renderer/viewport"
	"github.com/dshills/lazyline/internal/watch"
)

// Interrupt payloads posted to the backend by background goroutines.
type (
	indexProgress struct {
		doc      *Document
		progress float64
		done     bool
	}

	fileChanged struct {
		doc   *Document
		event watch.Event
	}

	quitRequest struct{}
)

// Run draws the current document on b and processes events until the user
// quits or Shutdown is called. It initializes and shuts down b.
func (app *Application) Run(b backend.Backend) error {
	doc := app.Document()
	if doc == nil {
		return ErrNoDocument
	}
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	if err := b.Init(); err != nil {
		return NewOperationError("init", "terminal", err)
	}
	defer b.Shutdown()

	app.mu.Lock()
	app.backend = b
	app.mu.Unlock()
	app.renderer = renderer.New(b, app.rendererOptions())
	app.ctl = controller.New(doc.Buffer, app.renderer, controller.Config{
		ReadOnly:    app.opts.ReadOnly,
		ScrollLines: app.cfg.View.ScrollLines,
	})
	app.quitArmed = false
	app.attach(doc)

	ctx, cancel := context.WithCancel(context.Background())
	app.bg.Add(1)
	go app.journalLoop(ctx)

	defer func() {
		cancel()
		app.detach()
		if d := app.Document(); d != nil {
			d.StopIndexing()
		}
		app.bg.Wait()
		m := app.metrics.Snapshot()
		app.logger.Debug().
			Uint64("frames", m.Frames).
			Dur("avg_frame", m.AvgFrameTime).
			Dur("max_frame", m.MaxFrameTime).
			Uint64("events", m.Events).
			Dur("uptime", m.Uptime).
			Msg("event loop stopped")
	}()

	app.draw()
	for {
		ev := b.PollEvent()
		start := time.Now()
		quit, redraw := app.handleEvent(ev)
		app.metrics.RecordEvent(time.Since(start))
		if quit {
			return nil
		}
		if redraw {
			app.draw()
		}
	}
}

// Shutdown asks a running event loop to return. It is safe to call from
// any goroutine.
func (app *Application) Shutdown() {
	app.mu.Lock()
	b := app.backend
	app.mu.Unlock()
	if b == nil || !app.running.Load() {
		return
	}
	b.PostEvent(backend.Event{Type: backend.EventInterrupt, Payload: quitRequest{}})
}

// handleEvent processes one event on the event loop goroutine.
func (app *Application) handleEvent(ev backend.Event) (quit, redraw bool) {
	switch ev.Type {
	case backend.EventResize:
		app.renderer.Resize(ev.Width, ev.Height)
		return false, true
	case backend.EventInterrupt:
		return app.handleInterrupt(ev.Payload)
	case backend.EventKey, backend.EventMouse:
		return app.handleInput(ev)
	default:
		return false, false
	}
}

func (app *Application) handleInput(ev backend.Event) (quit, redraw bool) {
	if ev.Type == backend.EventKey {
		if msg, _ := app.Message(); msg != "" {
			app.clearMessage()
			redraw = true
		}
	}

	before := app.ctl.Edits()
	action := app.ctl.HandleEvent(ev)
	if n := app.ctl.Edits() - before; n > 0 {
		app.edits.Add(n)
	}
	if action != controller.ActionQuit && ev.Type == backend.EventKey {
		app.quitArmed = false
	}

	switch action {
	case controller.ActionQuit:
		return app.requestQuit(), true
	case controller.ActionSave:
		app.save()
		return false, true
	case controller.ActionRedraw:
		return false, true
	}
	return false, redraw
}

// requestQuit reports whether the loop should stop. Unsaved edits need a
// second quit key; they are then dropped along with their journal entry.
func (app *Application) requestQuit() bool {
	doc := app.Document()
	if doc == nil || !doc.Buffer.IsDirty() {
		return true
	}
	if !app.quitArmed {
		app.quitArmed = true
		app.notify("unsaved changes: press Ctrl-Q again to quit without saving", statusline.MessageWarning)
		return false
	}
	app.discardJournal(doc.Path)
	app.edits.Store(app.journaled.Load())
	return true
}

func (app *Application) save() {
	n, err := app.Save()
	if err != nil {
		app.logger.Error().Err(err).Msg("save failed")
		app.notify(err.Error(), statusline.MessageError)
		return
	}
	doc := app.Document()
	app.notify(fmt.Sprintf("wrote %s (%s)", doc.Name, humanize.IBytes(uint64(n))), statusline.MessageInfo)
}

func (app *Application) handleInterrupt(payload any) (quit, redraw bool) {
	switch p := payload.(type) {
	case quitRequest:
		return true, false
	case indexProgress:
		if p.doc != app.Document() {
			return false, false
		}
		return false, true
	case fileChanged:
		return false, app.handleExternalChange(p.doc, p.event)
	}
	return false, false
}

// handleExternalChange reacts to another process touching the open file.
// Clean documents are reloaded; unsaved edits are kept and a warning shown.
func (app *Application) handleExternalChange(doc *Document, ev watch.Event) bool {
	if doc != app.Document() {
		return false
	}

	if _, err := os.Stat(doc.Path); errors.Is(err, os.ErrNotExist) {
		app.notify(doc.Name+" was removed on disk", statusline.MessageWarning)
		return true
	}
	// Our own saves remap the file, so they never look changed here.
	if !doc.ChangedOnDisk() {
		return false
	}

	app.logger.Info().Str("path", doc.Path).Stringer("op", ev.Op).Msg("file changed on disk")
	if doc.Buffer.IsDirty() {
		app.notify(doc.Name+" changed on disk; unsaved edits refer to the old version", statusline.MessageWarning)
		return true
	}
	if err := app.Reload(); err != nil {
		app.notify(err.Error(), statusline.MessageError)
		return true
	}
	app.notify("reloaded "+doc.Name+": changed on disk", statusline.MessageInfo)
	return true
}

// attach starts background work for doc: indexing and, if enabled,
// watching the file.
func (app *Application) attach(doc *Document) {
	b := app.backend
	started := time.Now()
	doc.StartIndexing(func(progress float64, done bool) {
		if done {
			app.metrics.RecordIndexing(time.Since(started))
			app.logger.Debug().
				Str("path", doc.Path).
				Uint64("lines", doc.Buffer.Index().KnownLines()).
				Dur("elapsed", time.Since(started)).
				Msg("indexing complete")
		}
		b.PostEvent(backend.Event{
			Type:    backend.EventInterrupt,
			Payload: indexProgress{doc: doc, progress: progress, done: done},
		})
	})

	if !app.cfg.Watch.Enabled {
		return
	}
	w, err := watch.New(doc.Path,
		watch.WithDelay(app.cfg.Watch.Delay.Std()),
		watch.WithLogger(logging.WithComponent(app.opts.Logger, "watch")),
	)
	if err != nil {
		app.logger.Warn().Err(err).Str("path", doc.Path).Msg("watch disabled")
		return
	}
	app.watcher = w

	app.bg.Add(1)
	go func() {
		defer app.bg.Done()
		events, errs := w.Events(), w.Errors()
		for events != nil || errs != nil {
			select {
			case ev, ok := <-events:
				if !ok {
					events = nil
					continue
				}
				b.PostEvent(backend.Event{
					Type:    backend.EventInterrupt,
					Payload: fileChanged{doc: doc, event: ev},
				})
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				app.logger.Warn().Err(err).Str("path", doc.Path).Msg("watch error")
			}
		}
	}()
}

// detach stops the watcher started by attach. Indexing stops when the
// document is closed.
func (app *Application) detach() {
	if app.watcher == nil {
		return
	}
	if err := app.watcher.Close(); err != nil {
		app.logger.Warn().Err(err).Msg("close watcher")
	}
	app.watcher = nil
}

func (app *Application) journalLoop(ctx context.Context) {
	defer app.bg.Done()
	if app.journal == nil {
		return
	}

	ticker := time.NewTicker(app.cfg.Journal.Interval.Std())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			app.flushJournalLogged()
			return
		case <-ticker.C:
			app.flushJournalLogged()
		}
	}
}

func (app *Application) flushJournalLogged() {
	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()
	if err := app.FlushJournal(ctx); err != nil {
		app.logger.Warn().Err(err).Msg("journal write failed")
	}
}

func (app *Application) draw() {
	doc := app.Document()
	if doc == nil {
		return
	}
	start := time.Now()

	st := app.renderer.Status()
	st.SetFile(doc.Name, doc.Language, doc.Size)
	st.SetModified(doc.Buffer.IsDirty())
	st.SetReadOnly(app.opts.ReadOnly)
	idx := doc.Buffer.Index()
	st.SetLineCount(doc.Buffer.EstimateLineCount(), idx.Complete(), idx.Progress())
	if msg, typ := app.Message(); msg != "" {
		st.SetMessage(msg, typ)
	} else {
		st.ClearMessage()
	}

	line, col := app.ctl.Cursor()
	app.renderer.Render(renderer.Frame{Doc: doc.Buffer, CursorLine: line, CursorCol: col})
	app.metrics.RecordFrame(time.Since(start))
}

func (app *Application) rendererOptions() renderer.Options {
	v := app.cfg.View
	opts := renderer.DefaultOptions()
	if mode, ok := gutter.ParseMode(v.LineNumbers); ok {
		opts.LineNumbers = mode
	}
	opts.TabWidth = v.TabWidth
	opts.MaxLineDisplay = v.MaxLineDisplay
	opts.Margins = viewport.MarginConfig{
		Top:    v.MarginLines,
		Bottom: v.MarginLines,
		Left:   v.MarginColumns,
		Right:  v.MarginColumns,
	}
	return opts
}
