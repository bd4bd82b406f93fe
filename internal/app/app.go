// Package app ties the lazyline components together: it owns the open
// document, the crash-recovery journal, background indexing and file
// watching, and runs the terminal event loop.
package app

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/dshills/lazyline/internal/config"
	"github.com/dshills/lazyline/internal/controller"
	"github.com/dshills/lazyline/internal/journal"
	"github.com/dshills/lazyline/internal/logging"
	"github.com/dshills/lazyline/internal/renderer"
	"github.com/dshills/lazyline/internal/renderer/backend"
	"github.com/dshills/lazyline/internal/renderer/statusline"
	"github.com/dshills/lazyline/internal/watch"
)

// Options configures the application.
type Options struct {
	// Config is the loaded configuration. Nil means config.Default().
	Config *config.Config

	// Logger receives application logs.
	Logger zerolog.Logger

	// ReadOnly disables editing and saving.
	ReadOnly bool

	// Recover restores journaled edits when a document is opened. Without
	// it, journaled edits are reported but left in the journal.
	Recover bool
}

// Application coordinates one open document and the components around it.
type Application struct {
	mu sync.Mutex

	cfg     *config.Config
	opts    Options
	logger  zerolog.Logger
	metrics *Metrics
	journal *journal.Journal

	doc         *Document
	message     string
	messageType statusline.MessageType

	// edits counts edits made through the event loop; journaled is the
	// value of edits at the last journal write.
	edits     atomic.Uint64
	journaled atomic.Uint64

	// Event loop state, owned by the goroutine running Run.
	backend   backend.Backend
	renderer  *renderer.Renderer
	ctl       *controller.Controller
	watcher   *watch.Watcher
	quitArmed bool

	running atomic.Bool
	bg      sync.WaitGroup
}

// New creates an application. A journal that cannot be opened is logged and
// disabled rather than failing startup.
func New(opts Options) (*Application, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		cfg:     cfg,
		opts:    opts,
		logger:  logging.WithComponent(opts.Logger, "app"),
		metrics: NewMetrics(),
	}

	if cfg.Journal.Enabled {
		j, err := journal.Open(cfg.Journal.Path, journal.WithLogger(logging.WithComponent(opts.Logger, "journal")))
		if err != nil {
			app.logger.Warn().Err(err).Str("path", cfg.Journal.Path).Msg("journal disabled")
		} else {
			app.journal = j
		}
	}

	return app, nil
}

// Config returns the configuration in use.
func (app *Application) Config() *config.Config {
	return app.cfg
}

// Metrics returns the event loop metrics.
func (app *Application) Metrics() *Metrics {
	return app.metrics
}

// Document returns the open document, or nil.
func (app *Application) Document() *Document {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.doc
}

// ReadOnly reports whether editing is disabled.
func (app *Application) ReadOnly() bool {
	return app.opts.ReadOnly
}

// JournalEnabled reports whether edits are being journaled.
func (app *Application) JournalEnabled() bool {
	return app.journal != nil
}

// IsRunning returns true while the event loop is running.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// Message returns the pending status message.
func (app *Application) Message() (string, statusline.MessageType) {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.message, app.messageType
}

func (app *Application) notify(msg string, typ statusline.MessageType) {
	app.mu.Lock()
	app.message, app.messageType = msg, typ
	app.mu.Unlock()
}

func (app *Application) clearMessage() {
	app.notify("", statusline.MessageNone)
}

// Close closes the document and the journal. Unsaved edits stay in the
// journal.
func (app *Application) Close() error {
	app.mu.Lock()
	doc := app.doc
	app.doc = nil
	app.mu.Unlock()

	var first error
	if doc != nil {
		first = doc.Close()
	}
	if app.journal != nil {
		if err := app.journal.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (app *Application) documentOptions() DocumentOptions {
	return DocumentOptions{
		ChunkSize:     app.cfg.Index.ChunkSize,
		CacheCapacity: app.cfg.Cache.Capacity,
		EvictionBatch: app.cfg.Cache.EvictionBatch,
		Logger:        logging.WithComponent(app.opts.Logger, "buffer"),
	}
}
