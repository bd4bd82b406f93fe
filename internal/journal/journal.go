package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // register sqlite driver

	"github.com/dshills/lazyline/internal/engine/vbuffer"
)

var (
	// ErrNotFound is returned when no entry exists for a path.
	ErrNotFound = errors.New("journal entry not found")

	// ErrStale is returned when the backing file changed after the entry was saved.
	ErrStale = errors.New("journal entry is stale")

	// ErrClosed is returned for operations on a closed journal.
	ErrClosed = errors.New("journal closed")
)

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	path       TEXT PRIMARY KEY,
	session    TEXT NOT NULL,
	file_size  INTEGER NOT NULL,
	file_mtime INTEGER NOT NULL,
	inserted   INTEGER NOT NULL,
	deleted    INTEGER NOT NULL,
	saved      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS spans (
	path  TEXT NOT NULL REFERENCES entries(path) ON DELETE CASCADE,
	seq   INTEGER NOT NULL,
	kind  INTEGER NOT NULL,
	phys  INTEGER NOT NULL,
	count INTEGER NOT NULL,
	PRIMARY KEY (path, seq)
);

CREATE TABLE IF NOT EXISTS lines (
	path TEXT NOT NULL REFERENCES entries(path) ON DELETE CASCADE,
	line INTEGER NOT NULL,
	text TEXT NOT NULL,
	PRIMARY KEY (path, line)
);
`

// Entry is the journaled edit state of one document.
type Entry struct {
	// Path is the absolute path of the backing file.
	Path string

	// Session identifies the journal that wrote the entry. Save fills it in.
	Session string

	// Size and ModTime describe the backing file the edits apply to.
	Size    int64
	ModTime time.Time

	// Saved is when the entry was written. Save fills it in.
	Saved time.Time

	State vbuffer.EditState
}

// Matches reports whether the file at the entry's path still has the
// recorded size and modification time.
func (e Entry) Matches() bool {
	info, err := os.Stat(e.Path)
	if err != nil {
		return false
	}
	return info.Size() == e.Size && info.ModTime().Equal(e.ModTime)
}

// Journal is a SQLite-backed store of unsaved edits.
type Journal struct {
	mu      sync.Mutex
	db      *sql.DB
	session string
	logger  zerolog.Logger
	closed  bool
}

// Option configures a Journal.
type Option func(*Journal)

// WithLogger sets the logger for journal operations.
func WithLogger(logger zerolog.Logger) Option {
	return func(j *Journal) {
		j.logger = logger
	}
}

// Open creates or opens a journal database at path.
func Open(path string, opts ...Option) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	// Pragmas like foreign_keys are per connection.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	j := &Journal{
		db:      db,
		session: uuid.New().String(),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// Session returns the ID stamped on entries written by this journal.
func (j *Journal) Session() string {
	return j.session
}

// Save stores e, replacing any previous entry for the same path.
func (j *Journal) Save(ctx context.Context, e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return ErrClosed
	}

	path, err := filepath.Abs(e.Path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM entries WHERE path = ?", path); err != nil {
		return fmt.Errorf("delete old entry: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO entries (path, session, file_size, file_mtime, inserted, deleted, saved)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		path, j.session, e.Size, e.ModTime.UnixNano(),
		int64(e.State.Inserted), int64(e.State.Deleted), time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}

	spanStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO spans (path, seq, kind, phys, count) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare spans: %w", err)
	}
	defer spanStmt.Close()
	for i, sp := range e.State.Spans {
		if _, err := spanStmt.ExecContext(ctx, path, i, int(sp.Kind), int64(sp.Phys), int64(sp.Count)); err != nil {
			return fmt.Errorf("insert span: %w", err)
		}
	}

	lineStmt, err := tx.PrepareContext(ctx, "INSERT INTO lines (path, line, text) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare lines: %w", err)
	}
	defer lineStmt.Close()
	for line, text := range e.State.Lines {
		if _, err := lineStmt.ExecContext(ctx, path, int64(line), text); err != nil {
			return fmt.Errorf("insert line: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	j.logger.Debug().
		Str("path", path).
		Int("lines", len(e.State.Lines)).
		Int("spans", len(e.State.Spans)).
		Msg("journal saved")
	return nil
}

// Load returns the entry for path. It returns ErrNotFound when there is none
// and ErrStale when the file no longer matches the recorded size and
// modification time.
func (j *Journal) Load(ctx context.Context, path string) (Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return Entry{}, ErrClosed
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return Entry{}, fmt.Errorf("resolve path: %w", err)
	}

	e := Entry{Path: abs}
	var mtime, saved, inserted, deleted int64
	err = j.db.QueryRowContext(ctx,
		`SELECT session, file_size, file_mtime, inserted, deleted, saved
		 FROM entries WHERE path = ?`, abs,
	).Scan(&e.Session, &e.Size, &mtime, &inserted, &deleted, &saved)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("query entry: %w", err)
	}
	e.ModTime = time.Unix(0, mtime)
	e.Saved = time.Unix(0, saved)
	e.State.Inserted = uint64(inserted)
	e.State.Deleted = uint64(deleted)

	if !e.Matches() {
		return Entry{}, fmt.Errorf("%s: %w", abs, ErrStale)
	}

	if e.State.Spans, err = loadSpans(ctx, j.db, abs); err != nil {
		return Entry{}, err
	}
	if e.State.Lines, err = loadLines(ctx, j.db, abs); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func loadSpans(ctx context.Context, db *sql.DB, path string) ([]vbuffer.Span, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT kind, phys, count FROM spans WHERE path = ? ORDER BY seq", path)
	if err != nil {
		return nil, fmt.Errorf("query spans: %w", err)
	}
	defer rows.Close()

	var spans []vbuffer.Span
	for rows.Next() {
		var kind int
		var phys, count int64
		if err := rows.Scan(&kind, &phys, &count); err != nil {
			return nil, fmt.Errorf("scan span: %w", err)
		}
		spans = append(spans, vbuffer.Span{
			Kind:  vbuffer.SpanKind(kind),
			Phys:  uint64(phys),
			Count: uint64(count),
		})
	}
	return spans, rows.Err()
}

func loadLines(ctx context.Context, db *sql.DB, path string) (map[uint64]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT line, text FROM lines WHERE path = ?", path)
	if err != nil {
		return nil, fmt.Errorf("query lines: %w", err)
	}
	defer rows.Close()

	lines := make(map[uint64]string)
	for rows.Next() {
		var line int64
		var text string
		if err := rows.Scan(&line, &text); err != nil {
			return nil, fmt.Errorf("scan line: %w", err)
		}
		lines[uint64(line)] = text
	}
	return lines, rows.Err()
}

// Discard removes the entry for path. Discarding a missing entry is not an error.
func (j *Journal) Discard(ctx context.Context, path string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return ErrClosed
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if _, err := j.db.ExecContext(ctx, "DELETE FROM entries WHERE path = ?", abs); err != nil {
		return fmt.Errorf("discard entry: %w", err)
	}
	j.logger.Debug().Str("path", abs).Msg("journal discarded")
	return nil
}

// Paths returns the paths that have journaled edits, oldest first.
func (j *Journal) Paths(ctx context.Context) ([]string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil, ErrClosed
	}

	rows, err := j.db.QueryContext(ctx, "SELECT path FROM entries ORDER BY saved")
	if err != nil {
		return nil, fmt.Errorf("query paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan path: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// Close closes the database. Close is idempotent.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	return j.db.Close()
}
