// Package journal keeps a crash-recovery copy of unsaved edits in SQLite.
//
// Each journaled document is stored under its absolute path together with
// the size and modification time of the backing file at the time the edits
// were made. Edits are only meaningful against the exact bytes they were made
// over, so Load refuses an entry whose file has since changed and reports
// ErrStale.
//
// Basic usage:
//
//	j, err := journal.Open(filepath.Join(dataDir, "journal.db"))
//	if err != nil {
//		return err
//	}
//	defer j.Close()
//
//	// periodically, while the buffer is dirty; size and modTime are
//	// those of the file the buffer was opened from
//	err = j.Save(ctx, journal.Entry{
//		Path:    path,
//		Size:    size,
//		ModTime: modTime,
//		State:   buf.Snapshot(),
//	})
//
//	// on startup
//	entry, err := j.Load(ctx, path)
//	if err == nil {
//		err = buf.Restore(entry.State)
//	}
//
//	// after a successful save
//	err = j.Discard(ctx, path)
//
// # Thread Safety
//
// A Journal may be used from multiple goroutines.
package journal
