// Package persist writes documents to disk atomically.
//
// Save streams the document into a temporary file in the destination
// directory, syncs it and renames it over the destination. A reader of the
// destination path sees either the old contents or the new, never a partial
// write. The old file's inode is left intact, so a memory mapping of it stays
// valid until it is closed.
package persist

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultMode is the permission used when the destination does not exist.
const DefaultMode fs.FileMode = 0o644

// ErrNotRegular is returned when the destination exists but is not a regular file.
var ErrNotRegular = errors.New("destination is not a regular file")

// Save writes src to path atomically and returns the number of bytes written.
// An existing destination keeps its permission bits; symlinks are followed so
// the link target is replaced rather than the link.
func Save(src io.WriterTo, path string) (int64, error) {
	target, mode, err := resolveTarget(path)
	if err != nil {
		return 0, err
	}

	dir := filepath.Dir(target)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	// Remove the temp file on any failure below.
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	n, err := src.WriteTo(tmp)
	if err != nil {
		return n, fmt.Errorf("failed to write %s: %w", target, err)
	}
	if err := tmp.Sync(); err != nil {
		return n, fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		return n, fmt.Errorf("failed to set mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return n, fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return n, fmt.Errorf("failed to replace %s: %w", target, err)
	}
	committed = true

	syncDir(dir)
	return n, nil
}

// resolveTarget follows symlinks and returns the file to replace and the
// mode the new file should carry.
func resolveTarget(path string) (string, fs.FileMode, error) {
	target := path
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		target = resolved
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", 0, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	info, err := os.Stat(target)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return target, DefaultMode, nil
	case err != nil:
		return "", 0, fmt.Errorf("failed to stat %s: %w", target, err)
	case !info.Mode().IsRegular():
		return "", 0, fmt.Errorf("%s: %w", target, ErrNotRegular)
	}
	return target, info.Mode().Perm(), nil
}

// syncDir flushes the directory entry for the rename. Failure is ignored;
// not every platform supports syncing a directory.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
