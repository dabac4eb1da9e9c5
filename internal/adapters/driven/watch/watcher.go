// Package watch implements archive file watching with fsnotify.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/chatlens-labs/chatlens-cli/internal/core/ports/driven"
	"github.com/chatlens-labs/chatlens-cli/internal/logger"
)

// Ensure ArchiveWatcher implements the interface.
var _ driven.ArchiveWatcher = (*ArchiveWatcher)(nil)

// debounceDelay coalesces the burst of events one SQLite commit emits
// (main file, WAL, journal) into a single change signal.
const debounceDelay = 500 * time.Millisecond

// ArchiveWatcher watches the archive database file for writes from
// other processes.
type ArchiveWatcher struct {
	archivePath string
	watcher     *fsnotify.Watcher
}

// NewArchiveWatcher creates a watcher over the directory containing
// the archive file. The directory is watched rather than the file so
// rename-replace writes keep being observed.
func NewArchiveWatcher(archivePath string) (*ArchiveWatcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	if err := fsWatcher.Add(filepath.Dir(archivePath)); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("watching archive directory: %w", err)
	}

	return &ArchiveWatcher{
		archivePath: archivePath,
		watcher:     fsWatcher,
	}, nil
}

// Watch invokes onChange after each external modification until the
// context is cancelled.
func (w *ArchiveWatcher) Watch(ctx context.Context, onChange func()) error {
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !w.isArchiveFile(event.Name) {
				continue
			}
			logger.Debug("Archive changed on disk: %s (%s)", event.Name, event.Op)
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, onChange)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Archive watcher error: %v", err)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close releases the underlying watch resources.
func (w *ArchiveWatcher) Close() error {
	return w.watcher.Close()
}

// isArchiveFile reports whether name is the archive or one of its
// SQLite sidecar files (-wal, -shm, -journal).
func (w *ArchiveWatcher) isArchiveFile(name string) bool {
	return strings.HasPrefix(filepath.Base(name), filepath.Base(w.archivePath))
}
