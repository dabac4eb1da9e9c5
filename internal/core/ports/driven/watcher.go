package driven

import "context"

// ArchiveWatcher reports external writes to the archive file, e.g. a
// fresh import from another process. Consumers use the signal to
// supersede in-flight computations over the stale snapshot.
type ArchiveWatcher interface {
	// Watch invokes onChange after each external modification until
	// the context is cancelled. Blocking; run it on its own goroutine.
	Watch(ctx context.Context, onChange func()) error

	// Close releases the underlying watch resources.
	Close() error
}
