package driving

import (
	"context"

	"github.com/chatlens-labs/chatlens-cli/internal/core/domain"
)

// SegmentationService partitions the archive into sessions.
type SegmentationService interface {
	// Generate rebuilds the session partition using the given gap
	// threshold in seconds (0 means the configured default) and
	// returns the session count. The previous partition is replaced
	// atomically. Progress events are throttled; the final event is
	// always delivered.
	Generate(ctx context.Context, gapSeconds int, onProgress domain.ProgressFunc) (int, error)

	// Sessions returns the stored partition ordered by start time.
	Sessions(ctx context.Context) ([]domain.Session, error)

	// Clear removes the stored partition.
	Clear(ctx context.Context) error

	// Annotate attaches a summary to one session.
	Annotate(ctx context.Context, id int64, summary string) error
}
