package driving

import (
	"context"
	"io"

	"github.com/chatlens-labs/chatlens-cli/internal/core/domain"
)

// ExportService streams formatted context blocks to persistent output.
type ExportService interface {
	// Export runs the context pipeline for the query and writes one
	// formatted section per block to w. Returns the block count.
	// Progress events carry (blocksWritten, totalBlocks); a mid-stream
	// failure emits a terminal error event before returning.
	Export(ctx context.Context, q domain.ContextQuery, w io.Writer, onProgress domain.ProgressFunc) (int, error)

	// ExportFile exports to a file path. Output lands in a temporary
	// file and is renamed into place only on success, so a partial
	// file is never left looking complete.
	ExportFile(ctx context.Context, q domain.ContextQuery, path string, onProgress domain.ProgressFunc) (int, error)

	// ExportSessions streams whole sessions instead of filter matches.
	ExportSessions(ctx context.Context, ids []int64, w io.Writer, onProgress domain.ProgressFunc) (int, error)

	// ExportSessionsFile exports whole sessions to a file path with the
	// same temp-and-rename guarantee as ExportFile.
	ExportSessionsFile(ctx context.Context, ids []int64, path string, onProgress domain.ProgressFunc) (int, error)
}
