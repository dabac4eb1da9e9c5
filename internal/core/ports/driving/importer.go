package driving

import (
	"context"

	"github.com/chatlens-labs/chatlens-cli/internal/core/domain"
)

// ImportService loads interchange documents into the archive.
type ImportService interface {
	// ImportFile decodes a JSON or JSONL interchange document and
	// appends its contents to the archive in one batch.
	ImportFile(ctx context.Context, path string, onProgress domain.ProgressFunc) (*ImportResult, error)
}

// ImportResult summarizes one import batch.
type ImportResult struct {
	// BatchID uniquely identifies the batch.
	BatchID string

	// Messages is the number of messages inserted.
	Messages int

	// Members is the number of members upserted.
	Members int

	// Converted is the number of millisecond timestamps converted to
	// seconds.
	Converted int
}
