package driven

import (
	"context"

	"github.com/chatlens-labs/chatlens-cli/internal/core/domain"
)

// MessageStore persists messages and members.
// Backed by SQLite for archive storage.
//
// Reads over an absent archive return domain.ErrArchiveUnavailable;
// services on the read path translate that into empty results.
type MessageStore interface {
	// ScanMessages streams lightweight message projections ordered by
	// (timestamp, id), optionally bounded by a time range. The scan
	// stops at the first error fn returns and propagates it.
	ScanMessages(ctx context.Context, r *domain.TimeRange, fn func(domain.Message) error) error

	// FetchRange reads a bounded slice of the same ordered stream at
	// full fidelity: sender names and reply previews resolved. Offset
	// is stream-relative, matching ScanMessages indices.
	FetchRange(ctx context.Context, r *domain.TimeRange, offset, limit int) ([]domain.MessageDetail, error)

	// MessagesBySession reads a session's full message set in order.
	MessagesBySession(ctx context.Context, sessionID int64) ([]domain.MessageDetail, error)

	// CountMessages returns the message count within a time range.
	CountMessages(ctx context.Context, r *domain.TimeRange) (int, error)

	// CountMessagesBySender returns per-member message counts.
	CountMessagesBySender(ctx context.Context) (map[string]int, error)

	// ListMembers returns all known members with their alias history.
	ListMembers(ctx context.Context) ([]domain.Member, error)

	// SaveMembers upserts members, merging alias sets.
	SaveMembers(ctx context.Context, members []domain.Member) error

	// AppendMessages bulk-inserts messages in one transaction, tagged
	// with the import batch id. Re-importing a message id overwrites
	// the stored row.
	AppendMessages(ctx context.Context, batchID string, messages []domain.Message) error
}
