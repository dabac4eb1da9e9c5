package driven

import (
	"context"

	"github.com/chatlens-labs/chatlens-cli/internal/core/domain"
)

// SessionStore persists the session partition.
// Sessions are a derived index over messages: regeneration replaces the
// whole partition, never merges into it.
type SessionStore interface {
	// ReplaceSessions atomically swaps the stored partition for the
	// given one. On failure the prior partition is left intact.
	ReplaceSessions(ctx context.Context, sessions []domain.Session) error

	// ClearSessions removes all sessions and message links.
	ClearSessions(ctx context.Context) error

	// ListSessions returns all sessions ordered by start time.
	ListSessions(ctx context.Context) ([]domain.Session, error)

	// SessionsByIDs returns the named sessions ordered by start time.
	// Unknown ids are skipped, not an error.
	SessionsByIDs(ctx context.Context, ids []int64) ([]domain.Session, error)

	// SetSummary attaches a summary to one session.
	// Returns domain.ErrNotFound for an unknown id.
	SetSummary(ctx context.Context, id int64, summary string) error
}
