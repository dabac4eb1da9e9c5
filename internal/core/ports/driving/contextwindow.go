package driving

import (
	"context"

	"github.com/chatlens-labs/chatlens-cli/internal/core/domain"
)

// ContextService extracts paginated context blocks around matches.
type ContextService interface {
	// FilterWithContext finds messages matching the query, expands
	// each hit to a surrounding window, merges overlapping windows
	// into blocks and returns one page of them.
	FilterWithContext(ctx context.Context, q domain.ContextQuery, page domain.PageRequest) (*domain.ContextResult, error)

	// SessionsContext returns each requested session as one verbatim
	// block, ordered by session start, paginated the same way.
	SessionsContext(ctx context.Context, ids []int64, page domain.PageRequest) (*domain.ContextResult, error)

	// ResolveMembers maps display names, aliases or raw ids to member
	// ids. Unknown tokens are dropped, preserving input order.
	ResolveMembers(ctx context.Context, tokens []string) ([]string, error)
}
