package driving

import (
	"context"

	"github.com/chatlens-labs/chatlens-cli/internal/core/domain"
)

// InteractionService scores explicit @-mention interactions.
type InteractionService interface {
	// Score builds the directed mention matrix over an optional time
	// range and derives ranked totals and one-way/mutual relations.
	Score(ctx context.Context, r *domain.TimeRange) (*domain.MentionStats, error)
}

// TemporalService scores implicit temporal adjacency between speakers.
type TemporalService interface {
	// Score runs a decay-weighted adjacency pass over an optional time
	// range. Options follow domain.GraphOptions.Normalize semantics;
	// a non-zero WindowSeconds bounds the forward scan by elapsed time
	// instead of distinct-speaker count.
	Score(ctx context.Context, opts domain.GraphOptions) (*domain.TemporalStats, error)
}
