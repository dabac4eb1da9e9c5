package driving

import (
	"context"

	"github.com/chatlens-labs/chatlens-cli/internal/core/domain"
)

// RelationshipService builds ranked relationship graphs.
// Graphs are derived views: every call recomputes from the archive.
type RelationshipService interface {
	// BuildGraph combines mention and temporal signals into the
	// unified closeness graph.
	BuildGraph(ctx context.Context, opts domain.GraphOptions) (*domain.RelationshipGraph, error)

	// BuildMentionGraph ranks edges by the mention signal alone.
	BuildMentionGraph(ctx context.Context, opts domain.GraphOptions) (*domain.RelationshipGraph, error)

	// BuildClusterGraph ranks edges by window-bounded temporal
	// adjacency alone, surfacing small groups that talk in bursts.
	BuildClusterGraph(ctx context.Context, opts domain.GraphOptions) (*domain.RelationshipGraph, error)
}
