package driving

import (
	"context"

	"github.com/chatlens-labs/chatlens-cli/internal/core/domain"
)

// StatsService summarizes the archive.
type StatsService interface {
	// Archive returns counts, the covered time span and top speakers.
	Archive(ctx context.Context) (*domain.ArchiveStats, error)

	// Members returns the member roster ordered by ID.
	Members(ctx context.Context) ([]domain.Member, error)
}
