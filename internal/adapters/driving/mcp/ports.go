package mcp

import (
	"github.com/chatlens-labs/chatlens-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Context extracts context blocks around matching messages.
	Context driving.ContextService

	// Segmentation reads the stored session partition.
	Segmentation driving.SegmentationService

	// Relationships builds relationship graphs.
	Relationships driving.RelationshipService

	// Stats summarizes the archive.
	Stats driving.StatsService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Context == nil {
		return ErrMissingContextService
	}
	// Segmentation, Relationships and Stats are optional; the tools
	// and resources backed by them degrade when absent.
	return nil
}
