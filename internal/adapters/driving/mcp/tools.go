package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/chatlens-labs/chatlens-cli/internal/core/domain"
)

// FilterContextInput is the input schema for the filter_context tool.
type FilterContextInput struct {
	Keywords    []string `json:"keywords,omitempty" jsonschema:"keywords to match in message content, combined as OR"`
	Senders     []string `json:"senders,omitempty" jsonschema:"restrict hits to these senders (ids, display names or aliases)"`
	FromTs      int64    `json:"from_ts,omitempty" jsonschema:"range start in unix seconds (0 = unbounded)"`
	ToTs        int64    `json:"to_ts,omitempty" jsonschema:"range end in unix seconds (0 = unbounded)"`
	ContextSize int      `json:"context_size,omitempty" jsonschema:"messages kept on each side of a hit (default 10)"`
	Page        int      `json:"page,omitempty" jsonschema:"page to return, 1-based (default 1)"`
	PageSize    int      `json:"page_size,omitempty" jsonschema:"blocks per page (default 50)"`
}

// SessionsContextInput is the input schema for the sessions_context tool.
type SessionsContextInput struct {
	SessionIDs []int64 `json:"session_ids" jsonschema:"sessions to return verbatim"`
	Page       int     `json:"page,omitempty" jsonschema:"page to return, 1-based (default 1)"`
	PageSize   int     `json:"page_size,omitempty" jsonschema:"blocks per page (default 50)"`
}

// ContextOutput is the output schema shared by the context tools.
type ContextOutput struct {
	Blocks     []domain.ContextBlock `json:"blocks"`
	Stats      domain.ContextStats   `json:"stats"`
	Pagination domain.PageInfo       `json:"pagination"`
}

// RelationshipGraphInput is the input schema for the relationship_graph tool.
type RelationshipGraphInput struct {
	Mode     string  `json:"mode,omitempty" jsonschema:"graph mode: unified (default), mentions or clusters"`
	FromTs   int64   `json:"from_ts,omitempty" jsonschema:"range start in unix seconds (0 = unbounded)"`
	ToTs     int64   `json:"to_ts,omitempty" jsonschema:"range end in unix seconds (0 = unbounded)"`
	TopEdges int     `json:"top_edges,omitempty" jsonschema:"edge cap after ranking (default per mode)"`
	MinScore float64 `json:"min_score,omitempty" jsonschema:"closeness floor an edge must reach (default 0.12)"`
}

// RelationshipGraphOutput is the output schema for the relationship_graph tool.
type RelationshipGraphOutput struct {
	Graph *domain.RelationshipGraph `json:"graph"`
}

// ArchiveStatsInput is the empty input schema for the archive_stats tool.
type ArchiveStatsInput struct{}

// ArchiveStatsOutput is the output schema for the archive_stats tool.
type ArchiveStatsOutput struct {
	Stats *domain.ArchiveStats `json:"stats"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "filter_context",
		Description: "Extract context blocks around messages matching keywords, senders or a time range",
	}, s.handleFilterContext)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "sessions_context",
		Description: "Return whole sessions as verbatim context blocks",
	}, s.handleSessionsContext)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "relationship_graph",
		Description: "Build the member relationship graph from mention and message-timing signals",
	}, s.handleRelationshipGraph)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "archive_stats",
		Description: "Summarize the archive: message, member and session counts, time span and top speakers",
	}, s.handleArchiveStats)
}

// handleFilterContext handles the filter_context tool invocation.
func (s *Server) handleFilterContext(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FilterContextInput,
) (*mcp.CallToolResult, ContextOutput, error) {
	q := domain.ContextQuery{
		Keywords:    input.Keywords,
		ContextSize: input.ContextSize,
	}
	if input.FromTs != 0 || input.ToTs != 0 {
		q.Range = &domain.TimeRange{From: input.FromTs, To: input.ToTs}
	}
	if len(input.Senders) > 0 {
		resolved, err := s.ports.Context.ResolveMembers(ctx, input.Senders)
		if err != nil {
			return nil, ContextOutput{}, fmt.Errorf("resolving senders: %w", err)
		}
		if len(resolved) == 0 {
			return nil, ContextOutput{}, fmt.Errorf("%w: no sender matched %v", domain.ErrInvalidInput, input.Senders)
		}
		q.Senders = resolved
	}

	page := domain.PageRequest{Page: input.Page, PageSize: input.PageSize}
	result, err := s.ports.Context.FilterWithContext(ctx, q, page)
	if err != nil {
		return nil, ContextOutput{}, err
	}

	return nil, contextOutput(result), nil
}

// handleSessionsContext handles the sessions_context tool invocation.
func (s *Server) handleSessionsContext(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SessionsContextInput,
) (*mcp.CallToolResult, ContextOutput, error) {
	if len(input.SessionIDs) == 0 {
		return nil, ContextOutput{}, fmt.Errorf("%w: session_ids must not be empty", domain.ErrInvalidInput)
	}

	page := domain.PageRequest{Page: input.Page, PageSize: input.PageSize}
	result, err := s.ports.Context.SessionsContext(ctx, input.SessionIDs, page)
	if err != nil {
		return nil, ContextOutput{}, err
	}

	return nil, contextOutput(result), nil
}

// handleRelationshipGraph handles the relationship_graph tool invocation.
func (s *Server) handleRelationshipGraph(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RelationshipGraphInput,
) (*mcp.CallToolResult, RelationshipGraphOutput, error) {
	if s.ports.Relationships == nil {
		return nil, RelationshipGraphOutput{}, errors.New("relationship analysis is not available")
	}

	opts := domain.GraphOptions{
		TopEdges: input.TopEdges,
		MinScore: input.MinScore,
	}
	if input.FromTs != 0 || input.ToTs != 0 {
		opts.Range = &domain.TimeRange{From: input.FromTs, To: input.ToTs}
	}

	var (
		graph *domain.RelationshipGraph
		err   error
	)
	switch input.Mode {
	case "", "unified":
		graph, err = s.ports.Relationships.BuildGraph(ctx, opts)
	case "mentions":
		graph, err = s.ports.Relationships.BuildMentionGraph(ctx, opts)
	case "clusters":
		graph, err = s.ports.Relationships.BuildClusterGraph(ctx, opts)
	default:
		return nil, RelationshipGraphOutput{}, fmt.Errorf(
			"%w: unknown mode %q (want unified, mentions or clusters)", domain.ErrInvalidInput, input.Mode)
	}
	if err != nil {
		return nil, RelationshipGraphOutput{}, err
	}

	return nil, RelationshipGraphOutput{Graph: graph}, nil
}

// handleArchiveStats handles the archive_stats tool invocation.
func (s *Server) handleArchiveStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ArchiveStatsInput,
) (*mcp.CallToolResult, ArchiveStatsOutput, error) {
	if s.ports.Stats == nil {
		return nil, ArchiveStatsOutput{}, errors.New("archive statistics are not available")
	}

	stats, err := s.ports.Stats.Archive(ctx)
	if err != nil {
		return nil, ArchiveStatsOutput{}, err
	}

	return nil, ArchiveStatsOutput{Stats: stats}, nil
}

// contextOutput flattens a context result into the tool output schema.
func contextOutput(result *domain.ContextResult) ContextOutput {
	return ContextOutput{
		Blocks:     result.Blocks,
		Stats:      result.Stats,
		Pagination: result.Pagination,
	}
}
