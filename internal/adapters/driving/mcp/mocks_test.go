package mcp

import (
	"context"

	"github.com/chatlens-labs/chatlens-cli/internal/core/domain"
)

// mockContextService is a mock implementation of driving.ContextService.
type mockContextService struct {
	result   *domain.ContextResult
	resolved []string
	err      error
}

func (m *mockContextService) FilterWithContext(
	_ context.Context,
	_ domain.ContextQuery,
	_ domain.PageRequest,
) (*domain.ContextResult, error) {
	return m.result, m.err
}

func (m *mockContextService) SessionsContext(
	_ context.Context,
	_ []int64,
	_ domain.PageRequest,
) (*domain.ContextResult, error) {
	return m.result, m.err
}

func (m *mockContextService) ResolveMembers(_ context.Context, _ []string) ([]string, error) {
	return m.resolved, m.err
}

// mockSegmentationService is a mock implementation of driving.SegmentationService.
type mockSegmentationService struct {
	sessions []domain.Session
	count    int
	err      error
}

func (m *mockSegmentationService) Generate(_ context.Context, _ int, _ domain.ProgressFunc) (int, error) {
	return m.count, m.err
}

func (m *mockSegmentationService) Sessions(_ context.Context) ([]domain.Session, error) {
	return m.sessions, m.err
}

func (m *mockSegmentationService) Clear(_ context.Context) error {
	return m.err
}

func (m *mockSegmentationService) Annotate(_ context.Context, _ int64, _ string) error {
	return m.err
}

// mockRelationshipService is a mock implementation of driving.RelationshipService.
// It records which build mode was invoked.
type mockRelationshipService struct {
	graph  *domain.RelationshipGraph
	err    error
	called string
}

func (m *mockRelationshipService) BuildGraph(
	_ context.Context, _ domain.GraphOptions,
) (*domain.RelationshipGraph, error) {
	m.called = "unified"
	return m.graph, m.err
}

func (m *mockRelationshipService) BuildMentionGraph(
	_ context.Context, _ domain.GraphOptions,
) (*domain.RelationshipGraph, error) {
	m.called = "mentions"
	return m.graph, m.err
}

func (m *mockRelationshipService) BuildClusterGraph(
	_ context.Context, _ domain.GraphOptions,
) (*domain.RelationshipGraph, error) {
	m.called = "clusters"
	return m.graph, m.err
}

// mockStatsService is a mock implementation of driving.StatsService.
type mockStatsService struct {
	stats   *domain.ArchiveStats
	members []domain.Member
	err     error
}

func (m *mockStatsService) Archive(_ context.Context) (*domain.ArchiveStats, error) {
	return m.stats, m.err
}

func (m *mockStatsService) Members(_ context.Context) ([]domain.Member, error) {
	return m.members, m.err
}
