package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatlens-labs/chatlens-cli/internal/adapters/driven/storage/memory"
	"github.com/chatlens-labs/chatlens-cli/internal/core/domain"
)

// --- Mock implementations ---

// graphMockInteractions feeds a crafted mention signal into the graph
// builder.
type graphMockInteractions struct {
	stats  *domain.MentionStats
	err    error
	called bool
}

func (m *graphMockInteractions) Score(_ context.Context, _ *domain.TimeRange) (*domain.MentionStats, error) {
	m.called = true
	if m.err != nil {
		return nil, m.err
	}
	return m.stats, nil
}

// graphMockTemporal feeds a crafted temporal signal into the graph
// builder and records the options it received.
type graphMockTemporal struct {
	stats  *domain.TemporalStats
	err    error
	opts   domain.GraphOptions
	called bool
}

func (m *graphMockTemporal) Score(_ context.Context, opts domain.GraphOptions) (*domain.TemporalStats, error) {
	m.called = true
	m.opts = opts
	if m.err != nil {
		return nil, m.err
	}
	return m.stats, nil
}

// --- Test helpers ---

func mentionSignal(matrix map[domain.DirectedKey]int, counts map[string]int, scanned int) *domain.MentionStats {
	total := 0
	for _, c := range matrix {
		total += c
	}
	return &domain.MentionStats{
		Matrix:        matrix,
		SpeakerCounts: counts,
		MessageCount:  scanned,
		TotalMentions: total,
	}
}

func temporalSignal(pairs []domain.TemporalPairScore, counts map[string]int, scanned int) *domain.TemporalStats {
	return &domain.TemporalStats{
		Pairs:         pairs,
		SpeakerCounts: counts,
		MessageCount:  scanned,
	}
}

func emptySignals() (*graphMockInteractions, *graphMockTemporal) {
	return &graphMockInteractions{stats: mentionSignal(map[domain.DirectedKey]int{}, map[string]int{}, 0)},
		&graphMockTemporal{stats: temporalSignal(nil, map[string]int{}, 0)}
}

// --- Tests ---

func TestGraphService_BuildGraph_BlendsSignals(t *testing.T) {
	store := seedStore(t, testMembers())
	interactions := &graphMockInteractions{stats: mentionSignal(
		map[domain.DirectedKey]int{{From: "alice", To: "bob"}: 3},
		map[string]int{"alice": 4, "bob": 3, "carol": 3},
		10,
	)}
	temporal := &graphMockTemporal{stats: temporalSignal(
		[]domain.TemporalPairScore{
			{Pair: domain.NewPairKey("alice", "carol"), Turns: 5, Hybrid: 0.9},
			{Pair: domain.NewPairKey("bob", "carol"), Turns: 1, Hybrid: 0.2},
		},
		map[string]int{"alice": 4, "bob": 3, "carol": 3},
		10,
	)}
	service := NewGraphService(store.MessageStore(), interactions, temporal)

	graph, err := service.BuildGraph(context.Background(), domain.GraphOptions{})

	require.NoError(t, err)
	assert.True(t, interactions.called)
	assert.True(t, temporal.called)

	// bob-carol has no mentions and only one turn, so it fails
	// eligibility; the other two pairs survive.
	wantEdges := []domain.RelationshipEdge{
		{Source: "alice", Target: "bob", Value: 0.6, MentionCount: 3},
		{Source: "alice", Target: "carol", Value: 0.4, TemporalTurns: 5, TemporalScore: 0.9},
	}
	assert.Equal(t, wantEdges, graph.Edges)
	assert.Equal(t, 0.6, graph.MaxEdgeValue)
	assert.Equal(t, 10, graph.Stats.MessagesScanned)
	assert.Equal(t, 3, graph.Stats.PairsScored)
	assert.Equal(t, 2, graph.Stats.EdgesKept)
	assert.Equal(t, 1, graph.Stats.EdgesDropped)

	wantNodes := []domain.RelationshipNode{
		{ID: "alice", Name: "Alice", MessageCount: 4, Degree: 2, TotalCloseness: 1},
		{ID: "bob", Name: "Bob", MessageCount: 3, Degree: 1, TotalCloseness: 0.6},
		{ID: "carol", Name: "Carol", MessageCount: 3, Degree: 1, TotalCloseness: 0.4},
	}
	assert.Equal(t, wantNodes, graph.Nodes)
}

func TestGraphService_BuildGraph_RenormalizesWeights(t *testing.T) {
	store := memory.NewStore()
	interactions := &graphMockInteractions{stats: mentionSignal(
		map[domain.DirectedKey]int{{From: "a", To: "b"}: 3},
		map[string]int{"a": 2, "b": 2},
		4,
	)}
	temporal := &graphMockTemporal{stats: temporalSignal(
		[]domain.TemporalPairScore{{Pair: domain.NewPairKey("a", "b"), Turns: 3, Hybrid: 0.9}},
		map[string]int{"a": 2, "b": 2},
		4,
	)}
	service := NewGraphService(store.MessageStore(), interactions, temporal)

	graph, err := service.BuildGraph(context.Background(), domain.GraphOptions{
		MentionWeight:  2,
		TemporalWeight: 2,
	})

	require.NoError(t, err)
	assert.Equal(t, 0.5, temporal.opts.MentionWeight)
	assert.Equal(t, 0.5, temporal.opts.TemporalWeight)
	require.Len(t, graph.Edges, 1)
	assert.Equal(t, 1.0, graph.Edges[0].Value, "both maxima belong to the only pair")
}

func TestGraphService_BuildGraph_FallsBackOnBadWeights(t *testing.T) {
	store := memory.NewStore()
	interactions, temporal := emptySignals()
	service := NewGraphService(store.MessageStore(), interactions, temporal)

	_, err := service.BuildGraph(context.Background(), domain.GraphOptions{
		MentionWeight:  -1,
		TemporalWeight: 0.5,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultMentionWeight, temporal.opts.MentionWeight)
	assert.Equal(t, domain.DefaultTemporalWeight, temporal.opts.TemporalWeight)
	assert.Zero(t, temporal.opts.ReciprocityWeight)
}

func TestGraphService_BuildGraph_MinScoreFloor(t *testing.T) {
	store := memory.NewStore()
	interactions := &graphMockInteractions{stats: mentionSignal(map[domain.DirectedKey]int{}, map[string]int{}, 8)}
	temporal := &graphMockTemporal{stats: temporalSignal(
		[]domain.TemporalPairScore{
			{Pair: domain.NewPairKey("a", "b"), Turns: 5, Hybrid: 0.9},
			{Pair: domain.NewPairKey("c", "d"), Turns: 5, Hybrid: 0.2},
		},
		map[string]int{"a": 2, "b": 2, "c": 2, "d": 2},
		8,
	)}
	service := NewGraphService(store.MessageStore(), interactions, temporal)

	graph, err := service.BuildGraph(context.Background(), domain.GraphOptions{})

	require.NoError(t, err)
	// c-d normalizes to 0.2/0.9 and lands at 0.4*0.222 = 0.089,
	// under the 0.12 closeness floor.
	require.Len(t, graph.Edges, 1)
	assert.Equal(t, domain.NewPairKey("a", "b").A, graph.Edges[0].Source)
	assert.Equal(t, 1, graph.Stats.EdgesDropped)
}

func TestGraphService_BuildGraph_TruncatesAndDropsIsolates(t *testing.T) {
	store := memory.NewStore()
	interactions := &graphMockInteractions{stats: mentionSignal(map[domain.DirectedKey]int{}, map[string]int{}, 0)}
	temporal := &graphMockTemporal{stats: temporalSignal(
		[]domain.TemporalPairScore{
			{Pair: domain.NewPairKey("a", "b"), Turns: 5, Hybrid: 0.9},
			{Pair: domain.NewPairKey("c", "d"), Turns: 5, Hybrid: 0.8},
			{Pair: domain.NewPairKey("e", "f"), Turns: 5, Hybrid: 0.7},
		},
		map[string]int{"a": 1, "b": 1, "c": 1, "d": 1, "e": 1, "f": 1},
		6,
	)}
	service := NewGraphService(store.MessageStore(), interactions, temporal)

	graph, err := service.BuildGraph(context.Background(), domain.GraphOptions{TopEdges: 2})

	require.NoError(t, err)
	assert.Len(t, graph.Edges, 2)
	assert.Equal(t, 2, graph.Stats.EdgesKept)
	assert.Equal(t, 1, graph.Stats.EdgesDropped)

	// Truncated pairs leave no isolated nodes behind.
	assert.Len(t, graph.Nodes, 4)
	for _, n := range graph.Nodes {
		assert.Positive(t, n.Degree)
	}
}

func TestGraphService_BuildGraph_EmptySignals(t *testing.T) {
	store := memory.NewStore()
	interactions, temporal := emptySignals()
	service := NewGraphService(store.MessageStore(), interactions, temporal)

	graph, err := service.BuildGraph(context.Background(), domain.GraphOptions{})

	require.NoError(t, err)
	assert.Empty(t, graph.Edges)
	assert.Empty(t, graph.Nodes)
	assert.NotNil(t, graph.Edges)
	assert.NotNil(t, graph.Nodes)
	assert.Zero(t, graph.MaxEdgeValue)
	assert.Zero(t, graph.Stats.PairsScored)
}

func TestGraphService_BuildGraph_SignalErrors(t *testing.T) {
	store := memory.NewStore()

	t.Run("mention signal", func(t *testing.T) {
		interactions := &graphMockInteractions{err: errors.New("boom")}
		_, temporal := emptySignals()
		service := NewGraphService(store.MessageStore(), interactions, temporal)

		_, err := service.BuildGraph(context.Background(), domain.GraphOptions{})

		require.Error(t, err)
		assert.ErrorContains(t, err, "mention signal")
	})

	t.Run("temporal signal", func(t *testing.T) {
		interactions, _ := emptySignals()
		temporal := &graphMockTemporal{err: errors.New("boom")}
		service := NewGraphService(store.MessageStore(), interactions, temporal)

		_, err := service.BuildGraph(context.Background(), domain.GraphOptions{})

		require.Error(t, err)
		assert.ErrorContains(t, err, "temporal signal")
	})
}

func TestGraphService_BuildMentionGraph(t *testing.T) {
	store := memory.NewStore()
	interactions := &graphMockInteractions{stats: mentionSignal(
		map[domain.DirectedKey]int{
			{From: "a", To: "b"}: 4,
			{From: "b", To: "a"}: 2,
		},
		map[string]int{"a": 5, "b": 5},
		10,
	)}
	temporal := &graphMockTemporal{}
	service := NewGraphService(store.MessageStore(), interactions, temporal)

	graph, err := service.BuildMentionGraph(context.Background(), domain.GraphOptions{})

	require.NoError(t, err)
	assert.False(t, temporal.called, "mention mode never runs the temporal pass")
	require.Len(t, graph.Edges, 1)

	edge := graph.Edges[0]
	assert.Equal(t, 1.0, edge.Value, "the heaviest mention pair defines the scale")
	assert.Equal(t, 6, edge.MentionCount)
	assert.Equal(t, 0.5, edge.Reciprocity)
}

func TestGraphService_BuildClusterGraph(t *testing.T) {
	store := memory.NewStore()
	interactions := &graphMockInteractions{}
	temporal := &graphMockTemporal{stats: temporalSignal(
		[]domain.TemporalPairScore{
			{Pair: domain.NewPairKey("a", "b"), Turns: 3, Hybrid: 0.5},
			{Pair: domain.NewPairKey("c", "d"), Turns: 2, Hybrid: 0.25},
		},
		map[string]int{"a": 2, "b": 2, "c": 1, "d": 1},
		6,
	)}
	service := NewGraphService(store.MessageStore(), interactions, temporal)

	graph, err := service.BuildClusterGraph(context.Background(), domain.GraphOptions{})

	require.NoError(t, err)
	assert.False(t, interactions.called, "cluster mode never runs the mention pass")
	assert.Equal(t, domain.DefaultWindowSeconds, temporal.opts.WindowSeconds)
	assert.Equal(t, 1.0, temporal.opts.TemporalWeight)
	assert.Zero(t, temporal.opts.MentionWeight)

	require.Len(t, graph.Edges, 2)
	assert.Equal(t, 1.0, graph.Edges[0].Value)
	assert.Equal(t, 0.5, graph.Edges[1].Value)

	// Unknown members keep their ids as names.
	assert.Equal(t, "a", graph.Nodes[0].Name)
}

func TestGraphService_BuildGraph_EndToEnd(t *testing.T) {
	store := seedStore(t, testMembers(),
		msg(1, "alice", 0, "morning @Bob"),
		msg(2, "bob", 10, "hey @Alice"),
		msg(3, "alice", 20, "standup?"),
		msg(4, "bob", 30, "yes"),
		msg(5, "carol", 10000, "lunch"),
		msg(6, "alice", 10010, "sure"),
	)
	interactions := NewInteractionService(store.MessageStore(), nil)
	temporal := NewTemporalService(store.MessageStore(), nil)
	service := NewGraphService(store.MessageStore(), interactions, temporal)

	graph, err := service.BuildGraph(context.Background(), domain.GraphOptions{})

	require.NoError(t, err)
	require.Len(t, graph.Edges, 2)

	top := graph.Edges[0]
	assert.Equal(t, "alice", top.Source)
	assert.Equal(t, "bob", top.Target)
	assert.Equal(t, 1.0, top.Value, "alice-bob holds both signal maxima")
	assert.Equal(t, 2, top.MentionCount)
	assert.Equal(t, 1.0, top.Reciprocity)

	second := graph.Edges[1]
	assert.Equal(t, "alice", second.Source)
	assert.Equal(t, "carol", second.Target)
	assert.Equal(t, 0.2, second.Value)

	require.Len(t, graph.Nodes, 3)
	assert.Equal(t, "Alice", graph.Nodes[0].Name)
	assert.Equal(t, 1.2, graph.Nodes[0].TotalCloseness)
	for _, n := range graph.Nodes {
		assert.Positive(t, n.Degree, "no isolated nodes")
	}

	for i := 1; i < len(graph.Edges); i++ {
		assert.LessOrEqual(t, graph.Edges[i].Value, graph.Edges[i-1].Value)
	}
}
