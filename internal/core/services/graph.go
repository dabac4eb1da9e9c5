package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/chatlens-labs/chatlens-cli/internal/core/domain"
	"github.com/chatlens-labs/chatlens-cli/internal/core/ports/driven"
	"github.com/chatlens-labs/chatlens-cli/internal/core/ports/driving"
	"github.com/chatlens-labs/chatlens-cli/internal/logger"
)

// Ensure GraphService implements the interface.
var _ driving.RelationshipService = (*GraphService)(nil)

// pairSignals holds one pair's inputs to the closeness blend.
type pairSignals struct {
	mentionAB    int
	mentionBA    int
	mentionTotal int
	turns        int
	temporal     float64 // hybrid adjacency score
}

// GraphService builds ranked relationship graphs by combining the
// mention and temporal scorers.
type GraphService struct {
	messages     driven.MessageStore
	interactions driving.InteractionService
	temporal     driving.TemporalService
}

// NewGraphService creates a new relationship graph service.
func NewGraphService(
	messages driven.MessageStore,
	interactions driving.InteractionService,
	temporal driving.TemporalService,
) *GraphService {
	return &GraphService{
		messages:     messages,
		interactions: interactions,
		temporal:     temporal,
	}
}

// BuildGraph combines mention and temporal signals into the unified
// closeness graph.
func (s *GraphService) BuildGraph(ctx context.Context, opts domain.GraphOptions) (*domain.RelationshipGraph, error) {
	logger.Section("Relationship Graph")
	defer logger.Timing("graph build")()
	opts = opts.Normalize()

	mention, err := s.interactions.Score(ctx, opts.Range)
	if err != nil {
		return nil, fmt.Errorf("mention signal: %w", err)
	}
	temporal, err := s.temporal.Score(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("temporal signal: %w", err)
	}

	signals := make(map[domain.PairKey]*pairSignals)
	for pk, stat := range mention.Pairs() {
		signals[pk] = &pairSignals{
			mentionAB:    stat.MentionAB,
			mentionBA:    stat.MentionBA,
			mentionTotal: stat.MentionTotal(),
		}
	}
	for _, p := range temporal.Pairs {
		sig := signals[p.Pair]
		if sig == nil {
			sig = &pairSignals{}
			signals[p.Pair] = sig
		}
		sig.turns = p.Turns
		sig.temporal = p.Hybrid
	}

	scanned := mention.MessageCount
	counts := temporal.SpeakerCounts
	if temporal.MessageCount > scanned {
		scanned = temporal.MessageCount
	}
	if len(counts) == 0 {
		counts = mention.SpeakerCounts
	}

	return s.assemble(ctx, signals, counts, scanned, opts)
}

// BuildMentionGraph ranks edges by the mention signal alone.
func (s *GraphService) BuildMentionGraph(ctx context.Context, opts domain.GraphOptions) (*domain.RelationshipGraph, error) {
	logger.Section("Mention Graph")
	if opts.TopEdges <= 0 {
		opts.TopEdges = domain.DefaultMentionEdges
	}
	opts.MentionWeight = 1
	opts.TemporalWeight = 0
	opts.ReciprocityWeight = 0
	opts = opts.Normalize()

	mention, err := s.interactions.Score(ctx, opts.Range)
	if err != nil {
		return nil, fmt.Errorf("mention signal: %w", err)
	}

	signals := make(map[domain.PairKey]*pairSignals)
	for pk, stat := range mention.Pairs() {
		signals[pk] = &pairSignals{
			mentionAB:    stat.MentionAB,
			mentionBA:    stat.MentionBA,
			mentionTotal: stat.MentionTotal(),
		}
	}
	return s.assemble(ctx, signals, mention.SpeakerCounts, mention.MessageCount, opts)
}

// BuildClusterGraph ranks edges by window-bounded temporal adjacency
// alone, surfacing small groups that talk in bursts.
func (s *GraphService) BuildClusterGraph(ctx context.Context, opts domain.GraphOptions) (*domain.RelationshipGraph, error) {
	logger.Section("Cluster Graph")
	if opts.WindowSeconds <= 0 {
		opts.WindowSeconds = domain.DefaultWindowSeconds
	}
	if opts.TopEdges <= 0 {
		opts.TopEdges = domain.DefaultClusterEdges
	}
	opts.MentionWeight = 0
	opts.TemporalWeight = 1
	opts.ReciprocityWeight = 0
	opts = opts.Normalize()

	temporal, err := s.temporal.Score(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("temporal signal: %w", err)
	}

	signals := make(map[domain.PairKey]*pairSignals)
	for _, p := range temporal.Pairs {
		signals[p.Pair] = &pairSignals{turns: p.Turns, temporal: p.Hybrid}
	}
	return s.assemble(ctx, signals, temporal.SpeakerCounts, temporal.MessageCount, opts)
}

// assemble scores, filters, sorts, truncates and derives nodes.
func (s *GraphService) assemble(
	ctx context.Context,
	signals map[domain.PairKey]*pairSignals,
	speakerCounts map[string]int,
	scanned int,
	opts domain.GraphOptions,
) (*domain.RelationshipGraph, error) {
	graph := domain.EmptyGraph()
	graph.Stats.MessagesScanned = scanned
	graph.Stats.PairsScored = len(signals)
	if len(signals) == 0 {
		return graph, nil
	}

	var maxMention, maxTemporal float64
	for _, sig := range signals {
		if float64(sig.mentionTotal) > maxMention {
			maxMention = float64(sig.mentionTotal)
		}
		if sig.temporal > maxTemporal {
			maxTemporal = sig.temporal
		}
	}

	edges := make([]domain.RelationshipEdge, 0, len(signals))
	for pk, sig := range signals {
		var mentionNorm, temporalNorm float64
		if maxMention > 0 {
			mentionNorm = float64(sig.mentionTotal) / maxMention
		}
		if maxTemporal > 0 {
			temporalNorm = sig.temporal / maxTemporal
		}

		// Reciprocity is a balance ratio and already lives in [0, 1].
		var reciprocity float64
		if sig.mentionAB > 0 && sig.mentionBA > 0 {
			minDir, maxDir := sig.mentionAB, sig.mentionBA
			if minDir > maxDir {
				minDir, maxDir = maxDir, minDir
			}
			reciprocity = float64(minDir) / float64(maxDir)
		}

		closeness := opts.MentionWeight*mentionNorm +
			opts.TemporalWeight*temporalNorm +
			opts.ReciprocityWeight*reciprocity

		if sig.mentionTotal == 0 && sig.turns < opts.MinTemporalTurns {
			continue
		}
		if closeness < opts.MinScore {
			continue
		}

		edges = append(edges, domain.RelationshipEdge{
			Source:        pk.A,
			Target:        pk.B,
			Value:         domain.Round4(closeness),
			MentionCount:  sig.mentionTotal,
			TemporalTurns: sig.turns,
			TemporalScore: sig.temporal,
			Reciprocity:   domain.Round4(reciprocity),
		})
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Value != edges[j].Value {
			return edges[i].Value > edges[j].Value
		}
		if edges[i].MentionCount != edges[j].MentionCount {
			return edges[i].MentionCount > edges[j].MentionCount
		}
		if edges[i].TemporalScore != edges[j].TemporalScore {
			return edges[i].TemporalScore > edges[j].TemporalScore
		}
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		return edges[i].Target < edges[j].Target
	})
	if len(edges) > opts.TopEdges {
		edges = edges[:opts.TopEdges]
	}

	graph.Edges = edges
	graph.Stats.EdgesKept = len(edges)
	graph.Stats.EdgesDropped = graph.Stats.PairsScored - len(edges)
	if len(edges) > 0 {
		graph.MaxEdgeValue = edges[0].Value
	}

	graph.Nodes = s.deriveNodes(ctx, edges, speakerCounts)
	logger.Info("Graph: %d nodes, %d edges (dropped %d)",
		len(graph.Nodes), len(graph.Edges), graph.Stats.EdgesDropped)
	return graph, nil
}

// deriveNodes builds the node list strictly from kept edges. Members
// without a kept edge stay out of the graph.
func (s *GraphService) deriveNodes(
	ctx context.Context, edges []domain.RelationshipEdge, speakerCounts map[string]int,
) []domain.RelationshipNode {
	if len(edges) == 0 {
		return []domain.RelationshipNode{}
	}

	var idx *domain.AliasIndex
	if members, err := s.messages.ListMembers(ctx); err == nil {
		idx = domain.NewAliasIndex(members)
	} else if !errors.Is(err, domain.ErrArchiveUnavailable) {
		logger.Warn("Member lookup failed, node names fall back to ids: %v", err)
	}

	byID := make(map[string]*domain.RelationshipNode)
	for _, e := range edges {
		for _, id := range []string{e.Source, e.Target} {
			node := byID[id]
			if node == nil {
				name := id
				if idx != nil {
					name = idx.DisplayName(id)
				}
				node = &domain.RelationshipNode{
					ID:           id,
					Name:         name,
					MessageCount: speakerCounts[id],
				}
				byID[id] = node
			}
			node.Degree++
			node.TotalCloseness += e.Value
		}
	}

	nodes := make([]domain.RelationshipNode, 0, len(byID))
	for _, node := range byID {
		node.TotalCloseness = domain.Round4(node.TotalCloseness)
		nodes = append(nodes, *node)
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].TotalCloseness != nodes[j].TotalCloseness {
			return nodes[i].TotalCloseness > nodes[j].TotalCloseness
		}
		return nodes[i].ID < nodes[j].ID
	})
	return nodes
}
