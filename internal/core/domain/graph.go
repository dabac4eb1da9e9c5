package domain

import "math"

// Default tuning for relationship scoring. Zero-valued options resolve
// to these through GraphOptions.Normalize.
const (
	DefaultMentionWeight  = 0.6
	DefaultTemporalWeight = 0.4

	DefaultDecaySeconds     = 120
	DefaultLookAhead        = 3
	DefaultMinScore         = 0.12
	DefaultMinTemporalTurns = 2
	DefaultTopEdges         = 100
	DefaultMentionEdges     = 80
	DefaultClusterEdges     = 120
	DefaultWindowSeconds    = 300
	DefaultGapSeconds       = 1800
	DefaultContextSize      = 10
	DefaultPageSize         = 50
)

// GraphOptions tunes a relationship-graph build. The zero value means
// "use defaults"; Normalize resolves it and renormalizes the weights
// to sum to 1.
type GraphOptions struct {
	// MentionWeight, TemporalWeight and ReciprocityWeight blend the
	// signals into closeness. A non-positive sum falls back to the
	// default 0.6/0.4 split with no reciprocity term.
	MentionWeight     float64
	TemporalWeight    float64
	ReciprocityWeight float64

	// WindowSeconds bounds the forward scan by elapsed time instead of
	// by distinct-speaker count. Zero keeps the lookahead bound.
	WindowSeconds int

	// DecaySeconds controls exponential decay of adjacency weight.
	DecaySeconds int

	// LookAhead bounds how many distinct subsequent speakers one
	// anchor message can credit.
	LookAhead int

	// MinScore is the closeness floor an edge must reach.
	MinScore float64

	// MinTemporalTurns is the eligibility floor for pairs with no
	// mentions.
	MinTemporalTurns int

	// TopEdges caps the edge list after sorting.
	TopEdges int

	// Range restricts scoring to a time window when non-nil.
	Range *TimeRange
}

// Normalize returns a copy with zero fields replaced by defaults and
// the weights scaled to sum to 1. Malformed weights are corrected, not
// rejected.
func (o GraphOptions) Normalize() GraphOptions {
	sum := o.MentionWeight + o.TemporalWeight + o.ReciprocityWeight
	if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		o.MentionWeight = DefaultMentionWeight
		o.TemporalWeight = DefaultTemporalWeight
		o.ReciprocityWeight = 0
	} else if sum != 1 {
		o.MentionWeight /= sum
		o.TemporalWeight /= sum
		o.ReciprocityWeight /= sum
	}
	if o.DecaySeconds <= 0 {
		o.DecaySeconds = DefaultDecaySeconds
	}
	if o.LookAhead <= 0 {
		o.LookAhead = DefaultLookAhead
	}
	if o.MinScore <= 0 {
		o.MinScore = DefaultMinScore
	}
	if o.MinTemporalTurns <= 0 {
		o.MinTemporalTurns = DefaultMinTemporalTurns
	}
	if o.TopEdges <= 0 {
		o.TopEdges = DefaultTopEdges
	}
	return o
}

// RelationshipNode is one member appearing in at least one kept edge.
// Members with no kept edge never appear; the graph stays sparse.
type RelationshipNode struct {
	// ID is the member ID.
	ID string `json:"id"`

	// Name is the display name at build time.
	Name string `json:"name"`

	// MessageCount is messages sent within the build scope.
	MessageCount int `json:"messageCount"`

	// Degree is the number of kept edges touching this node.
	Degree int `json:"degree"`

	// TotalCloseness sums the closeness of incident kept edges.
	TotalCloseness float64 `json:"totalCloseness"`
}

// RelationshipEdge is one scored relationship between two members.
type RelationshipEdge struct {
	// Source and Target are member IDs in canonical order.
	Source string `json:"source"`
	Target string `json:"target"`

	// Value is the blended closeness score, rounded to 4 decimals.
	Value float64 `json:"value"`

	// MentionCount is the pair's undirected mention count.
	MentionCount int `json:"mentionCount"`

	// TemporalTurns is the pair's qualifying adjacency count.
	TemporalTurns int `json:"temporalTurns"`

	// TemporalScore is the pair's hybrid adjacency score.
	TemporalScore float64 `json:"temporalScore"`

	// Reciprocity is min/max of the directed mention counts, 0 when
	// either direction is empty.
	Reciprocity float64 `json:"reciprocity,omitempty"`
}

// GraphBuildStats summarizes a build for logging and inspection.
type GraphBuildStats struct {
	// MessagesScanned is the number of messages the build read.
	MessagesScanned int `json:"messagesScanned"`

	// PairsScored is the number of pairs carrying any signal.
	PairsScored int `json:"pairsScored"`

	// EdgesKept is the edge count after eligibility and truncation.
	EdgesKept int `json:"edgesKept"`

	// EdgesDropped is the number of scored pairs that failed
	// eligibility or fell past the truncation cap.
	EdgesDropped int `json:"edgesDropped"`
}

// RelationshipGraph is a derived, recomputable view. It is rebuilt on
// every request and never persisted.
type RelationshipGraph struct {
	Nodes []RelationshipNode `json:"nodes"`
	Edges []RelationshipEdge `json:"edges"`

	// MaxEdgeValue is the largest edge value, 0 for an empty graph.
	MaxEdgeValue float64 `json:"maxEdgeValue"`

	Stats GraphBuildStats `json:"stats"`
}

// EmptyGraph returns the degraded-to-empty result used when the
// archive is missing or holds no messages.
func EmptyGraph() *RelationshipGraph {
	return &RelationshipGraph{
		Nodes: []RelationshipNode{},
		Edges: []RelationshipEdge{},
	}
}

// Round4 rounds to 4 decimal places, the precision scores are reported
// and compared at.
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// Round2 rounds to 2 decimal places, used for percentages.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
