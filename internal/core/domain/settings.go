package domain

// SegmentationSettings holds session segmentation configuration.
type SegmentationSettings struct {
	// GapSeconds is the inter-message gap that splits sessions.
	GapSeconds int
}

// GraphSettings holds relationship-graph configuration.
type GraphSettings struct {
	// MentionWeight scales the mention signal.
	MentionWeight float64

	// TemporalWeight scales the temporal signal.
	TemporalWeight float64

	// ReciprocityWeight scales the optional reciprocity signal.
	ReciprocityWeight float64

	// DecaySeconds controls adjacency decay.
	DecaySeconds int

	// WindowSeconds bounds the cluster-graph forward scan.
	WindowSeconds int

	// LookAhead bounds distinct partners per anchor.
	LookAhead int

	// MinScore is the edge closeness floor.
	MinScore float64

	// MinTemporalTurns is the mention-less eligibility floor.
	MinTemporalTurns int

	// TopEdges caps the unified graph's edge list.
	TopEdges int
}

// Options converts graph settings to build options.
func (g GraphSettings) Options() GraphOptions {
	return GraphOptions{
		MentionWeight:     g.MentionWeight,
		TemporalWeight:    g.TemporalWeight,
		ReciprocityWeight: g.ReciprocityWeight,
		DecaySeconds:      g.DecaySeconds,
		WindowSeconds:     g.WindowSeconds,
		LookAhead:         g.LookAhead,
		MinScore:          g.MinScore,
		MinTemporalTurns:  g.MinTemporalTurns,
		TopEdges:          g.TopEdges,
	}.Normalize()
}

// ContextSettings holds context extraction configuration.
type ContextSettings struct {
	// Size is the number of messages kept on each side of a hit.
	Size int

	// PageSize is blocks per page.
	PageSize int
}

// AnalysisSettings holds all engine settings.
type AnalysisSettings struct {
	// Segmentation holds session segmentation settings.
	Segmentation SegmentationSettings

	// Graph holds relationship-graph settings.
	Graph GraphSettings

	// Context holds context extraction settings.
	Context ContextSettings
}

// DefaultAnalysisSettings returns settings with the engine defaults.
// Malformed stored values are corrected to these rather than rejected.
func DefaultAnalysisSettings() AnalysisSettings {
	return AnalysisSettings{
		Segmentation: SegmentationSettings{
			GapSeconds: DefaultGapSeconds,
		},
		Graph: GraphSettings{
			MentionWeight:    DefaultMentionWeight,
			TemporalWeight:   DefaultTemporalWeight,
			DecaySeconds:     DefaultDecaySeconds,
			WindowSeconds:    DefaultWindowSeconds,
			LookAhead:        DefaultLookAhead,
			MinScore:         DefaultMinScore,
			MinTemporalTurns: DefaultMinTemporalTurns,
			TopEdges:         DefaultTopEdges,
		},
		Context: ContextSettings{
			Size:     DefaultContextSize,
			PageSize: DefaultPageSize,
		},
	}
}
