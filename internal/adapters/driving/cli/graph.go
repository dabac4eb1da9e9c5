package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chatlens-labs/chatlens-cli/internal/adapters/driven/storage/memory"
	"github.com/chatlens-labs/chatlens-cli/internal/core/domain"
	"github.com/chatlens-labs/chatlens-cli/internal/core/ports/driving"
	"github.com/chatlens-labs/chatlens-cli/internal/core/services"
	"github.com/chatlens-labs/chatlens-cli/internal/normalisers/chatlog"
)

var (
	graphInput   string
	graphMode    string
	graphJSON    string
	graphDiagram string
	graphFrom    string
	graphTo      string

	graphMentionWeight     float64
	graphTemporalWeight    float64
	graphReciprocityWeight float64
	graphDecay             int
	graphWindow            int
	graphLookAhead         int
	graphMinScore          float64
	graphMinTurns          int
	graphTopEdges          int
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Build the relationship graph",
	Long: `Combines the mention and temporal-adjacency signals into a ranked
relationship graph over the archive.

With --input the archive is bypassed entirely: the given interchange
document is scored standalone, using its pre-extracted mention tokens
when present. Use --json and --diagram to write machine-readable
outputs; without them a summary is printed.`,
	RunE: runGraph,
}

func init() {
	f := graphCmd.Flags()
	f.StringVarP(&graphInput, "input", "i", "", "score a standalone interchange document instead of the archive")
	f.StringVar(&graphMode, "mode", "unified", "signal mix: unified, mentions or clusters")
	f.StringVar(&graphJSON, "json", "", "write the graph as JSON to this file ('-' for stdout)")
	f.StringVar(&graphDiagram, "diagram", "", "write a Mermaid diagram description to this file")
	f.StringVar(&graphFrom, "from", "", "range start (date, datetime or unix seconds)")
	f.StringVar(&graphTo, "to", "", "range end (date, datetime or unix seconds)")

	f.Float64Var(&graphMentionWeight, "mention-weight", 0, "mention signal weight")
	f.Float64Var(&graphTemporalWeight, "temporal-weight", 0, "temporal signal weight")
	f.Float64Var(&graphReciprocityWeight, "reciprocity-weight", 0, "reciprocity signal weight")
	f.IntVar(&graphDecay, "decay", 0, "adjacency decay in seconds")
	f.IntVar(&graphWindow, "window", 0, "cluster window in seconds")
	f.IntVar(&graphLookAhead, "lookahead", 0, "distinct partners credited per anchor message")
	f.Float64Var(&graphMinScore, "min-score", 0, "edge closeness floor")
	f.IntVar(&graphMinTurns, "min-turns", 0, "eligibility floor for mention-less pairs")
	f.IntVar(&graphTopEdges, "top", 0, "edge cap after ranking")

	rootCmd.AddCommand(graphCmd)
}

func runGraph(cmd *cobra.Command, _ []string) error {
	opts, err := graphOptions(cmd)
	if err != nil {
		return err
	}

	builder := relationshipService
	if graphInput != "" {
		builder, err = offlineBuilder(graphInput)
		if err != nil {
			return err
		}
	}
	if builder == nil {
		return errors.New("relationship service not configured")
	}

	ctx := context.Background()
	graph, err := buildByMode(ctx, builder, opts)
	if err != nil {
		return fmt.Errorf("graph build failed: %w", err)
	}

	wrote := false
	if graphJSON != "" {
		if err := writeGraphJSON(cmd, graph, graphJSON); err != nil {
			return err
		}
		wrote = true
	}
	if graphDiagram != "" {
		if err := os.WriteFile(graphDiagram, []byte(renderDiagram(graph)), 0o644); err != nil {
			return fmt.Errorf("writing diagram: %w", err)
		}
		cmd.Printf("Wrote diagram to %s.\n", graphDiagram)
		wrote = true
	}
	if !wrote {
		outputGraphSummary(cmd, graph)
	}
	return nil
}

// graphOptions resolves build options: configured settings first, then
// explicit flag overrides. Malformed flag values never reach here;
// cobra rejects them during parsing.
func graphOptions(cmd *cobra.Command) (domain.GraphOptions, error) {
	var opts domain.GraphOptions
	if settingsService != nil {
		if cfg, err := settingsService.Get(); err == nil {
			opts = cfg.Graph.Options()
		}
	}

	f := cmd.Flags()
	if f.Changed("mention-weight") {
		opts.MentionWeight = graphMentionWeight
	}
	if f.Changed("temporal-weight") {
		opts.TemporalWeight = graphTemporalWeight
	}
	if f.Changed("reciprocity-weight") {
		opts.ReciprocityWeight = graphReciprocityWeight
	}
	if f.Changed("decay") {
		opts.DecaySeconds = graphDecay
	}
	if f.Changed("window") {
		opts.WindowSeconds = graphWindow
	}
	if f.Changed("lookahead") {
		opts.LookAhead = graphLookAhead
	}
	if f.Changed("min-score") {
		opts.MinScore = graphMinScore
	}
	if f.Changed("min-turns") {
		opts.MinTemporalTurns = graphMinTurns
	}
	if f.Changed("top") {
		opts.TopEdges = graphTopEdges
	}

	r, err := rangeFromFlags(graphFrom, graphTo)
	if err != nil {
		return opts, err
	}
	opts.Range = r
	return opts, nil
}

func buildByMode(
	ctx context.Context, builder driving.RelationshipService, opts domain.GraphOptions,
) (*domain.RelationshipGraph, error) {
	switch graphMode {
	case "unified":
		return builder.BuildGraph(ctx, opts)
	case "mentions":
		return builder.BuildMentionGraph(ctx, opts)
	case "clusters":
		return builder.BuildClusterGraph(ctx, opts)
	default:
		return nil, fmt.Errorf("%w: unknown mode %q (want unified, mentions or clusters)",
			domain.ErrInvalidInput, graphMode)
	}
}

// offlineBuilder assembles the scoring pipeline over a standalone
// document. The decoded messages are loaded into an in-memory store
// for the temporal pass; mention scoring reads the document's own
// tokens, pre-extracted or parsed from content.
func offlineBuilder(path string) (driving.RelationshipService, error) {
	decoder := chatlog.New()
	raw, err := decoder.DecodeFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	store := memory.NewStore()
	importer := services.NewImportService(store.MessageStore(), decoder, nil)
	if _, err := importer.ImportArchive(context.Background(), raw, nil); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	interactions := services.NewRawInteractionService(raw)
	temporal := services.NewTemporalService(store.MessageStore(), nil)
	return services.NewGraphService(store.MessageStore(), interactions, temporal), nil
}

func writeGraphJSON(cmd *cobra.Command, graph *domain.RelationshipGraph, path string) error {
	data, err := json.MarshalIndent(graph, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}
	if path == "-" {
		cmd.Println(string(data))
		return nil
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing graph: %w", err)
	}
	cmd.Printf("Wrote graph to %s.\n", path)
	return nil
}

// renderDiagram renders the graph as a Mermaid description. Node keys
// are positional; member names only appear inside labels.
func renderDiagram(graph *domain.RelationshipGraph) string {
	var b strings.Builder
	b.WriteString("graph LR\n")

	keys := make(map[string]string, len(graph.Nodes))
	for i := range graph.Nodes {
		n := &graph.Nodes[i]
		key := fmt.Sprintf("n%d", i)
		keys[n.ID] = key
		label := strings.ReplaceAll(n.Name, `"`, "'")
		fmt.Fprintf(&b, "    %s[\"%s (%d msgs)\"]\n", key, label, n.MessageCount)
	}
	for _, e := range graph.Edges {
		fmt.Fprintf(&b, "    %s ---|%.2f| %s\n", keys[e.Source], e.Value, keys[e.Target])
	}
	return b.String()
}

func outputGraphSummary(cmd *cobra.Command, graph *domain.RelationshipGraph) {
	cmd.Printf("Scanned %d messages, scored %d pairs, kept %d edges (dropped %d).\n",
		graph.Stats.MessagesScanned, graph.Stats.PairsScored,
		graph.Stats.EdgesKept, graph.Stats.EdgesDropped)

	if len(graph.Edges) == 0 {
		cmd.Println("No relationships above the current thresholds.")
		return
	}

	names := make(map[string]string, len(graph.Nodes))
	for _, n := range graph.Nodes {
		names[n.ID] = n.Name
	}

	cmd.Println()
	cmd.Println("Relationships:")
	for _, e := range graph.Edges {
		cmd.Printf("  %s -- %s  %.4f (mentions %d, turns %d)\n",
			displayName(names, e.Source), displayName(names, e.Target),
			e.Value, e.MentionCount, e.TemporalTurns)
	}
}

func displayName(names map[string]string, id string) string {
	if name := names[id]; name != "" {
		return name
	}
	return id
}
