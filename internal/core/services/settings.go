package services

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/chatlens-labs/chatlens-cli/internal/core/domain"
	"github.com/chatlens-labs/chatlens-cli/internal/core/ports/driven"
	"github.com/chatlens-labs/chatlens-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyGapSeconds        = "segmentation.gap_seconds"
	keyMentionWeight     = "graph.mention_weight"
	keyTemporalWeight    = "graph.temporal_weight"
	keyReciprocityWeight = "graph.reciprocity_weight"
	keyDecaySeconds      = "graph.decay_seconds"
	keyWindowSeconds     = "graph.window_seconds"
	keyLookAhead         = "graph.look_ahead"
	keyMinScore          = "graph.min_score"
	keyMinTemporalTurns  = "graph.min_temporal_turns"
	keyTopEdges          = "graph.top_edges"
	keyContextSize       = "context.size"
	keyContextPageSize   = "context.page_size"
)

// settingKind distinguishes how a key's value is parsed.
type settingKind int

const (
	kindInt settingKind = iota
	kindFloat
)

// settingKinds maps every recognised key to its parser.
var settingKinds = map[string]settingKind{
	keyGapSeconds:        kindInt,
	keyMentionWeight:     kindFloat,
	keyTemporalWeight:    kindFloat,
	keyReciprocityWeight: kindFloat,
	keyDecaySeconds:      kindInt,
	keyWindowSeconds:     kindInt,
	keyLookAhead:         kindInt,
	keyMinScore:          kindFloat,
	keyMinTemporalTurns:  kindInt,
	keyTopEdges:          kindInt,
	keyContextSize:       kindInt,
	keyContextPageSize:   kindInt,
}

// SettingsService manages engine settings on top of the config store.
// Malformed stored values are corrected to defaults on read, never
// rejected; only Set validates input.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current settings with defaults applied to missing or
// malformed values.
func (s *SettingsService) Get() (*domain.AnalysisSettings, error) {
	d := domain.DefaultAnalysisSettings()

	settings := &domain.AnalysisSettings{
		Segmentation: domain.SegmentationSettings{
			GapSeconds: s.getInt(keyGapSeconds, d.Segmentation.GapSeconds),
		},
		Graph: domain.GraphSettings{
			MentionWeight:     s.getFloat(keyMentionWeight, d.Graph.MentionWeight),
			TemporalWeight:    s.getFloat(keyTemporalWeight, d.Graph.TemporalWeight),
			ReciprocityWeight: s.getFloat(keyReciprocityWeight, d.Graph.ReciprocityWeight),
			DecaySeconds:      s.getInt(keyDecaySeconds, d.Graph.DecaySeconds),
			WindowSeconds:     s.getInt(keyWindowSeconds, d.Graph.WindowSeconds),
			LookAhead:         s.getInt(keyLookAhead, d.Graph.LookAhead),
			MinScore:          s.getFloat(keyMinScore, d.Graph.MinScore),
			MinTemporalTurns:  s.getInt(keyMinTemporalTurns, d.Graph.MinTemporalTurns),
			TopEdges:          s.getInt(keyTopEdges, d.Graph.TopEdges),
		},
		Context: domain.ContextSettings{
			Size:     s.getInt(keyContextSize, d.Context.Size),
			PageSize: s.getInt(keyContextPageSize, d.Context.PageSize),
		},
	}

	return settings, nil
}

// Set parses and stores one value by dotted key.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	switch kind {
	case kindInt:
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s expects an integer, got %q", domain.ErrInvalidInput, key, value)
		}
		if v <= 0 {
			return fmt.Errorf("%w: %s must be positive", domain.ErrInvalidInput, key)
		}
		return s.configStore.Set(key, v)

	case kindFloat:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s expects a number, got %q", domain.ErrInvalidInput, key, value)
		}
		if v < 0 {
			return fmt.Errorf("%w: %s must not be negative", domain.ErrInvalidInput, key)
		}
		return s.configStore.Set(key, v)

	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
}

// Reset removes one key, or every recognised key when key is empty.
func (s *SettingsService) Reset(key string) error {
	if key == "" {
		for _, k := range s.Keys() {
			if err := s.configStore.Delete(k); err != nil {
				return fmt.Errorf("reset %s: %w", k, err)
			}
		}
		return nil
	}
	if _, ok := settingKinds[key]; !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	if err := s.configStore.Delete(key); err != nil {
		return fmt.Errorf("reset %s: %w", key, err)
	}
	return nil
}

// Keys returns all recognised setting keys, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Defaults returns the built-in defaults.
func (s *SettingsService) Defaults() domain.AnalysisSettings {
	return domain.DefaultAnalysisSettings()
}

// getInt reads an int key, falling back to def when the key is absent
// or its value is not a positive integer.
func (s *SettingsService) getInt(key string, def int) int {
	if _, ok := s.configStore.Get(key); !ok {
		return def
	}
	v := s.configStore.GetInt(key)
	if v <= 0 {
		return def
	}
	return v
}

// getFloat reads a float key, falling back to def when the key is
// absent or its value is not a finite non-negative number.
func (s *SettingsService) getFloat(key string, def float64) float64 {
	if _, ok := s.configStore.Get(key); !ok {
		return def
	}
	v := s.configStore.GetFloat(key)
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}
