package driving

import "github.com/chatlens-labs/chatlens-cli/internal/core/domain"

// SettingsService manages engine settings.
type SettingsService interface {
	// Get retrieves current settings with defaults applied to missing
	// or malformed values.
	Get() (*domain.AnalysisSettings, error)

	// Set parses and stores one value by dotted key, e.g.
	// "graph.mention_weight".
	Set(key, value string) error

	// Reset removes one key, or every key when key is empty, falling
	// back to defaults.
	Reset(key string) error

	// Keys returns all recognised setting keys, sorted.
	Keys() []string

	// Defaults returns the built-in defaults.
	Defaults() domain.AnalysisSettings
}
