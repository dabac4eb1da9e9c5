package driven

// ConfigStore persists application configuration as dotted keys.
// Implementations own the file format and the type coercion; callers
// only see typed accessors with zero-value fallbacks.
type ConfigStore interface {
	// Get returns the raw value and whether the key exists.
	Get(key string) (any, bool)

	// GetString returns the value as a string, or "" when the key is
	// missing or holds another type.
	GetString(key string) string

	// GetInt returns the value as an int, or 0 when the key is missing
	// or not an integer.
	GetInt(key string) int

	// GetFloat returns the value as a float64, or 0 when the key is
	// missing or not numeric. Whole numbers stored under float keys
	// are accepted.
	GetFloat(key string) float64

	// GetBool returns the value as a bool, or false when the key is
	// missing or not a boolean.
	GetBool(key string) bool

	// GetStringSlice returns the value as []string, or nil when the
	// key is missing or not a slice.
	GetStringSlice(key string) []string

	// Set stores one value and persists immediately.
	Set(key string, value any) error

	// Delete removes one key and persists immediately. Deleting a
	// missing key is not an error.
	Delete(key string) error

	// Save persists the current configuration.
	Save() error

	// Load re-reads configuration from storage.
	Load() error

	// Path returns the backing file path.
	Path() string
}
