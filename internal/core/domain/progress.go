package domain

// Progress stages, in the order long operations emit them.
const (
	StageScanning   = "scanning"
	StageScoring    = "scoring"
	StageExtracting = "extracting"
	StageWriting    = "writing"
	StageDone       = "done"
	StageError      = "error"
)

// Progress is one progress event from a long-running operation.
// Percent never decreases within an operation.
type Progress struct {
	// Stage names the phase the operation is in.
	Stage string `json:"stage"`

	// Done and Total count work units within the stage. Total may be 0
	// when the stage's size is unknown up front.
	Done  int `json:"done"`
	Total int `json:"total"`

	// Percent is the overall completion estimate in [0, 100].
	Percent float64 `json:"percent"`

	// Message carries a short human-readable note, or the error text
	// for StageError.
	Message string `json:"message,omitempty"`
}

// ProgressFunc receives progress events. Implementations must be fast;
// emitters call it inline. A nil ProgressFunc is always allowed.
type ProgressFunc func(Progress)

// Emit calls the function when non-nil.
func (f ProgressFunc) Emit(p Progress) {
	if f != nil {
		f(p)
	}
}
