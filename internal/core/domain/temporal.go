package domain

// TemporalPairScore is the scored adjacency between one unordered pair
// of members across a whole scoring pass.
type TemporalPairScore struct {
	// Pair is the canonical unordered pair key.
	Pair PairKey

	// Turns is the number of qualifying adjacency occurrences.
	Turns int

	// Raw is the accumulated decay-and-position-weighted score.
	Raw float64

	// Expected is the independence baseline for the pair given each
	// member's share of the message volume.
	Expected float64

	// Normalized is Raw/Expected, or 0 when Expected is 0.
	Normalized float64

	// Hybrid blends max-scaled Raw and max-scaled Normalized at equal
	// weight, rounded to 4 decimals.
	Hybrid float64
}

// TemporalStats is the output of one temporal-adjacency scoring pass.
type TemporalStats struct {
	// Pairs holds every pair with at least one qualifying adjacency,
	// sorted by Hybrid descending.
	Pairs []TemporalPairScore

	// MaxRaw and MaxNormalized are the per-signal maxima the hybrid
	// blend was scaled by.
	MaxRaw        float64
	MaxNormalized float64

	// MessageCount is the number of messages the pass scanned.
	MessageCount int

	// SpeakerCounts maps member ID to messages sent within the pass.
	SpeakerCounts map[string]int
}

// Score returns the hybrid score for an unordered pair, or 0 when the
// pair never qualified.
func (s *TemporalStats) Score(a, b string) float64 {
	key := NewPairKey(a, b)
	for _, p := range s.Pairs {
		if p.Pair == key {
			return p.Hybrid
		}
	}
	return 0
}

// MaxHybrid returns the largest hybrid score in the pass, or 0 when no
// pair qualified.
func (s *TemporalStats) MaxHybrid() float64 {
	max := 0.0
	for _, p := range s.Pairs {
		if p.Hybrid > max {
			max = p.Hybrid
		}
	}
	return max
}
