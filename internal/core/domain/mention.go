package domain

// DirectedKey identifies an ordered (from, to) member pair in the
// mention matrix. A flat map keyed by this struct replaces the nested
// map-of-maps the data naturally suggests.
type DirectedKey struct {
	From string
	To   string
}

// PairKey identifies an unordered member pair in canonical form (A < B).
// Canonical ordering guarantees every pair is visited exactly once when
// deriving relations from the directed matrix.
type PairKey struct {
	A string
	B string
}

// NewPairKey returns the canonical key for two member IDs.
func NewPairKey(a, b string) PairKey {
	if b < a {
		a, b = b, a
	}
	return PairKey{A: a, B: b}
}

// PairStat accumulates per-pair signals during one scoring pass.
// It exists only inside a pass and is never persisted.
type PairStat struct {
	// MentionAB counts mentions from PairKey.A to PairKey.B.
	MentionAB int

	// MentionBA counts mentions from PairKey.B to PairKey.A.
	MentionBA int

	// TemporalTurns counts qualifying adjacency occurrences.
	TemporalTurns int

	// TemporalScore is the accumulated decayed adjacency weight.
	TemporalScore float64
}

// MentionTotal returns the undirected mention count for the pair.
func (p PairStat) MentionTotal() int {
	return p.MentionAB + p.MentionBA
}

// MentionRank is one entry of a ranked mention list.
type MentionRank struct {
	// MemberID is the ranked member.
	MemberID string

	// Name is the member's display name at scoring time.
	Name string

	// Count is the number of mentions sent (out list) or received (in list).
	Count int

	// Percentage is Count over all mentions in scope, rounded to 2 decimals.
	Percentage float64
}

// OneWayRelation marks a pair whose mentions flow overwhelmingly in one
// direction: total >= 3 and the heavier direction carries >= 80%.
type OneWayRelation struct {
	// From is the member doing nearly all the mentioning.
	From string

	// To is the member being mentioned.
	To string

	// Count is the dominant direction's mention count.
	Count int

	// Total is the pair's undirected mention count.
	Total int

	// Ratio is Count/Total, in [0.8, 1].
	Ratio float64
}

// MutualRelation marks a pair with balanced two-way mentioning:
// total >= 5, both directions non-zero, min/max >= 0.3.
type MutualRelation struct {
	// MemberA and MemberB are in canonical order (A < B).
	MemberA string
	MemberB string

	// AToB and BToA are the directed counts.
	AToB int
	BToA int

	// Balance is min/max of the directed counts, in [0.3, 1].
	Balance float64
}

// MentionStats is the output of one mention-scoring pass.
type MentionStats struct {
	// Matrix is the directed mention matrix. Self-mentions never
	// appear; duplicate targets within one message count once.
	Matrix map[DirectedKey]int

	// MessageCount is the number of messages the pass scanned.
	MessageCount int

	// SpeakerCounts maps member ID to messages sent within the pass.
	SpeakerCounts map[string]int

	// TotalMentions is the sum over the matrix.
	TotalMentions int

	// Out ranks members by mentions sent, descending.
	Out []MentionRank

	// In ranks members by mentions received, descending.
	In []MentionRank

	// OneWay lists pairs classified as one-directional.
	OneWay []OneWayRelation

	// Mutual lists pairs classified as two-way.
	Mutual []MutualRelation
}

// Directed returns the mention count from one member to another.
func (s *MentionStats) Directed(from, to string) int {
	return s.Matrix[DirectedKey{From: from, To: to}]
}

// PairCount returns the undirected mention count for two members.
func (s *MentionStats) PairCount(a, b string) int {
	return s.Directed(a, b) + s.Directed(b, a)
}

// Pairs returns the undirected pair statistics derived from the matrix,
// visiting each unordered pair exactly once.
func (s *MentionStats) Pairs() map[PairKey]PairStat {
	pairs := make(map[PairKey]PairStat)
	for key, count := range s.Matrix {
		pk := NewPairKey(key.From, key.To)
		stat := pairs[pk]
		if key.From == pk.A {
			stat.MentionAB += count
		} else {
			stat.MentionBA += count
		}
		pairs[pk] = stat
	}
	return pairs
}
