package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/chatlens-labs/chatlens-cli/internal/core/domain"
	"github.com/chatlens-labs/chatlens-cli/internal/core/ports/driven"
	"github.com/chatlens-labs/chatlens-cli/internal/core/ports/driving"
	"github.com/chatlens-labs/chatlens-cli/internal/logger"
)

// Ensure TemporalService implements the interface.
var _ driving.TemporalService = (*TemporalService)(nil)

// positionStep is the per-rank penalty of the position weight: the
// nearest distinct partner scores 1.0, the next 0.8, then 0.6.
// positionFloor keeps far partners from going to zero or below when a
// window bound admits more than five of them.
const (
	positionStep  = 0.2
	positionFloor = 0.2

	// expectedFactor scales the independence baseline. Heuristic
	// carried over unchanged for behavioral parity.
	expectedFactor = 0.8
)

// TemporalService scores implicit temporal adjacency between speakers.
type TemporalService struct {
	messages driven.MessageStore
	seq      *RequestSeq
}

// NewTemporalService creates a new temporal adjacency service.
func NewTemporalService(messages driven.MessageStore, seq *RequestSeq) *TemporalService {
	if seq == nil {
		seq = NewRequestSeq()
	}
	return &TemporalService{messages: messages, seq: seq}
}

// turn is the lightweight projection the pass buffers: who spoke when.
type turn struct {
	sender string
	ts     int64
}

// Score runs one adjacency pass over the optional time range in opts.
//
// For each anchor message the scan walks forward collecting distinct
// other speakers. In lookahead mode it stops after opts.LookAhead of
// them; with opts.WindowSeconds set it stops when the elapsed time
// exceeds the window instead. Each (anchor, partner) occurrence adds
// exp(-delta/decay) * positionWeight to the pair score. A missing
// archive degrades to empty stats.
func (s *TemporalService) Score(ctx context.Context, opts domain.GraphOptions) (*domain.TemporalStats, error) {
	logger.Section("Temporal Scoring")
	defer logger.Timing("temporal pass")()
	opts = opts.Normalize()

	stats := &domain.TemporalStats{
		Pairs:         []domain.TemporalPairScore{},
		SpeakerCounts: make(map[string]int),
	}

	token := s.seq.Begin()
	var turns []turn
	err := s.messages.ScanMessages(ctx, opts.Range, func(m domain.Message) error {
		if s.seq.Superseded(token) {
			return domain.ErrSuperseded
		}
		turns = append(turns, turn{sender: m.SenderID, ts: m.Timestamp})
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrSuperseded) {
			return nil, domain.ErrSuperseded
		}
		if errors.Is(err, domain.ErrArchiveUnavailable) {
			logger.Warn("Archive unavailable, returning empty temporal stats")
			return stats, nil
		}
		return nil, fmt.Errorf("scan messages: %w", err)
	}

	stats.MessageCount = len(turns)
	for _, t := range turns {
		stats.SpeakerCounts[t.sender]++
	}
	logger.Debug("Buffered %d turns from %d speakers", len(turns), len(stats.SpeakerCounts))

	windowed := opts.WindowSeconds > 0
	decay := float64(opts.DecaySeconds)
	accum := make(map[domain.PairKey]*domain.PairStat)

	for i := range turns {
		if s.seq.Superseded(token) {
			return nil, domain.ErrSuperseded
		}
		anchor := turns[i]
		var seen map[string]struct{}
		for j := i + 1; j < len(turns); j++ {
			delta := turns[j].ts - anchor.ts
			if windowed && delta > int64(opts.WindowSeconds) {
				break
			}
			if turns[j].sender == anchor.sender {
				continue
			}
			if _, dup := seen[turns[j].sender]; dup {
				continue
			}
			if seen == nil {
				seen = make(map[string]struct{}, opts.LookAhead)
			}
			seen[turns[j].sender] = struct{}{}
			k := len(seen)

			pos := 1 - float64(k-1)*positionStep
			if pos < positionFloor {
				pos = positionFloor
			}
			weight := math.Exp(-float64(delta)/decay) * pos

			key := domain.NewPairKey(anchor.sender, turns[j].sender)
			stat := accum[key]
			if stat == nil {
				stat = &domain.PairStat{}
				accum[key] = stat
			}
			stat.TemporalScore += weight
			stat.TemporalTurns++

			if !windowed && k >= opts.LookAhead {
				break
			}
		}
	}

	s.normalize(stats, accum, opts)
	logger.Info("Scored %d pairs (maxRaw=%.4f, maxNorm=%.4f)",
		len(stats.Pairs), stats.MaxRaw, stats.MaxNormalized)
	return stats, nil
}

// normalize derives expected, normalized and hybrid scores and sorts
// the pair list.
//
// The expected score is an independence baseline: how much adjacency
// the pair would accumulate by chance given each member's share of the
// message volume. Dividing by it counters chat dominance bias; the
// hybrid blend keeps absolute co-occurrence relevant too.
func (s *TemporalService) normalize(
	stats *domain.TemporalStats, accum map[domain.PairKey]*domain.PairStat, opts domain.GraphOptions,
) {
	if len(accum) == 0 {
		return
	}

	total := float64(stats.MessageCount)
	baseline := float64(opts.LookAhead) * expectedFactor

	pairs := make([]domain.TemporalPairScore, 0, len(accum))
	var maxRaw, maxNorm float64
	for key, stat := range accum {
		expected := 0.0
		if total > 0 {
			cA := float64(stats.SpeakerCounts[key.A])
			cB := float64(stats.SpeakerCounts[key.B])
			expected = (cA * cB / total) * baseline
		}
		normalized := 0.0
		if expected > 0 {
			normalized = stat.TemporalScore / expected
		}
		if stat.TemporalScore > maxRaw {
			maxRaw = stat.TemporalScore
		}
		if normalized > maxNorm {
			maxNorm = normalized
		}
		pairs = append(pairs, domain.TemporalPairScore{
			Pair:       key,
			Turns:      stat.TemporalTurns,
			Raw:        stat.TemporalScore,
			Expected:   expected,
			Normalized: normalized,
		})
	}

	for i := range pairs {
		var hybrid float64
		if maxRaw > 0 {
			hybrid += 0.5 * pairs[i].Raw / maxRaw
		}
		if maxNorm > 0 {
			hybrid += 0.5 * pairs[i].Normalized / maxNorm
		}
		pairs[i].Hybrid = domain.Round4(hybrid)
		pairs[i].Normalized = domain.Round4(pairs[i].Normalized)
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Hybrid != pairs[j].Hybrid {
			return pairs[i].Hybrid > pairs[j].Hybrid
		}
		if pairs[i].Turns != pairs[j].Turns {
			return pairs[i].Turns > pairs[j].Turns
		}
		if pairs[i].Pair.A != pairs[j].Pair.A {
			return pairs[i].Pair.A < pairs[j].Pair.A
		}
		return pairs[i].Pair.B < pairs[j].Pair.B
	})

	stats.Pairs = pairs
	stats.MaxRaw = maxRaw
	stats.MaxNormalized = maxNorm
}
